// Package config loads and persists application settings: provider
// endpoints, the persistence database location, playback tuning, and
// optional Spotify OAuth credentials for the demo track source.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all application configuration.
type Config struct {
	// Spotify OAuth settings, used only when running with the optional
	// live Spotify track source.
	SpotifyClientID     string `json:"spotify_client_id"`
	SpotifyClientSecret string `json:"spotify_client_secret"`
	RedirectURI         string `json:"redirect_uri"`
	Port                int    `json:"port"`

	// Provider endpoints. LRCLIB has a fixed public host; Netease- and
	// QQ-Music-style mirrors vary by deployment, so their base URLs are
	// configurable.
	Providers ProvidersConfig `json:"providers"`

	// PersistenceDBPath is where the bbolt-backed store keeps its file.
	PersistenceDBPath string `json:"persistence_db_path"`

	// SearchLimit bounds how many candidates each provider is asked for
	// per query.
	SearchLimit int `json:"search_limit"`

	// Playback tuning.
	Playback PlaybackConfig `json:"playback"`

	// Auth tokens (persisted locally).
	Auth AuthConfig `json:"auth"`
}

// ProvidersConfig holds the configurable provider base URLs.
type ProvidersConfig struct {
	NeteaseBaseURL string `json:"netease_base_url"`
	QQMusicBaseURL string `json:"qqmusic_base_url"`
}

// PlaybackConfig holds playback synchronization tuning.
type PlaybackConfig struct {
	// SyncOffsetMs is saved and loaded with the config file; no code in
	// this module applies it to playback positions.
	SyncOffsetMs int64 `json:"sync_offset_ms"`
}

// AuthConfig holds OAuth tokens.
type AuthConfig struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Service manages configuration persistence.
type Service struct {
	config   *Config
	filePath string
}

// New creates a new config service, loading an existing config file under
// ~/.lyricsync or writing out the defaults if none exists yet.
func New() (*Service, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".lyricsync")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.json")

	service := &Service{
		filePath: configPath,
		config:   getDefaultConfig(configDir),
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := service.Load(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		if err := service.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return service, nil
}

func getDefaultConfig(configDir string) *Config {
	return &Config{
		RedirectURI: "http://127.0.0.1:8080/callback",
		Port:        8080,
		Providers: ProvidersConfig{
			NeteaseBaseURL: "https://netease-cloud-music-api-example.vercel.app",
			QQMusicBaseURL: "https://c.y.qq.com",
		},
		PersistenceDBPath: filepath.Join(configDir, "lyricsync.db"),
		SearchLimit:       10,
		Playback: PlaybackConfig{
			SyncOffsetMs: 0,
		},
	}
}

// Get returns the current configuration.
func (s *Service) Get() *Config {
	return s.config
}

// Set replaces the current configuration.
func (s *Service) Set(config *Config) {
	s.config = config
}

// Load loads configuration from file.
func (s *Service) Load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, s.config)
}

// Save saves configuration to file.
func (s *Service) Save() error {
	data, err := json.MarshalIndent(s.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0644)
}

// Path returns the full path to the configuration file.
func (s *Service) Path() string {
	return s.filePath
}

// UpdatePlayback updates playback configuration.
func (s *Service) UpdatePlayback(playback PlaybackConfig) error {
	s.config.Playback = playback
	return s.Save()
}

// UpdateAuth updates auth configuration.
func (s *Service) UpdateAuth(auth AuthConfig) error {
	s.config.Auth = auth
	return s.Save()
}
