// Package spotifysource is an optional SongInformation producer: it polls
// a user's currently-playing Spotify track and feeds it into the
// selection pipeline.
package spotifysource

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/skufu/lyricsync/internal/config"
)

// AuthService handles the Spotify OAuth2 flow and holds the resulting
// API client.
type AuthService struct {
	config        *config.Service
	authenticator *spotifyauth.Authenticator
	client        *spotify.Client
	server        *http.Server
	state         string
}

// NewAuthService builds an AuthService from the configured client
// credentials, attempting to reuse any previously stored tokens.
func NewAuthService(configSvc *config.Service) (*AuthService, error) {
	cfg := configSvc.Get()

	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		return nil, fmt.Errorf("spotify client ID and secret must be configured")
	}

	state, err := generateRandomState()
	if err != nil {
		return nil, fmt.Errorf("generate oauth state: %w", err)
	}

	authenticator := spotifyauth.New(
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadCurrentlyPlaying,
			spotifyauth.ScopeUserReadPlaybackState,
		),
		spotifyauth.WithClientID(cfg.SpotifyClientID),
		spotifyauth.WithClientSecret(cfg.SpotifyClientSecret),
	)

	service := &AuthService{config: configSvc, authenticator: authenticator, state: state}

	if cfg.Auth.AccessToken != "" {
		service.createClientFromStoredTokens()
	}

	return service, nil
}

func generateRandomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (s *AuthService) createClientFromStoredTokens() {
	cfg := s.config.Get()
	token := &oauth2.Token{
		AccessToken:  cfg.Auth.AccessToken,
		RefreshToken: cfg.Auth.RefreshToken,
		TokenType:    cfg.Auth.TokenType,
		Expiry:       time.Unix(cfg.Auth.ExpiresAt, 0),
	}

	s.client = spotify.New(s.authenticator.Client(context.Background(), token))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.client.CurrentUser(ctx); err != nil {
		if s.refreshToken() != nil {
			s.clearTokens()
		}
	}
}

// IsAuthenticated reports whether a usable Spotify client is available.
func (s *AuthService) IsAuthenticated() bool {
	return s.client != nil
}

// GetClient returns the authenticated client, refreshing its token if it
// is within 5 minutes of expiry.
func (s *AuthService) GetClient() *spotify.Client {
	if s.client == nil {
		return nil
	}

	cfg := s.config.Get()
	if time.Now().Unix() >= cfg.Auth.ExpiresAt-300 {
		if err := s.refreshToken(); err != nil {
			s.clearTokens()
			return nil
		}
	}
	return s.client
}

// StartOAuthFlow starts the local callback server and logs the
// authorization URL for the user to visit.
func (s *AuthService) StartOAuthFlow() error {
	cfg := s.config.Get()
	if err := s.startCallbackServer(cfg.Port); err != nil {
		return fmt.Errorf("start callback server: %w", err)
	}

	authURL := s.authenticator.AuthURL(s.state)
	log.WithField("url", authURL).Info("visit this URL to authenticate with Spotify")
	return nil
}

func (s *AuthService) startCallbackServer(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	s.server = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Warn("oauth callback server error")
		}
	}()
	return nil
}

func (s *AuthService) handleCallback(w http.ResponseWriter, r *http.Request) {
	defer s.stopCallbackServer()

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Error(w, fmt.Sprintf("oauth error: %s", errMsg), http.StatusBadRequest)
		return
	}

	if state := r.URL.Query().Get("state"); state != s.state {
		http.Error(w, "invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	token, err := s.authenticator.Exchange(r.Context(), code)
	if err != nil {
		http.Error(w, fmt.Sprintf("token exchange failed: %v", err), http.StatusInternalServerError)
		return
	}

	if err := s.saveTokens(token); err != nil {
		http.Error(w, fmt.Sprintf("failed to save tokens: %v", err), http.StatusInternalServerError)
		return
	}

	s.client = spotify.New(s.authenticator.Client(context.Background(), token))
	fmt.Fprint(w, "<html><body><h1>Authentication successful</h1><p>You can close this window.</p></body></html>")
}

func (s *AuthService) stopCallbackServer() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(ctx)
	s.server = nil
}

func (s *AuthService) saveTokens(token *oauth2.Token) error {
	auth := config.AuthConfig{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.Expiry.Unix(),
	}
	return s.config.UpdateAuth(auth)
}

func (s *AuthService) refreshToken() error {
	if s.client == nil {
		return fmt.Errorf("no client available")
	}

	cfg := s.config.Get()
	if cfg.Auth.RefreshToken == "" {
		return fmt.Errorf("no refresh token available")
	}

	token := &oauth2.Token{
		AccessToken:  cfg.Auth.AccessToken,
		RefreshToken: cfg.Auth.RefreshToken,
		TokenType:    cfg.Auth.TokenType,
		Expiry:       time.Unix(cfg.Auth.ExpiresAt, 0),
	}

	newToken, err := s.authenticator.RefreshToken(context.Background(), token)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	if err := s.saveTokens(newToken); err != nil {
		return fmt.Errorf("save refreshed token: %w", err)
	}

	s.client = spotify.New(s.authenticator.Client(context.Background(), newToken))
	return nil
}

func (s *AuthService) clearTokens() {
	_ = s.config.UpdateAuth(config.AuthConfig{})
	s.client = nil
}

// Logout clears stored tokens and stops any running callback server.
func (s *AuthService) Logout() {
	s.clearTokens()
	s.stopCallbackServer()
}

// GetAuthURL returns the OAuth authorization URL for the current state.
func (s *AuthService) GetAuthURL() string {
	return s.authenticator.AuthURL(s.state)
}
