package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/skufu/lyricsync/internal/model"
)

// LRCLibProvider adapts the flat lrclib.net search API: GET /search?q=<kw>
// returns {id,trackName,artistName,albumName,duration,syncedLyrics,
// plainLyrics}.
type LRCLibProvider struct {
	client  *http.Client
	baseURL string
}

// NewLRCLibProvider builds a provider against the public lrclib.net API.
func NewLRCLibProvider() *LRCLibProvider {
	return &LRCLibProvider{client: newHTTPClient(), baseURL: "https://lrclib.net/api"}
}

func (p *LRCLibProvider) Name() string { return "LRCLIB" }

type lrcLibTrack struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

func (p *LRCLibProvider) Search(ctx context.Context, song model.SongInformation, limit int) []model.LyricCandidate {
	kw := fmt.Sprintf("%s %s", song.Title, song.PrimaryArtist())
	endpoint := fmt.Sprintf("%s/search?q=%s", p.baseURL, url.QueryEscape(kw))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doWithRetry(ctx, func() (*http.Response, error) { return p.client.Do(req) })
	if err != nil {
		log.WithError(err).Warn("lrclib: request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).Warn("lrclib: non-200 response")
		return nil
	}

	var tracks []lrcLibTrack
	if err := json.NewDecoder(resp.Body).Decode(&tracks); err != nil {
		log.WithError(err).Warn("lrclib: decode failed")
		return nil
	}

	candidates := make([]model.LyricCandidate, 0, len(tracks))
	for _, track := range tracks {
		lyricText := track.SyncedLyrics
		if lyricText == "" {
			lyricText = track.PlainLyrics
		}
		if lyricText == "" {
			continue
		}
		candidates = append(candidates, model.LyricCandidate{
			ID:         fmt.Sprintf("lrclib:%d", track.ID),
			Source:     p.Name(),
			LyricText:  lyricText,
			Title:      track.TrackName,
			Artist:     track.ArtistName,
			Album:      track.AlbumName,
			DurationMs: int64(track.Duration * 1000),
		})
		if limit > 0 && len(candidates) >= limit {
			break
		}
	}
	return candidates
}
