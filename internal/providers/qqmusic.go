package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/skufu/lyricsync/internal/model"
)

// QQMusicProvider adapts a QQ-Music-shaped API: search via
// client_search_cp, then fetch a JSONP-wrapped base64 lyric blob via
// fcg_query_lyric_new.fcg.
type QQMusicProvider struct {
	client  *http.Client
	baseURL string
}

// NewQQMusicProvider builds a provider against a QQ-Music-style host.
func NewQQMusicProvider(baseURL string) *QQMusicProvider {
	return &QQMusicProvider{client: newHTTPClient(), baseURL: baseURL}
}

func (p *QQMusicProvider) Name() string { return "QQMusic" }

type qqSearchResponse struct {
	Data struct {
		Song struct {
			List []qqSong `json:"list"`
		} `json:"song"`
	} `json:"data"`
}

type qqSong struct {
	SongMID string `json:"songmid"`
	Name    string `json:"songname"`
	Singer  []struct {
		Name string `json:"name"`
	} `json:"singer"`
	AlbumName string `json:"albumname"`
	// Interval is documented ambiguously as seconds or milliseconds; the
	// QQ-Music-style wire contract uses seconds, converted to ms below.
	Interval int64 `json:"interval"`
}

func (p *QQMusicProvider) Search(ctx context.Context, song model.SongInformation, limit int) []model.LyricCandidate {
	kw := fmt.Sprintf("%s %s", song.Title, song.PrimaryArtist())
	searchURL := fmt.Sprintf("%s/soso/fcgi-bin/client_search_cp?w=%s&n=%d&format=json", p.baseURL, url.QueryEscape(kw), limit)

	var searchResp qqSearchResponse
	if err := p.getJSON(ctx, searchURL, &searchResp); err != nil {
		log.WithError(err).Warn("qqmusic: search failed")
		return nil
	}

	candidates := make([]model.LyricCandidate, 0, len(searchResp.Data.Song.List))
	for _, s := range searchResp.Data.Song.List {
		lyricText, err := p.fetchLyric(ctx, s.SongMID)
		if err != nil || lyricText == "" {
			if err != nil {
				log.WithError(err).WithField("songmid", s.SongMID).Warn("qqmusic: lyric fetch failed")
			}
			continue
		}

		artists := make([]string, 0, len(s.Singer))
		for _, a := range s.Singer {
			artists = append(artists, a.Name)
		}

		candidates = append(candidates, model.LyricCandidate{
			ID:         fmt.Sprintf("qqmusic:%s", s.SongMID),
			Source:     p.Name(),
			LyricText:  lyricText,
			Title:      s.Name,
			Artist:     joinStrings(artists),
			Album:      s.AlbumName,
			DurationMs: s.Interval * 1000,
		})
	}
	return candidates
}

func (p *QQMusicProvider) fetchLyric(ctx context.Context, songMID string) (string, error) {
	endpoint := fmt.Sprintf("%s/lyric/fcg-bin/fcg_query_lyric_new.fcg?songmid=%s&format=json", p.baseURL, url.QueryEscape(songMID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := doWithRetry(ctx, func() (*http.Response, error) { return p.client.Do(req) })
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("qqmusic: lyric status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	body := stripJSONP(string(raw))

	var decoded struct {
		Lyric string `json:"lyric"`
	}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return "", err
	}

	decodedLyric, err := base64.StdEncoding.DecodeString(decoded.Lyric)
	if err != nil {
		return "", err
	}
	return string(decodedLyric), nil
}

// stripJSONP unwraps a `callback(...)`-style JSONP envelope down to the
// inner JSON object, if present.
func stripJSONP(s string) string {
	s = strings.TrimSpace(s)
	start := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if start == -1 || end == -1 || end <= start {
		return s
	}
	return s[start+1 : end]
}

func (p *QQMusicProvider) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doWithRetry(ctx, func() (*http.Response, error) { return p.client.Do(req) })
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qqmusic: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
