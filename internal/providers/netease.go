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

// NeteaseProvider adapts a Netease-Cloud-Music-shaped API: search via
// /cloudsearch/pc, then fetch synced lyrics per song id via /song/lyric.
type NeteaseProvider struct {
	client  *http.Client
	baseURL string
}

// NewNeteaseProvider builds a provider against a Netease-style host.
func NewNeteaseProvider(baseURL string) *NeteaseProvider {
	return &NeteaseProvider{client: newHTTPClient(), baseURL: baseURL}
}

func (p *NeteaseProvider) Name() string { return "Netease" }

type neteaseSearchResponse struct {
	Code   int `json:"code"`
	Result struct {
		Songs []neteaseSong `json:"songs"`
	} `json:"result"`
}

type neteaseSong struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Ar   []struct {
		Name string `json:"name"`
	} `json:"ar"`
	Al struct {
		Name string `json:"name"`
	} `json:"al"`
	Dt int64 `json:"dt"`
}

type neteaseLyricResponse struct {
	Code int `json:"code"`
	Lrc  struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
}

func (p *NeteaseProvider) Search(ctx context.Context, song model.SongInformation, limit int) []model.LyricCandidate {
	kw := fmt.Sprintf("%s %s", song.Title, song.PrimaryArtist())
	searchURL := fmt.Sprintf("%s/cloudsearch/pc?s=%s&type=1&offset=0&limit=%d", p.baseURL, url.QueryEscape(kw), limit)

	var searchResp neteaseSearchResponse
	if err := p.getJSON(ctx, searchURL, &searchResp); err != nil {
		log.WithError(err).Warn("netease: search failed")
		return nil
	}
	if searchResp.Code != 200 {
		return nil
	}

	candidates := make([]model.LyricCandidate, 0, len(searchResp.Result.Songs))
	for _, song := range searchResp.Result.Songs {
		lyricURL := fmt.Sprintf("%s/song/lyric?id=%d&lv=-1&kv=-1&tv=-1", p.baseURL, song.ID)
		var lyricResp neteaseLyricResponse
		if err := p.getJSON(ctx, lyricURL, &lyricResp); err != nil {
			log.WithError(err).WithField("id", song.ID).Warn("netease: lyric fetch failed")
			continue
		}
		if lyricResp.Lrc.Lyric == "" {
			continue
		}

		artists := make([]string, 0, len(song.Ar))
		for _, a := range song.Ar {
			artists = append(artists, a.Name)
		}

		candidates = append(candidates, model.LyricCandidate{
			ID:         fmt.Sprintf("netease:%d", song.ID),
			Source:     p.Name(),
			LyricText:  lyricResp.Lrc.Lyric,
			Title:      song.Name,
			Artist:     joinStrings(artists),
			Album:      song.Al.Name,
			DurationMs: song.Dt,
		})
	}
	return candidates
}

func (p *NeteaseProvider) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
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
		return fmt.Errorf("netease: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
