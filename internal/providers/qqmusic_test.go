package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skufu/lyricsync/internal/model"
)

func TestQQMusicProvider_Search(t *testing.T) {
	lyric := base64.StdEncoding.EncodeToString([]byte("[00:01.00]Hello"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "client_search_cp") {
			_ = json.NewEncoder(w).Encode(qqSearchResponse{
				Data: struct {
					Song struct {
						List []qqSong `json:"list"`
					} `json:"song"`
				}{Song: struct {
					List []qqSong `json:"list"`
				}{List: []qqSong{{SongMID: "abc123", Name: "Test Song", Interval: 210}}}},
			})
			return
		}
		fmt.Fprintf(w, `callback({"lyric":"%s"})`, lyric)
	}))
	defer server.Close()

	p := NewQQMusicProvider(server.URL)
	candidates := p.Search(context.Background(), model.SongInformation{Title: "Test Song"}, 5)

	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d; want 1", len(candidates))
	}
	if candidates[0].LyricText != "[00:01.00]Hello" || candidates[0].Source != "QQMusic" {
		t.Fatalf("candidate = %+v", candidates[0])
	}
	if candidates[0].DurationMs != 210000 {
		t.Errorf("DurationMs = %d; want 210000 (seconds-to-ms conversion)", candidates[0].DurationMs)
	}
}

func TestQQMusicProvider_SkipsSongsWhoseLyricFetchFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "client_search_cp") {
			_ = json.NewEncoder(w).Encode(qqSearchResponse{
				Data: struct {
					Song struct {
						List []qqSong `json:"list"`
					} `json:"song"`
				}{Song: struct {
					List []qqSong `json:"list"`
				}{List: []qqSong{{SongMID: "bad", Name: "Bad Song"}}}},
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewQQMusicProvider(server.URL)
	candidates := p.Search(context.Background(), model.SongInformation{Title: "Bad Song"}, 5)
	if len(candidates) != 0 {
		t.Fatalf("len(candidates) = %d; want 0", len(candidates))
	}
}

func TestStripJSONP(t *testing.T) {
	cases := map[string]string{
		`callback({"a":1})`: `{"a":1}`,
		`{"a":1}`:           `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripJSONP(in); got != want {
			t.Errorf("stripJSONP(%q) = %q; want %q", in, got, want)
		}
	}
}
