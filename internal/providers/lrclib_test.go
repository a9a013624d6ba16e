package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skufu/lyricsync/internal/model"
)

func TestLRCLibProvider_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracks := []lrcLibTrack{
			{ID: 1, TrackName: "Test Song", ArtistName: "Test Artist", SyncedLyrics: "[00:01.00]Hello"},
		}
		_ = json.NewEncoder(w).Encode(tracks)
	}))
	defer server.Close()

	p := &LRCLibProvider{client: newHTTPClient(), baseURL: server.URL}
	candidates := p.Search(context.Background(), model.SongInformation{Title: "Test Song", Artists: []string{"Test Artist"}}, 5)

	if len(candidates) != 1 {
		t.Fatalf("len(candidates) = %d; want 1", len(candidates))
	}
	if candidates[0].LyricText != "[00:01.00]Hello" || candidates[0].Source != "LRCLIB" {
		t.Fatalf("candidate = %+v", candidates[0])
	}
}

func TestLRCLibProvider_SkipsEmptyLyrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracks := []lrcLibTrack{{ID: 1, TrackName: "No Lyrics"}}
		_ = json.NewEncoder(w).Encode(tracks)
	}))
	defer server.Close()

	p := &LRCLibProvider{client: newHTTPClient(), baseURL: server.URL}
	candidates := p.Search(context.Background(), model.SongInformation{Title: "No Lyrics"}, 5)

	if len(candidates) != 0 {
		t.Fatalf("len(candidates) = %d; want 0", len(candidates))
	}
}

func TestLRCLibProvider_NetworkErrorReturnsEmpty(t *testing.T) {
	p := &LRCLibProvider{client: newHTTPClient(), baseURL: "http://127.0.0.1:0"}
	candidates := p.Search(context.Background(), model.SongInformation{Title: "X"}, 5)
	if candidates != nil {
		t.Fatalf("candidates = %+v; want nil", candidates)
	}
}
