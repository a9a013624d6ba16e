package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMusicBrainzRegistry_LookupISRC(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "isrc:USRC17607839" {
			t.Errorf("query = %q; want isrc:USRC17607839", got)
		}
		_ = json.NewEncoder(w).Encode(recordingSearchResponse{
			Recordings: []recordingJSON{
				{Title: "Test Recording", ArtistCredit: []artistCredit{{Artist: struct {
					Name string `json:"name"`
				}{Name: "Test Artist"}}}},
			},
		})
	}))
	defer server.Close()

	registry := &MusicBrainzRegistry{httpClient: &http.Client{Timeout: 5 * time.Second}, apiURL: server.URL}

	recordings, err := registry.LookupISRC(context.Background(), "USRC17607839")
	if err != nil {
		t.Fatalf("LookupISRC failed: %v", err)
	}
	if len(recordings) != 1 {
		t.Fatalf("len(recordings) = %d; want 1", len(recordings))
	}
	if recordings[0].Title != "Test Recording" || recordings[0].PrimaryArtistName != "Test Artist" {
		t.Fatalf("recording = %+v", recordings[0])
	}
}

func TestMusicBrainzRegistry_NonOKStatusReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	registry := &MusicBrainzRegistry{httpClient: &http.Client{Timeout: 5 * time.Second}, apiURL: server.URL}

	if _, err := registry.LookupISRC(context.Background(), "X"); err == nil {
		t.Fatal("expected an error for a non-200 registry response")
	}
}

func TestMusicBrainzRegistry_JoinsMultipleArtistCredits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(recordingSearchResponse{
			Recordings: []recordingJSON{{
				Title: "Collab",
				ArtistCredit: []artistCredit{
					{Artist: struct {
						Name string `json:"name"`
					}{Name: "Artist A"}},
					{Artist: struct {
						Name string `json:"name"`
					}{Name: "Artist B"}},
				},
			}},
		})
	}))
	defer server.Close()

	registry := &MusicBrainzRegistry{httpClient: &http.Client{Timeout: 5 * time.Second}, apiURL: server.URL}
	recordings, err := registry.LookupISRC(context.Background(), "X")
	if err != nil {
		t.Fatalf("LookupISRC failed: %v", err)
	}
	if recordings[0].PrimaryArtistName != "Artist A, Artist B" {
		t.Errorf("PrimaryArtistName = %q; want %q", recordings[0].PrimaryArtistName, "Artist A, Artist B")
	}
}
