// Package providers implements the pluggable lyric providers (C7): typed
// adapters over three real lyric search backends, each projecting raw wire
// responses into model.LyricCandidate at the adapter boundary.
package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/skufu/lyricsync/internal/model"
)

// Provider searches a single backend for lyric candidates matching song.
// Errors are absorbed: a failing provider returns an empty slice, never an
// error that escapes the call.
type Provider interface {
	Name() string
	Search(ctx context.Context, song model.SongInformation, limit int) []model.LyricCandidate
}

// httpTimeout bounds every HTTP-backed provider's client so a slow or
// hanging backend can't stall the aggregator's fan-out indefinitely.
const httpTimeout = 10 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
