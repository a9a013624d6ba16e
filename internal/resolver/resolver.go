// Package resolver implements the query resolver (C6): turning a
// SongInformation into a priority-ordered sequence of title/artist queries
// for the lyric providers to search with.
package resolver

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/skufu/lyricsync/internal/model"
	"github.com/skufu/lyricsync/internal/similarity"
)

// Query is one title/artist pair to try against the providers.
type Query struct {
	Title  string
	Artist string
}

// Recording is one registry hit for an ISRC.
type Recording struct {
	Title             string
	PrimaryArtistName string
}

// Registry looks up recordings for an ISRC. A conforming implementation
// wraps a MusicBrainz-shaped `recording?query=isrc:<isrc>&fmt=json` call.
type Registry interface {
	LookupISRC(ctx context.Context, isrc string) ([]Recording, error)
}

// Resolver resolves SongInformation into prioritized queries, coalescing
// concurrent registry lookups for the same ISRC. The coalescing group and
// the result cache belong to each Resolver instance; separate Resolvers
// do not share them.
type Resolver struct {
	registry Registry
	group    singleflight.Group
	cacheMu  sync.Mutex
	cache    map[string][]Recording
}

// New builds a Resolver backed by the given registry. registry may be nil,
// in which case ISRC lookups are skipped entirely (fallback-only mode).
func New(registry Registry) *Resolver {
	return &Resolver{registry: registry, cache: make(map[string][]Recording)}
}

// ResolveQueries implements the C6 strategy: registry lookup + coalescing,
// dedup, language-priority sort, and manual-override/fallback handling.
func (r *Resolver) ResolveQueries(ctx context.Context, song model.SongInformation) []Query {
	fallback := Query{Title: song.Title, Artist: song.PrimaryArtist()}

	if song.ISRC == "" || r.registry == nil {
		return []Query{fallback}
	}

	recordings := r.lookupCoalesced(ctx, song.ISRC)
	if len(recordings) == 0 {
		return []Query{fallback}
	}

	queries := dedupe(recordings)
	sortByLanguagePriority(queries)

	best := 0.0
	for _, q := range queries {
		if s := similarity.Ratio(song.Title, q.Title); s > best {
			best = s
		}
	}

	if best < 0.8 {
		queries = prependIfAbsent(queries, fallback)
	}

	return queries
}

// lookupCoalesced performs the ISRC registry call at most once per ISRC for
// this Resolver, regardless of how many callers request it concurrently.
func (r *Resolver) lookupCoalesced(ctx context.Context, isrc string) []Recording {
	v, _, _ := r.group.Do(isrc, func() (interface{}, error) {
		r.cacheMu.Lock()
		cached, ok := r.cache[isrc]
		r.cacheMu.Unlock()
		if ok {
			return cached, nil
		}

		recordings, err := r.registry.LookupISRC(ctx, isrc)
		if err != nil {
			log.WithError(err).WithField("isrc", isrc).Warn("registry lookup failed, falling back")
			recordings = nil
		}

		r.cacheMu.Lock()
		r.cache[isrc] = recordings
		r.cacheMu.Unlock()
		return recordings, nil
	})
	recordings, _ := v.([]Recording)
	return recordings
}

func dedupe(recordings []Recording) []Query {
	seen := make(map[string]struct{}, len(recordings))
	queries := make([]Query, 0, len(recordings))
	for _, rec := range recordings {
		key := strings.ToLower(rec.Title) + "|" + strings.ToLower(rec.PrimaryArtistName)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		queries = append(queries, Query{Title: rec.Title, Artist: rec.PrimaryArtistName})
	}
	return queries
}

func sortByLanguagePriority(queries []Query) {
	sort.SliceStable(queries, func(i, j int) bool {
		return languagePriority(queries[i].Title) > languagePriority(queries[j].Title)
	})
}

// languagePriority ranks Chinese-dominant text above Japanese-dominant text
// above everything else, per the language priority sort.
func languagePriority(s string) int {
	hasHan, hasKana := false, false
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Han, r):
			hasHan = true
		case unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r):
			hasKana = true
		}
	}
	switch {
	case hasHan && !hasKana:
		return 3
	case hasKana:
		return 2
	default:
		return 1
	}
}

func prependIfAbsent(queries []Query, q Query) []Query {
	for _, existing := range queries {
		if strings.EqualFold(existing.Title, q.Title) && strings.EqualFold(existing.Artist, q.Artist) {
			return queries
		}
	}
	return append([]Query{q}, queries...)
}
