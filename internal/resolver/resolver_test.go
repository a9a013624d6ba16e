package resolver

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skufu/lyricsync/internal/model"
)

type stubRegistry struct {
	calls      int32
	recordings []Recording
}

func (s *stubRegistry) LookupISRC(ctx context.Context, isrc string) ([]Recording, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.recordings, nil
}

func TestResolveQueries_NoISRC_FallsBackToSongTitle(t *testing.T) {
	r := New(nil)
	song := model.SongInformation{Title: "My Song", Artists: []string{"My Artist"}}

	queries := r.ResolveQueries(context.Background(), song)
	require.Len(t, queries, 1)
	assert.Equal(t, "My Song", queries[0].Title)
	assert.Equal(t, "My Artist", queries[0].Artist)
}

func TestResolveQueries_OverrideDetection(t *testing.T) {
	reg := &stubRegistry{recordings: []Recording{{Title: "Original Title", PrimaryArtistName: "X"}}}
	r := New(reg)
	song := model.SongInformation{Title: "Completely Different", Artists: []string{"Y"}, ISRC: "ISRC1"}

	queries := r.ResolveQueries(context.Background(), song)
	require.Len(t, queries, 2)
	assert.Equal(t, "Completely Different", queries[0].Title, "fallback pair must come first")
	assert.Equal(t, "Original Title", queries[1].Title, "registry pair follows the fallback")
}

func TestResolveQueries_CoalescesConcurrentLookups(t *testing.T) {
	reg := &stubRegistry{recordings: []Recording{{Title: "T", PrimaryArtistName: "A"}}}
	r := New(reg)
	song := model.SongInformation{Title: "T", Artists: []string{"A"}, ISRC: "SHARED"}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			r.ResolveQueries(context.Background(), song)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.EqualValues(t, 1, atomic.LoadInt32(&reg.calls))
}

func TestLanguagePriority(t *testing.T) {
	cases := []struct {
		s    string
		want int
	}{
		{"你好", 3},
		{"こんにちは", 2},
		{"hello", 1},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, languagePriority(c.s), "languagePriority(%q)", c.s)
	}
}
