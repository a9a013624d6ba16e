package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skufu/lyricsync/internal/model"
)

func TestScore_ExactMatch(t *testing.T) {
	target := model.SongInformation{
		Title:      "Test Song",
		Artists:    []string{"Test Artist"},
		Album:      "Test Album",
		DurationMs: 200000,
	}
	candidate := model.LyricCandidate{
		Title:      "Test Song",
		Artist:     "Test Artist",
		Album:      "Test Album",
		DurationMs: 200000,
	}
	require.Equal(t, 100, Score(target, candidate))
}

func TestScore_DurationBands(t *testing.T) {
	target := model.SongInformation{Title: "Song", Artists: []string{"Artist"}, DurationMs: 200000}

	cases := []struct {
		candidateMs int64
		want        float64
	}{
		{200000, 10},
		{202000, 7},
		{204500, 4},
		{209000, 0},
		{215000, -5},
		{250000, -10},
	}
	for _, c := range cases {
		got := durationAdjustment(target.DurationMs, c.candidateMs)
		assert.Equalf(t, c.want, got, "durationAdjustment(200000, %d)", c.candidateMs)
	}
}

func TestArtistScore_SubsetInclusion(t *testing.T) {
	assert.Equal(t, 1.0, artistScore([]string{"Artist"}, "Artist feat. Someone"))
}

func TestArtistScore_AmpersandAndSlashTokenize(t *testing.T) {
	assert.Equal(t, 1.0, artistScore([]string{"A & B"}, "A/B"))
}

func TestScore_AliasImprovesScore(t *testing.T) {
	target := model.SongInformation{
		Title:   "Original Title",
		Artists: []string{"Artist"},
		SearchAliases: model.SearchAliases{
			Titles: []string{"Exact Candidate Title"},
		},
	}
	candidate := model.LyricCandidate{Title: "Exact Candidate Title", Artist: "Artist"}

	primaryOnly := Score(model.SongInformation{Title: target.Title, Artists: target.Artists}, candidate)
	withAlias := Score(target, candidate)

	require.Greater(t, withAlias, primaryOnly)
}
