// Package scoring implements the weighted composite scorer (C5) used to
// rank lyric candidates against the track a caller asked for.
package scoring

import (
	"math"
	"strings"

	"github.com/skufu/lyricsync/internal/model"
	"github.com/skufu/lyricsync/internal/similarity"
)

const (
	titleWeight  = 40.0
	artistWeight = 30.0
	albumWeight  = 20.0
)

// Score returns the best integer score for target against candidate,
// considering the primary title/artists pair plus every combination of
// target's search aliases.
func Score(target model.SongInformation, candidate model.LyricCandidate) int {
	best := scorePair(target.Title, target.Artists, target, candidate)

	for _, titleAlias := range target.SearchAliases.Titles {
		if s := scorePair(titleAlias, target.Artists, target, candidate); s > best {
			best = s
		}
	}
	for _, artistAlias := range target.SearchAliases.Artists {
		if s := scorePair(target.Title, []string{artistAlias}, target, candidate); s > best {
			best = s
		}
	}
	for _, titleAlias := range target.SearchAliases.Titles {
		for _, artistAlias := range target.SearchAliases.Artists {
			if s := scorePair(titleAlias, []string{artistAlias}, target, candidate); s > best {
				best = s
			}
		}
	}

	return best
}

func scorePair(title string, artists []string, target model.SongInformation, candidate model.LyricCandidate) int {
	total := similarity.Ratio(title, candidate.Title) * titleWeight
	total += artistScore(artists, candidate.Artist) * artistWeight

	if target.Album != "" && candidate.Album != "" {
		total += similarity.Ratio(target.Album, candidate.Album) * albumWeight
	}

	if target.DurationMs > 0 && candidate.DurationMs > 0 {
		total += durationAdjustment(target.DurationMs, candidate.DurationMs)
	}

	return int(math.Round(total))
}

// durationAdjustment applies the graduated +10..-10 bonus/penalty table
// keyed on the absolute difference in milliseconds.
func durationAdjustment(targetMs, candidateMs int64) float64 {
	d := targetMs - candidateMs
	if d < 0 {
		d = -d
	}
	switch {
	case d <= 1000:
		return 10
	case d <= 3000:
		return 7
	case d <= 5000:
		return 4
	case d <= 10000:
		return 0
	case d <= 20000:
		return -5
	default:
		return -10
	}
}

// artistScore compares a target artist list against a candidate's raw
// artist string: tokenize both, and prefer exact set inclusion over a
// Jaccard/similarity fallback.
func artistScore(targetArtists []string, candidateArtist string) float64 {
	t := tokenizeArtists(strings.Join(targetArtists, " "))
	c := tokenizeArtists(candidateArtist)

	if isSubset(t, c) || isSubset(c, t) {
		return 1.0
	}

	jaccard := jaccardIndex(t, c)
	if jaccard <= 0.5 {
		fallback := similarity.Ratio(strings.Join(targetArtists, " "), candidateArtist)
		if fallback > jaccard {
			return fallback
		}
	}
	return jaccard
}

func tokenizeArtists(s string) map[string]struct{} {
	s = strings.ReplaceAll(s, "&", ",")
	s = strings.ReplaceAll(s, "/", ",")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})

	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}

func isSubset(a, b map[string]struct{}) bool {
	if len(a) == 0 {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func jaccardIndex(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
