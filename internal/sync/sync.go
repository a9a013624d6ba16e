// Package sync implements the playback synchronizer (C9): mapping a
// playback position in milliseconds to a lyric line index and an
// intra-line progress fraction.
package sync

import (
	"sort"

	"github.com/skufu/lyricsync/internal/model"
)

// defaultLineDurationMs is used when a line has no following line and no
// syllables to bound its end, per the lineProgress fallback rule.
const defaultLineDurationMs = 5000

// FindLineIndex performs an O(log N) binary search for the largest index i
// such that lines[i].StartTimeMs <= timeMs, or -1 if none qualifies.
func FindLineIndex(data model.LyricsData, timeMs int64) int {
	lines := data.Lines
	i := sort.Search(len(lines), func(i int) bool { return lines[i].StartTimeMs > timeMs })
	return i - 1
}

// LineProgress returns how far playback has moved through line, in
// [0.0, 1.0]. nextLine is the line immediately following line in the
// synchronized sequence, or nil if line is the last one.
func LineProgress(line model.LyricLine, nextLine *model.LyricLine, timeMs int64) float64 {
	var end int64
	switch {
	case nextLine != nil:
		end = nextLine.StartTimeMs
	case len(line.Syllables) > 0:
		last := line.Syllables[len(line.Syllables)-1]
		end = line.StartTimeMs + last.StartTimeMs + last.DurationMs
	default:
		end = line.StartTimeMs + defaultLineDurationMs
	}

	if end <= line.StartTimeMs {
		return 1.0
	}

	fraction := float64(timeMs-line.StartTimeMs) / float64(end-line.StartTimeMs)
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}
