// Package lrc implements the standard and enhanced LRC lyric parsers
// (C3/C4): turning raw `[mm:ss.xx]` and `<mm:ss.xx>` tagged text into a
// structured model.LyricsData.
package lrc

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/skufu/lyricsync/internal/model"
)

var (
	metadataRe = regexp.MustCompile(`^\[([A-Za-z]+):(.*)\]$`)
	timeTagRe  = regexp.MustCompile(`\[(\d{1,2}):(\d{2})(?:\.(\d{2,3}))?\]`)
	wordTagRe  = regexp.MustCompile(`<(\d{1,2}):(\d{2})(?:\.(\d{2,3}))?>`)
)

type timedEntry struct {
	timeMs int64
	text   string
}

// ParseStandard parses standard LRC text into a LyricsData: `[key:value]`
// lines become metadata, `[mm:ss.xx]text` lines become lines, lines with
// several leading timestamps are duplicated once per timestamp, and lines
// sharing a timestamp (within 1ms) are grouped into successive layers.
// Malformed lines are skipped silently; the parser never errors.
func ParseStandard(text string) model.LyricsData {
	metadata := make(map[string]string)
	var entries []timedEntry

	for _, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := metadataRe.FindStringSubmatch(line); m != nil {
			metadata[m[1]] = m[2]
			continue
		}

		matches := timeTagRe.FindAllStringSubmatchIndex(line, -1)
		if len(matches) == 0 {
			continue
		}

		var stripped strings.Builder
		last := 0
		times := make([]int64, 0, len(matches))
		for _, m := range matches {
			stripped.WriteString(line[last:m[0]])
			last = m[1]
			times = append(times, parseTimestamp(line, m))
		}
		stripped.WriteString(line[last:])
		lineText := strings.TrimSpace(stripped.String())

		for _, t := range times {
			entries = append(entries, timedEntry{timeMs: t, text: lineText})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].timeMs < entries[j].timeMs })

	lines := make([]model.LyricLine, 0, len(entries))
	var prevTime int64
	layer := 0
	for i, e := range entries {
		if i > 0 && abs64(e.timeMs-prevTime) <= 1 {
			layer++
		} else {
			layer = 0
		}
		lines = append(lines, model.LyricLine{StartTimeMs: e.timeMs, Text: e.text, Layer: layer})
		prevTime = e.timeMs
	}

	return model.LyricsData{Lines: lines, Metadata: metadata}
}

// ParseEnhanced runs ParseStandard, then decorates each produced line that
// carries `<mm:ss.xx>` word markers with per-syllable timing, relative to
// the line's own start time. Lines without markers are returned unchanged.
func ParseEnhanced(text string) model.LyricsData {
	data := ParseStandard(text)

	for i := range data.Lines {
		line := &data.Lines[i]
		matches := wordTagRe.FindAllStringSubmatchIndex(line.Text, -1)
		if len(matches) == 0 {
			continue
		}

		type marker struct {
			absMs int64
			end   int
		}
		markers := make([]marker, len(matches))
		for j, m := range matches {
			markers[j] = marker{absMs: parseTimestamp(line.Text, m), end: m[1]}
		}

		syllables := make([]model.Syllable, len(markers))
		var body strings.Builder
		for j, mk := range markers {
			segEnd := len(line.Text)
			if j+1 < len(markers) {
				segEnd = matches[j+1][0]
			}
			segText := line.Text[mk.end:segEnd]

			var duration int64
			if j+1 < len(markers) {
				duration = markers[j+1].absMs - mk.absMs
			}

			syllables[j] = model.Syllable{
				StartTimeMs: mk.absMs - line.StartTimeMs,
				DurationMs:  duration,
				Text:        segText,
			}
			body.WriteString(segText)
		}

		leading := line.Text[:matches[0][0]]
		if leading != "" {
			syllables[0].Text = leading + syllables[0].Text
		}
		line.Text = leading + body.String()
		line.Syllables = syllables
	}

	return data
}

// parseTimestamp decodes the mm/ss/fraction capture groups of a regexp
// match (shared shape between timeTagRe and wordTagRe) into milliseconds.
func parseTimestamp(s string, m []int) int64 {
	minutes := atoiSafe(s[m[2]:m[3]])
	seconds := atoiSafe(s[m[4]:m[5]])
	var frac string
	if m[6] != -1 {
		frac = s[m[6]:m[7]]
	}
	return int64(minutes*60*1000 + seconds*1000 + fracToMs(frac))
}

// fracToMs converts a 2- or 3-digit fractional-seconds capture (centiseconds
// or milliseconds) into milliseconds.
func fracToMs(frac string) int {
	if frac == "" {
		return 0
	}
	v := atoiSafe(frac)
	if len(frac) == 2 {
		return v * 10
	}
	return v
}

func atoiSafe(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
