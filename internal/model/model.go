// Package model holds the shared data types that flow between the lyric
// resolution, scoring, parsing, and synchronization stages.
package model

// SearchAliases holds alternate titles/artists discovered by the query
// resolver (C6), attached to a SongInformation before it reaches providers
// and the scorer.
type SearchAliases struct {
	Titles  []string
	Artists []string
}

// SongInformation describes the track a caller wants lyrics for.
type SongInformation struct {
	Title           string
	Artists         []string
	Album           string
	DurationMs      int64
	SourceID        string
	PersistenceID   string
	ISRC            string
	EmbeddedLyrics  string
	LocalLRCContent string
	SearchAliases   SearchAliases
}

// PrimaryArtist returns the first artist, or "" if there are none.
func (s SongInformation) PrimaryArtist() string {
	if len(s.Artists) == 0 {
		return ""
	}
	return s.Artists[0]
}

// LyricCandidate is one scored result for one track from one provider.
type LyricCandidate struct {
	ID         string
	Source     string
	LyricText  string
	Title      string
	Artist     string
	Album      string
	DurationMs int64
	Score      int
}

// Syllable is one sung syllable within an enhanced-LRC line.
type Syllable struct {
	StartTimeMs int64 // relative to the owning line's StartTimeMs
	DurationMs  int64
	Text        string
}

// LyricLine is one timestamped line of lyrics.
type LyricLine struct {
	StartTimeMs int64
	Text        string
	Syllables   []Syllable
	Layer       int
}

// LyricsData is the fully parsed, structured representation of a lyric
// file: an ordered set of lines plus whatever metadata tags the file
// carried.
type LyricsData struct {
	Lines    []LyricLine
	Metadata map[string]string
}

// PersistenceRecord is what gets stored per persistence key: the
// candidates last seen for a track, and which one (if any) is selected.
type PersistenceRecord struct {
	Results    []LyricCandidate `json:"results"`
	SelectedID *string          `json:"selectedId"`
}
