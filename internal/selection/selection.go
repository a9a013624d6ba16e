// Package selection implements the selection controller (C10): the load
// pipeline that decides which lyric candidate to show for a track, and
// the consumer-facing read/select API over that decision.
package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/skufu/lyricsync/internal/lrc"
	"github.com/skufu/lyricsync/internal/model"
	"github.com/skufu/lyricsync/internal/persistence"
)

const (
	autoSelectThreshold = 45
	autoLockThreshold   = 70
	defaultSearchLimit  = 10
)

// Aggregator is the subset of aggregator.Aggregator the controller needs.
type Aggregator interface {
	Search(ctx context.Context, song model.SongInformation, limit int, onPartial func([]model.LyricCandidate)) []model.LyricCandidate
}

// LoadOptions configures a Load call.
type LoadOptions struct {
	Limit int
}

// Listener is notified with an immutable snapshot whenever the controller
// publishes a new current-lyrics state.
type Listener func(model.LyricsData)

// Controller resolves and serves the active lyrics for a track, following
// the priority pipeline: local file, embedded tags, persisted selection,
// search cache, then live aggregation with auto-promotion and locking.
type Controller struct {
	store      persistence.Store
	aggregator Aggregator

	mu            sync.Mutex
	token         uint64
	activeKey     string
	lastResults   []model.LyricCandidate
	selectedID    string
	locked        bool
	currentLyrics *model.LyricsData
	listeners     []Listener
}

// New builds a Controller over the given persistence store and aggregator.
func New(store persistence.Store, agg Aggregator) *Controller {
	return &Controller{store: store, aggregator: agg}
}

// Subscribe registers listener for future publish events.
func (c *Controller) Subscribe(listener Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// GetCurrentLyrics returns the last published lyrics, if any.
func (c *Controller) GetCurrentLyrics() (model.LyricsData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentLyrics == nil {
		return model.LyricsData{}, false
	}
	return *c.currentLyrics, true
}

// GetLastSearchResults returns the most recent candidate list the
// controller considered, regardless of which one is currently selected.
func (c *Controller) GetLastSearchResults() []model.LyricCandidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.LyricCandidate, len(c.lastResults))
	copy(out, c.lastResults)
	return out
}

// GetLyricFromCache returns the top entry of a previously cached search
// for song, without mutating controller state.
func (c *Controller) GetLyricFromCache(song model.SongInformation) (model.LyricsData, bool) {
	record, ok := c.readRecord(buildSearchKey(song, defaultSearchLimit))
	if !ok || len(record.Results) == 0 {
		return model.LyricsData{}, false
	}
	return buildLyricsData(record.Results[0]), true
}

// Load resolves and publishes lyrics for song per the load pipeline.
func (c *Controller) Load(ctx context.Context, song model.SongInformation, options LoadOptions) bool {
	limit := options.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	persistenceKey := song.PersistenceID
	if persistenceKey == "" {
		persistenceKey = song.Title + "|" + strings.Join(song.Artists, ",")
	}
	searchKey := buildSearchKey(song, limit)

	c.mu.Lock()
	c.token++
	token := c.token
	c.activeKey = persistenceKey
	c.locked = false
	c.lastResults = nil
	c.selectedID = ""
	c.mu.Unlock()

	hasPersistedSelection := c.hasPersistedSelection(persistenceKey)

	var local, embedded *model.LyricCandidate
	if song.LocalLRCContent != "" {
		cand := model.LyricCandidate{
			ID:        "local:" + persistenceKey,
			Source:    "Local File",
			LyricText: song.LocalLRCContent,
			Title:     song.Title,
			Artist:    song.PrimaryArtist(),
			Score:     101,
		}
		local = &cand
		if !hasPersistedSelection {
			return c.publishDirect(token, []model.LyricCandidate{cand}, cand)
		}
	}

	if song.EmbeddedLyrics != "" {
		cand := model.LyricCandidate{
			ID:        "embedded:" + persistenceKey,
			Source:    "Embedded (ID3)",
			LyricText: song.EmbeddedLyrics,
			Title:     song.Title,
			Artist:    song.PrimaryArtist(),
			Score:     100,
		}
		embedded = &cand
		if !hasPersistedSelection {
			return c.publishDirect(token, []model.LyricCandidate{cand}, cand)
		}
	}

	if record, ok := c.readRecord(persistenceKey); ok && record.SelectedID != nil {
		results := injectFront(record.Results, local, embedded)
		idx := indexOfID(results, *record.SelectedID)
		if idx == -1 {
			idx = 0
		}
		return c.publishDirect(token, results, results[idx])
	}

	if record, ok := c.readRecord(searchKey); ok && len(record.Results) > 0 {
		return c.publishDirect(token, record.Results, record.Results[0])
	}

	onPartial := func(batch []model.LyricCandidate) {
		c.applyPartial(token, batch)
	}
	_ = c.aggregator.Search(ctx, song, limit, onPartial)

	c.mu.Lock()
	if c.token != token {
		c.mu.Unlock()
		return false
	}
	results := injectFront(c.lastResults, local, embedded)
	c.lastResults = results
	selectedID := c.selectedID
	c.mu.Unlock()

	if len(results) == 0 {
		log.WithField("persistenceKey", persistenceKey).Warn("no lyric candidates found")
		return false
	}

	c.persistRecord(searchKey, model.PersistenceRecord{Results: results})

	// A candidate already auto-promoted (and possibly locked) during the
	// search stays selected; it was published when it was promoted.
	if idx := indexOfID(results, selectedID); selectedID != "" && idx != -1 {
		c.persistRecord(persistenceKey, model.PersistenceRecord{Results: results, SelectedID: &selectedID})
		return true
	}

	top := results[0]
	topID := top.ID
	c.persistRecord(persistenceKey, model.PersistenceRecord{Results: results, SelectedID: &topID})

	return c.publishDirect(token, results, top)
}

// applyPartial merges one provider's scored batch into lastResults and
// auto-promotes the new top candidate if the threshold/lock rules allow.
func (c *Controller) applyPartial(token uint64, batch []model.LyricCandidate) {
	c.mu.Lock()
	if c.token != token {
		c.mu.Unlock()
		return
	}
	c.lastResults = mergeByID(c.lastResults, batch)
	sort.SliceStable(c.lastResults, func(i, j int) bool { return c.lastResults[i].Score > c.lastResults[j].Score })

	if c.locked || len(c.lastResults) == 0 {
		c.mu.Unlock()
		return
	}

	top := c.lastResults[0]
	currentScore := -1
	if c.selectedID != "" {
		if cur := findByID(c.lastResults, c.selectedID); cur != nil {
			currentScore = cur.Score
		}
	}

	promote := top.Score > autoSelectThreshold && top.Score > currentScore
	if !promote {
		c.mu.Unlock()
		return
	}

	c.selectedID = top.ID
	if top.Score >= autoLockThreshold {
		c.locked = true
	}
	c.mu.Unlock()

	data := buildLyricsData(top)
	c.mu.Lock()
	if c.token == token {
		c.currentLyrics = &data
	}
	c.mu.Unlock()
	c.notify(data)
}

// Select publishes lastResults[index] as the current lyrics, optionally
// persisting the choice under the active key.
func (c *Controller) Select(index int, save bool) bool {
	c.mu.Lock()
	if index < 0 || index >= len(c.lastResults) {
		c.mu.Unlock()
		return false
	}
	candidate := c.lastResults[index]
	results := make([]model.LyricCandidate, len(c.lastResults))
	copy(results, c.lastResults)
	activeKey := c.activeKey
	c.selectedID = candidate.ID
	c.mu.Unlock()

	data := buildLyricsData(candidate)
	c.mu.Lock()
	c.currentLyrics = &data
	c.mu.Unlock()
	c.notify(data)

	if save && activeKey != "" && candidate.ID != "" {
		c.persistRecord(activeKey, model.PersistenceRecord{Results: results, SelectedID: &candidate.ID})
	}
	return true
}

// publishDirect sets lastResults/selectedID (if the token is still
// active) and publishes candidate's parsed lyrics to subscribers.
func (c *Controller) publishDirect(token uint64, results []model.LyricCandidate, candidate model.LyricCandidate) bool {
	c.mu.Lock()
	if c.token != token {
		c.mu.Unlock()
		return false
	}
	c.lastResults = results
	c.selectedID = candidate.ID
	c.mu.Unlock()

	data := buildLyricsData(candidate)
	c.mu.Lock()
	c.currentLyrics = &data
	c.mu.Unlock()
	c.notify(data)
	return true
}

func (c *Controller) notify(data model.LyricsData) {
	c.mu.Lock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		l(data)
	}
}

func (c *Controller) hasPersistedSelection(key string) bool {
	record, ok := c.readRecord(key)
	return ok && record.SelectedID != nil
}

func (c *Controller) readRecord(key string) (model.PersistenceRecord, bool) {
	raw, ok, err := c.store.Get(key)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("persistence read failed")
		return model.PersistenceRecord{}, false
	}
	if !ok {
		return model.PersistenceRecord{}, false
	}
	var record model.PersistenceRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		log.WithError(err).WithField("key", key).Warn("persistence decode failed")
		return model.PersistenceRecord{}, false
	}
	return record, true
}

func (c *Controller) persistRecord(key string, record model.PersistenceRecord) {
	raw, err := json.Marshal(record)
	if err != nil {
		log.WithError(err).Warn("persistence encode failed")
		return
	}
	if err := c.store.Put(key, string(raw)); err != nil {
		log.WithError(err).WithField("key", key).Warn("persistence write failed")
	}
}

// buildLyricsData parses candidate's lyric text (enhanced parser, which
// transparently falls back to standard-only lines) and stamps source,
// score, and title/artist metadata.
func buildLyricsData(candidate model.LyricCandidate) model.LyricsData {
	data := lrc.ParseEnhanced(candidate.LyricText)
	if data.Metadata == nil {
		data.Metadata = make(map[string]string)
	}
	data.Metadata["source"] = candidate.Source
	data.Metadata["score"] = strconv.Itoa(candidate.Score)
	if data.Metadata["ti"] == "" && candidate.Title != "" {
		data.Metadata["ti"] = candidate.Title
	}
	if data.Metadata["ar"] == "" && candidate.Artist != "" {
		data.Metadata["ar"] = candidate.Artist
	}
	return data
}

func buildSearchKey(song model.SongInformation, limit int) string {
	return fmt.Sprintf("SEARCH:%s|%s|LIMIT:%d", song.Title, song.PrimaryArtist(), limit)
}

func injectFront(results []model.LyricCandidate, local, embedded *model.LyricCandidate) []model.LyricCandidate {
	var prefix []model.LyricCandidate
	if local != nil && indexOfID(results, local.ID) == -1 {
		prefix = append(prefix, *local)
	}
	if embedded != nil && indexOfID(results, embedded.ID) == -1 {
		prefix = append(prefix, *embedded)
	}
	if len(prefix) == 0 {
		return results
	}
	return append(prefix, results...)
}

func indexOfID(results []model.LyricCandidate, id string) int {
	for i, r := range results {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func findByID(results []model.LyricCandidate, id string) *model.LyricCandidate {
	for i := range results {
		if results[i].ID == id {
			return &results[i]
		}
	}
	return nil
}

// mergeByID folds batch into existing, updating in place on id collision
// and appending otherwise.
func mergeByID(existing, batch []model.LyricCandidate) []model.LyricCandidate {
	index := make(map[string]int, len(existing))
	for i, c := range existing {
		index[c.ID] = i
	}
	for _, c := range batch {
		if i, ok := index[c.ID]; ok {
			existing[i] = c
			continue
		}
		existing = append(existing, c)
		index[c.ID] = len(existing) - 1
	}
	return existing
}
