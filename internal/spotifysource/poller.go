package spotifysource

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"

	"github.com/skufu/lyricsync/internal/model"
)

// OnTrack is invoked with the currently playing track, its progress, and
// whether it is playing, on every successful poll that finds a music track.
type OnTrack func(song model.SongInformation, progressMs int64, isPlaying bool)

// Poller periodically polls a user's currently-playing Spotify track,
// backing off on errors and slowing down when nothing music-like is
// playing.
type Poller struct {
	auth      *AuthService
	onTrack   OnTrack
	stopChan  chan struct{}
	isPolling bool

	baseInterval      time.Duration
	currentInterval   time.Duration
	maxInterval       time.Duration
	backoffFactor     float64
	lastTrackID       string
	consecutiveErrors int
}

// NewPoller builds a Poller that calls onTrack on every successful poll of
// a music track.
func NewPoller(auth *AuthService, onTrack OnTrack) *Poller {
	return &Poller{
		auth:            auth,
		onTrack:         onTrack,
		stopChan:        make(chan struct{}),
		baseInterval:    4 * time.Second,
		currentInterval: 4 * time.Second,
		backoffFactor:   1.5,
		maxInterval:     60 * time.Second,
	}
}

// Start begins polling in the background.
func (p *Poller) Start() {
	if p.isPolling {
		return
	}
	p.isPolling = true
	go p.pollLoop()
	log.Info("spotify polling started")
}

// Stop halts polling.
func (p *Poller) Stop() {
	if !p.isPolling {
		return
	}
	p.isPolling = false
	close(p.stopChan)
	log.Info("spotify polling stopped")
}

func (p *Poller) pollLoop() {
	ticker := time.NewTicker(p.currentInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.pollCurrentlyPlaying()
			ticker.Reset(p.currentInterval)
		}
	}
}

func (p *Poller) pollCurrentlyPlaying() {
	client := p.auth.GetClient()
	if client == nil {
		p.adjustInterval(false, true)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Jitter avoids every instance of this poller hammering the API on the
	// same tick boundary.
	time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)

	playerState, err := client.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		p.handleError(err)
		return
	}

	if playerState == nil || playerState.Item == nil {
		p.handleNoPlayback()
		return
	}
	if playerState.CurrentlyPlayingType != "track" {
		p.handleNonMusicContent()
		return
	}

	song := extractSongInformation(playerState)
	if song.SourceID != p.lastTrackID {
		log.WithFields(log.Fields{"artist": song.PrimaryArtist(), "title": song.Title}).Info("track changed")
		p.lastTrackID = song.SourceID
		p.resetInterval()
	}

	if p.onTrack != nil {
		p.onTrack(song, int64(playerState.Progress), playerState.Playing)
	}

	p.adjustInterval(playerState.Playing, false)
	p.consecutiveErrors = 0
}

func extractSongInformation(playerState *spotify.CurrentlyPlaying) model.SongInformation {
	track := playerState.Item

	var artists []string
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	var isrc string
	if v, ok := track.ExternalIDs["isrc"]; ok {
		isrc = v
	}

	return model.SongInformation{
		Title:      track.Name,
		Artists:    artists,
		Album:      track.Album.Name,
		DurationMs: int64(track.Duration),
		SourceID:   track.ID.String(),
		ISRC:       isrc,
	}
}

func (p *Poller) handleError(err error) {
	p.consecutiveErrors++

	if httpErr, ok := err.(*spotify.Error); ok && httpErr.Status == http.StatusTooManyRequests {
		p.handleRateLimit(httpErr)
		return
	}

	log.WithError(err).WithField("attempt", p.consecutiveErrors).Warn("spotify api error")
	if p.consecutiveErrors >= 3 {
		p.adjustInterval(false, true)
	}
}

func (p *Poller) handleRateLimit(err *spotify.Error) {
	retryAfter := 60
	if ra := err.Response.Header.Get("Retry-After"); ra != "" {
		if parsed, parseErr := strconv.Atoi(ra); parseErr == nil {
			retryAfter = parsed
		}
	}

	p.currentInterval = time.Duration(retryAfter+10) * time.Second
	if p.currentInterval > p.maxInterval {
		p.currentInterval = p.maxInterval
	}
	log.WithField("interval", p.currentInterval).Warn("backing off after spotify rate limit")
}

func (p *Poller) handleNoPlayback() {
	p.adjustInterval(false, true)
}

func (p *Poller) handleNonMusicContent() {
	p.adjustInterval(false, false)
}

func (p *Poller) adjustInterval(isPlaying, hasError bool) {
	switch {
	case hasError:
		p.currentInterval = time.Duration(float64(p.currentInterval) * p.backoffFactor)
		if p.currentInterval > p.maxInterval {
			p.currentInterval = p.maxInterval
		}
	case isPlaying:
		p.currentInterval = p.baseInterval
	default:
		p.currentInterval = p.baseInterval * 3
	}
}

func (p *Poller) resetInterval() {
	p.currentInterval = p.baseInterval
	p.consecutiveErrors = 0
}

// IsPolling reports whether the poller is currently active.
func (p *Poller) IsPolling() bool {
	return p.isPolling
}
