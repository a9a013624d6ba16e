// Command lyricsync drives the lyric resolution pipeline end to end for a
// single track: resolve queries, search providers, score and pick a
// candidate, then print it synchronized against a playback position. The
// position can come from flags for a one-shot lookup, or from a live
// Spotify "currently playing" poll when -spotify-source is set.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/skufu/lyricsync/internal/aggregator"
	"github.com/skufu/lyricsync/internal/cache"
	"github.com/skufu/lyricsync/internal/config"
	"github.com/skufu/lyricsync/internal/model"
	"github.com/skufu/lyricsync/internal/persistence"
	"github.com/skufu/lyricsync/internal/providers"
	"github.com/skufu/lyricsync/internal/resolver"
	"github.com/skufu/lyricsync/internal/selection"
	"github.com/skufu/lyricsync/internal/spotifysource"
	syncpkg "github.com/skufu/lyricsync/internal/sync"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug("no .env file loaded")
	}

	title := flag.String("title", "", "track title")
	artist := flag.String("artist", "", "primary artist")
	album := flag.String("album", "", "album name")
	durationMs := flag.Int64("duration-ms", 0, "track duration in milliseconds")
	isrc := flag.String("isrc", "", "ISRC code, if known")
	lrcFile := flag.String("lrc-file", "", "path to a local LRC file to use directly")
	positionMs := flag.Int64("position-ms", 0, "playback position in milliseconds to display")
	spotifySource := flag.Bool("spotify-source", false, "drive the pipeline from the currently-playing Spotify track instead of -title/-artist/-position-ms")
	flag.Parse()

	cfgSvc, err := config.New()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	cfg := cfgSvc.Get()

	boltStore, err := persistence.OpenBoltStore(cfg.PersistenceDBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open persistence store")
	}
	defer boltStore.Close()
	store := cache.NewLRUStore(boltStore, 200, 24*time.Hour)

	res := resolver.New(resolver.NewMusicBrainzRegistry())
	agg := aggregator.New(res, []providers.Provider{
		providers.NewNeteaseProvider(cfg.Providers.NeteaseBaseURL),
		providers.NewQQMusicProvider(cfg.Providers.QQMusicBaseURL),
		providers.NewLRCLibProvider(),
	})
	controller := selection.New(store, agg)

	if *spotifySource {
		runSpotifySource(cfgSvc, controller)
		return
	}

	if *title == "" {
		fmt.Fprintln(os.Stderr, "usage: lyricsync -title <title> -artist <artist> [options]")
		os.Exit(2)
	}

	song := model.SongInformation{
		Title:      *title,
		Artists:    splitArtists(*artist),
		Album:      *album,
		DurationMs: *durationMs,
		ISRC:       *isrc,
	}

	if *lrcFile != "" {
		content, err := os.ReadFile(*lrcFile)
		if err != nil {
			log.WithError(err).Fatal("failed to read local LRC file")
		}
		song.LocalLRCContent = string(content)
	}

	controller.Subscribe(func(data model.LyricsData) {
		printLine(data, *positionMs)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !controller.Load(ctx, song, selection.LoadOptions{Limit: cfg.SearchLimit}) {
		log.Warn("no lyrics found for this track")
		os.Exit(1)
	}
}

// runSpotifySource authenticates against Spotify if needed, then polls the
// user's currently-playing track, resolving and printing its synchronized
// lyric line on every poll until interrupted.
func runSpotifySource(cfgSvc *config.Service, controller *selection.Controller) {
	authSvc, err := spotifysource.NewAuthService(cfgSvc)
	if err != nil {
		log.WithError(err).Fatal("spotify source requires spotify_client_id/spotify_client_secret in config")
	}

	if !authSvc.IsAuthenticated() {
		if err := authSvc.StartOAuthFlow(); err != nil {
			log.WithError(err).Fatal("failed to start spotify oauth flow")
		}
		fmt.Println("waiting for spotify authentication to complete in your browser...")
		for !authSvc.IsAuthenticated() {
			time.Sleep(time.Second)
		}
	}

	cfg := cfgSvc.Get()
	poller := spotifysource.NewPoller(authSvc, func(song model.SongInformation, progressMs int64, isPlaying bool) {
		if !isPlaying {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if !controller.Load(ctx, song, selection.LoadOptions{Limit: cfg.SearchLimit}) {
			log.WithField("title", song.Title).Warn("no lyrics found for currently playing track")
			return
		}

		data, ok := controller.GetCurrentLyrics()
		if !ok {
			return
		}
		printLine(data, progressMs)
	})

	poller.Start()
	defer poller.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}

func printLine(data model.LyricsData, positionMs int64) {
	idx := syncpkg.FindLineIndex(data, positionMs)
	if idx < 0 {
		fmt.Println("(before first line)")
		return
	}

	line := data.Lines[idx]
	var next *model.LyricLine
	if idx+1 < len(data.Lines) {
		next = &data.Lines[idx+1]
	}
	progress := syncpkg.LineProgress(line, next, positionMs)

	fmt.Printf("[%s] %s (%.0f%%)\n", data.Metadata["source"], line.Text, progress*100)
}

func splitArtists(artist string) []string {
	if artist == "" {
		return nil
	}
	parts := strings.Split(artist, ",")
	artists := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			artists = append(artists, p)
		}
	}
	return artists
}
