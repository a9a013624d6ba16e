// Package aggregator implements the concurrent provider fan-out (C8):
// resolving queries, searching every registered provider in parallel, and
// merging their scored results into one globally sorted sequence.
package aggregator

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/skufu/lyricsync/internal/model"
	"github.com/skufu/lyricsync/internal/providers"
	"github.com/skufu/lyricsync/internal/resolver"
	"github.com/skufu/lyricsync/internal/scoring"
)

// Resolver is the subset of resolver.Resolver the aggregator needs:
// expanding a song into prioritized title/artist queries.
type Resolver interface {
	ResolveQueries(ctx context.Context, song model.SongInformation) []resolver.Query
}

// Aggregator fans a search out across every registered provider.
type Aggregator struct {
	resolver  Resolver
	providers []providers.Provider
}

// New builds an Aggregator over the given resolver and provider set.
func New(resolver Resolver, providerList []providers.Provider) *Aggregator {
	return &Aggregator{resolver: resolver, providers: providerList}
}

// OnPartial is invoked once per provider as its batch completes, already
// scored and sorted descending. Completion order reflects provider
// completion order, not input order.
type OnPartial = func(batch []model.LyricCandidate)

// Search resolves song's queries, fans out to every provider concurrently,
// and returns the globally sorted (score descending, stable) result.
func (a *Aggregator) Search(ctx context.Context, song model.SongInformation, limit int, onPartial OnPartial) []model.LyricCandidate {
	queries := a.resolver.ResolveQueries(ctx, song)
	song.SearchAliases = aliasesFrom(queries)

	batches := make([][]model.LyricCandidate, len(a.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range a.providers {
		i, p := i, p
		g.Go(func() error {
			batch := p.Search(gctx, song, limit)
			scored := make([]model.LyricCandidate, len(batch))
			for j, c := range batch {
				c.Score = scoring.Score(song, c)
				scored[j] = c
			}
			sort.SliceStable(scored, func(x, y int) bool { return scored[x].Score > scored[y].Score })

			batches[i] = scored
			if onPartial != nil {
				onPartial(scored)
			}
			return nil
		})
	}
	// Provider errors never escape Provider.Search itself (they downgrade
	// to empty batches), so the errgroup is only used for concurrency, not
	// error propagation.
	_ = g.Wait()

	var all []model.LyricCandidate
	for _, batch := range batches {
		all = append(all, batch...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	return all
}

func aliasesFrom(queries []resolver.Query) model.SearchAliases {
	if len(queries) <= 1 {
		return model.SearchAliases{}
	}
	aliases := model.SearchAliases{}
	for _, q := range queries[1:] {
		aliases.Titles = append(aliases.Titles, q.Title)
		aliases.Artists = append(aliases.Artists, q.Artist)
	}
	return aliases
}
