package sources

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
	"golang.org/x/sync/errgroup"
)

// FailedSource records a source that could not be fetched this run.
type FailedSource struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// FetchResult is the merged output of one aggregator run.
type FetchResult struct {
	// Articles is deduplicated by identity and sorted by score descending,
	// then published-at descending.
	Articles []models.Article

	// Failed lists the sources that degraded to empty this run.
	Failed []FailedSource

	// Duplicates counts articles dropped because an earlier-completing
	// source already contributed the same identity.
	Duplicates int
}

// Aggregator runs all source adapters concurrently and merges their output.
type Aggregator struct {
	sources []Source
}

// NewAggregator creates an Aggregator over a fixed set of sources.
func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{sources: sources}
}

// FetchAll invokes every source concurrently with isolated failure
// domains: one source's error never cancels or corrupts the others.
// Duplicate identities are dropped first-seen-wins in source completion
// order; true duplicates carry identical URLs, so the winner's content
// does not materially differ. FetchAll never returns a hard error; when
// every source fails the result is simply empty.
func (a *Aggregator) FetchAll(ctx context.Context) *FetchResult {
	var (
		result FetchResult
		seen   = make(map[string]struct{})
		mu     sync.Mutex
	)

	var g errgroup.Group
	for _, src := range a.sources {
		src := src
		g.Go(func() error {
			articles, err := src.Fetch(ctx)
			if err != nil {
				slog.Warn("source fetch failed", "source", src.Name(), "error", err)

				mu.Lock()
				result.Failed = append(result.Failed, FailedSource{
					Source: src.Name(),
					Error:  err.Error(),
				})
				mu.Unlock()

				return nil // degrade the source, not the run
			}

			mu.Lock()
			for _, art := range articles {
				if _, dup := seen[art.ID]; dup {
					result.Duplicates++
					continue
				}
				seen[art.ID] = struct{}{}
				result.Articles = append(result.Articles, art)
			}
			mu.Unlock()

			slog.Info("fetched source", "source", src.Name(), "items", len(articles))
			return nil
		})
	}

	// Goroutines never return errors; Wait only synchronizes.
	_ = g.Wait()

	sort.SliceStable(result.Articles, func(i, j int) bool {
		if result.Articles[i].Score != result.Articles[j].Score {
			return result.Articles[i].Score > result.Articles[j].Score
		}
		return result.Articles[i].PublishedAt.After(result.Articles[j].PublishedAt)
	})

	slog.Info("aggregated sources",
		"total", len(result.Articles),
		"duplicates", result.Duplicates,
		"failed_sources", len(result.Failed),
	)

	return &result
}
