// Package pipeline sequences the refresh run: aggregate sources, enrich
// sparse articles, classify, and hand the records to the store.
//
// The fetch, enrich, and classify stages are designed to never be fatal;
// a store failure is the only error the pipeline surfaces.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
	"github.com/sunnysinghal86/ai-news-tracker/internal/sources"
)

// Aggregator merges all configured sources into one batch.
type Aggregator interface {
	FetchAll(ctx context.Context) *sources.FetchResult
}

// Enricher fills in body text for sparse articles, best-effort.
type Enricher interface {
	EnrichAll(ctx context.Context, articles []models.Article) ([]models.Article, int)
}

// Classifier produces one classified record per article.
type Classifier interface {
	ClassifyAll(ctx context.Context, articles []models.Article) ([]models.AnalyzedArticle, int)
}

// RecordStore persists classified records. Its failure is the pipeline's
// only fatal error source.
type RecordStore interface {
	UpsertArticles(ctx context.Context, records []models.AnalyzedArticle) error
}

// Report summarizes one pipeline run for logging and alerting.
type Report struct {
	Fetched       int                    `json:"fetched"`
	Duplicates    int                    `json:"duplicates"`
	FailedSources []sources.FailedSource `json:"failed_sources,omitempty"`
	Enriched      int                    `json:"enriched"`
	Fallbacks     int                    `json:"fallbacks"`
	Stored        int                    `json:"stored"`
	Duration      time.Duration          `json:"-"`
}

// Pipeline wires the four stages together.
type Pipeline struct {
	aggregator Aggregator
	enricher   Enricher
	classifier Classifier
	store      RecordStore
}

// New creates a Pipeline over the given collaborators.
func New(aggregator Aggregator, enricher Enricher, classifier Classifier, store RecordStore) *Pipeline {
	return &Pipeline{
		aggregator: aggregator,
		enricher:   enricher,
		classifier: classifier,
		store:      store,
	}
}

// Run executes one full refresh. Individual source and item failures are
// absorbed by their stages; Run errors only when the store rejects the
// final batch, in which case nothing from this run was handed off.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	slog.Info("pipeline run starting")

	result := p.aggregator.FetchAll(ctx)

	articles, enriched := p.enricher.EnrichAll(ctx, result.Articles)

	records, fallbacks := p.classifier.ClassifyAll(ctx, articles)

	if len(records) > 0 {
		if err := p.store.UpsertArticles(ctx, records); err != nil {
			return nil, fmt.Errorf("storing records: %w", err)
		}
	}

	report := &Report{
		Fetched:       len(result.Articles),
		Duplicates:    result.Duplicates,
		FailedSources: result.Failed,
		Enriched:      enriched,
		Fallbacks:     fallbacks,
		Stored:        len(records),
		Duration:      time.Since(start),
	}

	slog.Info("pipeline run complete",
		"fetched", report.Fetched,
		"duplicates", report.Duplicates,
		"failed_sources", len(report.FailedSources),
		"enriched", report.Enriched,
		"fallbacks", report.Fallbacks,
		"stored", report.Stored,
		"duration", report.Duration.String(),
	)

	return report, nil
}
