package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
	"github.com/sunnysinghal86/ai-news-tracker/internal/sources"
)

type fakeAggregator struct {
	result *sources.FetchResult
}

func (f *fakeAggregator) FetchAll(ctx context.Context) *sources.FetchResult {
	return f.result
}

type passthroughEnricher struct{}

func (passthroughEnricher) EnrichAll(ctx context.Context, articles []models.Article) ([]models.Article, int) {
	return articles, 0
}

type defaultClassifier struct{}

func (defaultClassifier) ClassifyAll(ctx context.Context, articles []models.Article) ([]models.AnalyzedArticle, int) {
	records := make([]models.AnalyzedArticle, len(articles))
	for i, a := range articles {
		records[i] = models.AnalyzedArticle{
			Article:        a,
			Summary:        "summary of " + a.Title,
			Category:       models.DefaultCategory,
			RelevanceScore: models.DefaultRelevance,
			FetchedAt:      time.Now().UTC(),
		}
	}
	return records, len(articles)
}

type captureStore struct {
	records []models.AnalyzedArticle
	err     error
	calls   int
}

func (c *captureStore) UpsertArticles(ctx context.Context, records []models.AnalyzedArticle) error {
	c.calls++
	c.records = records
	return c.err
}

func fetchResult(urls ...string) *sources.FetchResult {
	var result sources.FetchResult
	for _, u := range urls {
		result.Articles = append(result.Articles, models.Article{
			ID:    sources.ItemID(u),
			Title: u,
			URL:   u,
		})
	}
	return &result
}

func TestRunStoresEveryRecord(t *testing.T) {
	store := &captureStore{}
	p := New(
		&fakeAggregator{result: fetchResult("https://x", "https://y", "https://z")},
		passthroughEnricher{},
		defaultClassifier{},
		store,
	)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Fetched != 3 {
		t.Errorf("fetched = %d, want 3", report.Fetched)
	}
	if report.Stored != 3 {
		t.Errorf("stored = %d, want 3", report.Stored)
	}
	if len(store.records) != 3 {
		t.Fatalf("store received %d records, want 3", len(store.records))
	}
	for _, r := range store.records {
		if r.Summary == "" || r.Category == "" {
			t.Errorf("record %q missing AI fields", r.ID)
		}
	}
}

func TestRunEmptyBatchSkipsStore(t *testing.T) {
	store := &captureStore{}
	p := New(&fakeAggregator{result: &sources.FetchResult{}}, passthroughEnricher{}, defaultClassifier{}, store)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Stored != 0 {
		t.Errorf("stored = %d, want 0", report.Stored)
	}
	if store.calls != 0 {
		t.Errorf("store was called %d times for an empty batch, want 0", store.calls)
	}
}

func TestRunStoreFailureIsFatal(t *testing.T) {
	store := &captureStore{err: errors.New("disk full")}
	p := New(&fakeAggregator{result: fetchResult("https://x")}, passthroughEnricher{}, defaultClassifier{}, store)

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("Run returned nil error when the store failed")
	}
}

// stubSource feeds the real aggregator canned articles.
type stubSource struct {
	name     string
	articles []models.Article
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context) ([]models.Article, error) {
	return s.articles, nil
}

func stubArticle(url string) models.Article {
	return models.Article{ID: sources.ItemID(url), Title: url, URL: url}
}

func TestRunEndToEndDeduplicates(t *testing.T) {
	// Source A yields {X, Y}, source B yields {Y, Z}; the stored batch
	// must be exactly {X, Y, Z} with Y appearing once.
	agg := sources.NewAggregator(
		&stubSource{name: "A", articles: []models.Article{
			stubArticle("https://example.com/x"),
			stubArticle("https://example.com/y"),
		}},
		&stubSource{name: "B", articles: []models.Article{
			stubArticle("https://example.com/y"),
			stubArticle("https://example.com/z"),
		}},
	)

	store := &captureStore{}
	p := New(agg, passthroughEnricher{}, defaultClassifier{}, store)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Fetched != 3 {
		t.Errorf("fetched = %d, want 3", report.Fetched)
	}
	if report.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", report.Duplicates)
	}

	ids := make(map[string]int)
	for _, r := range store.records {
		ids[r.ID]++
	}
	if len(ids) != 3 {
		t.Fatalf("stored %d distinct identities, want 3", len(ids))
	}
	if ids[sources.ItemID("https://example.com/y")] != 1 {
		t.Error("shared identity stored more than once")
	}
}

func TestRunReportCountsFallbacks(t *testing.T) {
	p := New(&fakeAggregator{result: fetchResult("https://x", "https://y")}, passthroughEnricher{}, defaultClassifier{}, &captureStore{})

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Fallbacks != 2 {
		t.Errorf("fallbacks = %d, want 2", report.Fallbacks)
	}
}
