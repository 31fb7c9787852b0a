// Package enrich fills in body text for sparse articles by fetching the
// article page and extracting its meta description. Enrichment is strictly
// best-effort: every failure leaves the article unchanged.
package enrich

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	// minContentLen is the informativeness threshold: articles already
	// carrying this much body text are not fetched.
	minContentLen = 80

	// minDescLen rejects boilerplate-short meta descriptions.
	minDescLen = 40

	// maxDescLen bounds the extracted snippet.
	maxDescLen = 500

	// maxBodyBytes bounds how much of a page is read.
	maxBodyBytes = 512 << 10
)

// Enricher performs bounded-concurrency best-effort page fetches.
type Enricher struct {
	client        *http.Client
	maxConcurrent int
	timeout       time.Duration
}

// New creates an Enricher using the given HTTP client. maxConcurrent caps
// simultaneous outbound fetches across a batch; timeout bounds each fetch.
func New(client *http.Client, maxConcurrent int, timeout time.Duration) *Enricher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if timeout == 0 {
		timeout = 8 * time.Second
	}
	return &Enricher{
		client:        client,
		maxConcurrent: maxConcurrent,
		timeout:       timeout,
	}
}

// EnrichAll enriches a batch in parallel under the concurrency cap.
// Output order matches input order. The returned count is the number of
// articles whose body text was filled in.
func (e *Enricher) EnrichAll(ctx context.Context, articles []models.Article) ([]models.Article, int) {
	out := make([]models.Article, len(articles))
	copy(out, articles)

	filled := make([]bool, len(articles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)

	for i := range out {
		i := i
		g.Go(func() error {
			desc, ok := e.enrichOne(ctx, out[i])
			if ok {
				out[i].Content = desc
				filled[i] = true
			}
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()

	var enriched int
	for _, ok := range filled {
		if ok {
			enriched++
		}
	}

	slog.Info("enriched articles", "batch", len(articles), "enriched", enriched)
	return out, enriched
}

// enrichOne fetches one article page and extracts a description snippet.
// It reports ok=false whenever the article should pass through unchanged.
func (e *Enricher) enrichOne(ctx context.Context, article models.Article) (string, bool) {
	if len(article.Content) > minContentLen {
		return "", false
	}
	if article.URL == "" || isDiscussionPage(article.URL) {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, article.URL, nil)
	if err != nil {
		return "", false
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "html") {
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", false
	}

	if desc, ok := metaDescription(body); ok {
		return desc, true
	}

	// No usable meta description; fall back to a readability excerpt.
	if desc, ok := excerpt(body, article.URL); ok {
		return desc, true
	}

	return "", false
}

// isDiscussionPage reports whether the URL points at a Hacker News item
// page, which carries comments rather than independent content.
func isDiscussionPage(rawURL string) bool {
	return strings.HasPrefix(rawURL, "https://news.ycombinator.com")
}

// metaDescription extracts the page's og:description, meta description, or
// twitter:description, in that order. goquery matches the attributes
// regardless of their order within the tag.
func metaDescription(body []byte) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", false
	}

	selectors := []string{
		`meta[property="og:description"]`,
		`meta[name="description"]`,
		`meta[name="twitter:description"]`,
	}
	for _, sel := range selectors {
		content, exists := doc.Find(sel).First().Attr("content")
		if !exists {
			continue
		}
		if desc, ok := usableSnippet(content); ok {
			return desc, true
		}
	}
	return "", false
}

// excerpt runs readability over the fetched page and returns its excerpt.
func excerpt(body []byte, pageURL string) (string, bool) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return "", false
	}
	return usableSnippet(article.Excerpt)
}

// usableSnippet trims and bounds a candidate description, rejecting
// snippets too short to inform the classifier.
func usableSnippet(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) > maxDescLen {
		s = s[:maxDescLen]
	}
	if len(s) <= minDescLen {
		return "", false
	}
	return s, true
}
