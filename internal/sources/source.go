// Package sources fetches candidate articles from the configured external
// providers and merges them into one deduplicated, ordered batch.
//
// Each adapter owns its provider's transport details (REST query APIs,
// Atom feeds, a feed aggregator proxy) behind the common Source interface.
// Adapters fail soft: a provider outage degrades that source to an empty
// result set and never aborts the batch.
package sources

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
)

const httpTimeout = 15 * time.Second

// Source is one external article provider.
type Source interface {
	// Name identifies the source in logs and failure reports.
	Name() string

	// Fetch returns zero or more normalized articles from the provider.
	// A returned error marks the whole source as failed for this run.
	Fetch(ctx context.Context) ([]models.Article, error)
}

// ItemID derives the stable article identity from its URL: the SHA-256
// hex digest truncated to 12 characters. Identical URLs always map to the
// same identity, including the empty URL.
func ItemID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", sum)[:12]
}

// Matcher is the keyword relevance predicate shared by source adapters.
// The vocabulary comes from configuration; matching is case-insensitive
// substring containment over title plus body text.
type Matcher struct {
	keywords []string
}

// NewMatcher builds a Matcher from the configured vocabulary.
func NewMatcher(keywords []string) *Matcher {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Matcher{keywords: lowered}
}

// Match reports whether the title or content mentions any vocabulary term.
func (m *Matcher) Match(title, content string) bool {
	text := strings.ToLower(title + " " + content)
	for _, kw := range m.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// NewHTTPClient returns the HTTP client shared by source adapters and the
// enricher: bounded timeout, redirect-following, custom User-Agent on
// every request.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = httpTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{
			base: http.DefaultTransport,
		},
	}
}

// userAgentTransport wraps an http.RoundTripper to inject a custom
// User-Agent header on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; AINewsTracker/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.9,*/*;q=0.8")
	return t.base.RoundTrip(req)
}

// timeOrNow returns t when non-zero, otherwise the current time. Sources
// use it so articles with unparseable publication dates still sort.
func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
