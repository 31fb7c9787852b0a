package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
)

const defaultRSS2JSONURL = "https://api.rss2json.com/v1/api.json"

// Medium fetches articles from a set of Medium tag feeds through the
// rss2json aggregator proxy, which converts RSS to JSON without
// authentication. Individual feed failures degrade that feed only.
type Medium struct {
	client   *http.Client
	matcher  *Matcher
	proxyURL string
	feeds    []string
	perFeed  int
}

// NewMedium creates the Medium adapter over the configured tag feeds.
func NewMedium(client *http.Client, matcher *Matcher, feeds []string, perFeed int) *Medium {
	return &Medium{
		client:   client,
		matcher:  matcher,
		proxyURL: defaultRSS2JSONURL,
		feeds:    feeds,
		perFeed:  perFeed,
	}
}

// Name implements Source.
func (m *Medium) Name() string { return "Medium" }

// mediumItem is one item in the rss2json proxy response.
type mediumItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	PubDate     string `json:"pubDate"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// Fetch implements Source. Feeds are fetched sequentially; a failing feed
// is logged and skipped so the remaining feeds still contribute.
func (m *Medium) Fetch(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	for _, feedURL := range m.feeds {
		items, err := m.fetchFeed(ctx, feedURL)
		if err != nil {
			slog.Warn("medium feed failed", "feed", feedURL, "error", err)
			continue
		}
		articles = append(articles, items...)
	}
	return articles, nil
}

func (m *Medium) fetchFeed(ctx context.Context, feedURL string) ([]models.Article, error) {
	params := url.Values{}
	params.Set("rss_url", feedURL)
	params.Set("count", fmt.Sprint(m.perFeed))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.proxyURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying rss2json: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss2json returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Items []mediumItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding rss2json response: %w", err)
	}

	var articles []models.Article
	for _, item := range payload.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}
		if !m.matcher.Match(item.Title, item.Description) {
			continue
		}

		var published time.Time
		if t, err := time.Parse("2006-01-02 15:04:05", item.PubDate); err == nil {
			published = t.UTC()
		}

		content := item.Description
		if len(content) > 500 {
			content = content[:500]
		}

		articles = append(articles, models.Article{
			ID:          ItemID(item.Link),
			Title:       item.Title,
			URL:         item.Link,
			Source:      m.Name(),
			PublishedAt: timeOrNow(published),
			Content:     content,
			Author:      item.Author,
			Tags:        []string{"medium"},
		})
	}

	return articles, nil
}
