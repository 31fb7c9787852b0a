package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
)

const defaultAlgoliaURL = "https://hn.algolia.com/api/v1/search"

// HackerNews fetches top AI/ML stories from the HN Algolia search API.
type HackerNews struct {
	client  *http.Client
	matcher *Matcher
	baseURL string
	query   string
	hits    int
}

// NewHackerNews creates the Hacker News adapter. hits bounds the number of
// stories requested per run.
func NewHackerNews(client *http.Client, matcher *Matcher, hits int) *HackerNews {
	return &HackerNews{
		client:  client,
		matcher: matcher,
		baseURL: defaultAlgoliaURL,
		query:   "AI machine learning LLM platform engineering",
		hits:    hits,
	}
}

// Name implements Source.
func (h *HackerNews) Name() string { return "Hacker News" }

// algoliaHit is one story in the Algolia search response.
type algoliaHit struct {
	ObjectID  string `json:"objectID"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	StoryText string `json:"story_text"`
	Author    string `json:"author"`
	Points    int    `json:"points"`
	CreatedAt string `json:"created_at"`
}

// Fetch implements Source. It queries the Algolia search API for recent
// stories above a minimal points threshold and keeps the relevant ones.
func (h *HackerNews) Fetch(ctx context.Context) ([]models.Article, error) {
	params := url.Values{}
	params.Set("query", h.query)
	params.Set("tags", "story")
	params.Set("numericFilters", "points>10")
	params.Set("hitsPerPage", strconv.Itoa(h.hits))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying algolia: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("algolia returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Hits []algoliaHit `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding algolia response: %w", err)
	}

	var articles []models.Article
	for _, hit := range payload.Hits {
		if !h.matcher.Match(hit.Title, hit.StoryText) {
			continue
		}

		// Ask-HN style stories have no external URL; link the item page.
		storyURL := hit.URL
		if storyURL == "" {
			storyURL = "https://news.ycombinator.com/item?id=" + hit.ObjectID
		}

		var published time.Time
		if t, err := time.Parse(time.RFC3339, hit.CreatedAt); err == nil {
			published = t
		}

		articles = append(articles, models.Article{
			ID:          ItemID(storyURL),
			Title:       hit.Title,
			URL:         storyURL,
			Source:      h.Name(),
			PublishedAt: timeOrNow(published),
			Content:     hit.StoryText,
			Author:      hit.Author,
			Tags:        []string{"hacker-news"},
			Score:       hit.Points,
		})
	}

	return articles, nil
}
