package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
)

const defaultNewsAPIURL = "https://newsapi.org/v2/everything"

// NewsAPI fetches AI coverage from the NewsAPI "everything" endpoint.
// The source is key-gated: without an API key it degrades to an empty
// result set without issuing any network call.
type NewsAPI struct {
	client  *http.Client
	matcher *Matcher
	baseURL string
	apiKey  string
	max     int
}

// NewNewsAPI creates the NewsAPI adapter.
func NewNewsAPI(client *http.Client, matcher *Matcher, apiKey string, max int) *NewsAPI {
	return &NewsAPI{
		client:  client,
		matcher: matcher,
		baseURL: defaultNewsAPIURL,
		apiKey:  apiKey,
		max:     max,
	}
}

// Name implements Source.
func (n *NewsAPI) Name() string { return "NewsAPI" }

// newsAPIArticle is one article in the NewsAPI response.
type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// Fetch implements Source.
func (n *NewsAPI) Fetch(ctx context.Context) ([]models.Article, error) {
	if n.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", `AI OR LLM OR "machine learning" OR "platform engineering" OR MLOps`)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", fmt.Sprint(n.max))
	params.Set("apiKey", n.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying newsapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Articles []newsAPIArticle `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding newsapi response: %w", err)
	}

	var articles []models.Article
	for _, item := range payload.Articles {
		if item.Title == "" || item.URL == "" {
			continue
		}
		if !n.matcher.Match(item.Title, item.Description) {
			continue
		}

		var published time.Time
		if t, err := time.Parse(time.RFC3339, item.PublishedAt); err == nil {
			published = t
		}

		sourceName := n.Name()
		if item.Source.Name != "" {
			sourceName = fmt.Sprintf("NewsAPI / %s", item.Source.Name)
		}

		articles = append(articles, models.Article{
			ID:          ItemID(item.URL),
			Title:       item.Title,
			URL:         item.URL,
			Source:      sourceName,
			PublishedAt: timeOrNow(published),
			Content:     item.Description,
			Author:      item.Author,
			Tags:        []string{"news"},
		})
	}

	return articles, nil
}
