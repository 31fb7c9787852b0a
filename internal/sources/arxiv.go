package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
)

const defaultArxivURL = "https://export.arxiv.org/api/query"

// Arxiv fetches the latest LLM and AI-agent papers from the arXiv Atom API.
type Arxiv struct {
	client  *http.Client
	baseURL string
	max     int
}

// NewArxiv creates the arXiv adapter. max bounds the number of papers
// requested per run.
func NewArxiv(client *http.Client, max int) *Arxiv {
	return &Arxiv{
		client:  client,
		baseURL: defaultArxivURL,
		max:     max,
	}
}

// Name implements Source.
func (a *Arxiv) Name() string { return "arXiv" }

// Fetch implements Source. arXiv speaks Atom, so the response is parsed
// with gofeed. The search query itself is the relevance filter; no
// keyword post-filtering is applied.
func (a *Arxiv) Fetch(ctx context.Context) ([]models.Article, error) {
	params := url.Values{}
	params.Set("search_query", "all:LLM OR all:large language model OR all:AI agent OR all:foundation model")
	params.Set("sortBy", "lastUpdatedDate")
	params.Set("sortOrder", "descending")
	params.Set("max_results", strconv.Itoa(a.max))

	fp := gofeed.NewParser()
	fp.Client = a.client

	feed, err := fp.ParseURLWithContext(a.baseURL+"?"+params.Encode(), ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing arxiv feed: %w", err)
	}

	var articles []models.Article
	for _, item := range feed.Items {
		// Atom entry IDs double as the canonical abstract-page URLs.
		link := item.Link
		if link == "" {
			link = item.GUID
		}
		if item.Title == "" || link == "" {
			continue
		}

		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}

		articles = append(articles, models.Article{
			ID:          ItemID(link),
			Title:       collapseWhitespace(item.Title),
			URL:         link,
			Source:      a.Name(),
			PublishedAt: timeOrNow(published),
			Content:     collapseWhitespace(item.Description),
			Author:      joinAuthors(item, 3),
			Tags:        []string{"research", "arxiv"},
		})
	}

	return articles, nil
}

// joinAuthors returns the first max author names joined with commas.
func joinAuthors(item *gofeed.Item, max int) string {
	var names []string
	for _, a := range item.Authors {
		if a == nil || a.Name == "" {
			continue
		}
		names = append(names, a.Name)
		if len(names) == max {
			break
		}
	}
	return strings.Join(names, ", ")
}

// collapseWhitespace flattens the newline-wrapped text arXiv puts in
// titles and abstracts into single-spaced prose.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
