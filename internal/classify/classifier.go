// Package classify turns intermediate articles into classified records via
// structured-extraction calls to the Anthropic Messages API.
//
// The external model is treated as a semi-trusted oracle: every response
// is decoded into a strict schema at the boundary and anything malformed
// degrades to a deterministic default record. Classification never fails
// a batch.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
	"golang.org/x/sync/errgroup"
)

const defaultAPIURL = "https://api.anthropic.com/v1/messages"

// Config holds the classifier settings.
type Config struct {
	// APIKey is the Anthropic bearer credential. Empty short-circuits the
	// whole batch to default records without any network call.
	APIKey string

	// Model is the model identifier sent with every request.
	Model string

	// MaxConcurrent caps in-flight classification calls per batch.
	MaxConcurrent int

	// MaxTokens bounds the model's output per call.
	MaxTokens int

	// BaseURL overrides the Messages API endpoint, for tests.
	BaseURL string
}

// Classifier issues bounded-concurrency structured-extraction calls.
type Classifier struct {
	cfg    Config
	client *http.Client
}

// New creates a Classifier with a 30-second per-call HTTP client.
func New(cfg Config) *Classifier {
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5"
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 5
	}
	if cfg.MaxTokens < 1 {
		cfg.MaxTokens = 600
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAPIURL
	}
	return &Classifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// analysisResponse is the JSON shape the model is asked to return. It is
// validated before any field reaches a record.
type analysisResponse struct {
	Summary              string              `json:"summary"`
	Category             string              `json:"category"`
	Tags                 []string            `json:"tags"`
	RelevanceScore       int                 `json:"relevance_score"`
	IsProductOrTool      bool                `json:"is_product_or_tool"`
	ProductName          string              `json:"product_name"`
	Competitors          []models.Competitor `json:"competitors"`
	CompetitiveAdvantage string              `json:"competitive_advantage"`
}

// ClassifyAll classifies a batch under the concurrency cap. The output
// index-corresponds to the input; every article yields exactly one record.
// The returned count is the number of records that fell back to defaults.
func (c *Classifier) ClassifyAll(ctx context.Context, articles []models.Article) ([]models.AnalyzedArticle, int) {
	now := time.Now().UTC()
	records := make([]models.AnalyzedArticle, len(articles))

	if c.cfg.APIKey == "" {
		slog.Warn("no API key configured, emitting default records", "batch", len(articles))
		for i, art := range articles {
			records[i] = defaultRecord(art, now)
		}
		return records, len(articles)
	}

	degraded := make([]bool, len(articles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrent)

	for i := range articles {
		i := i
		g.Go(func() error {
			record, ok := c.classifyOne(ctx, articles[i], now)
			records[i] = record
			degraded[i] = !ok
			return nil
		})
	}

	// Workers degrade instead of erroring; Wait only synchronizes.
	_ = g.Wait()

	var fallbacks int
	for _, d := range degraded {
		if d {
			fallbacks++
		}
	}

	slog.Info("classified articles", "batch", len(articles), "fallbacks", fallbacks)
	return records, fallbacks
}

// classifyOne classifies a single article. ok is false when the record is
// a default fallback rather than a model result.
func (c *Classifier) classifyOne(ctx context.Context, article models.Article, now time.Time) (models.AnalyzedArticle, bool) {
	system, user := AnalysisPrompt(article)

	text, err := c.callAPI(ctx, system, user)
	if err != nil {
		slog.Warn("classification call failed", "id", article.ID, "title", article.Title, "error", err)
		return defaultRecord(article, now), false
	}

	var analysis analysisResponse
	if err := json.Unmarshal([]byte(extractJSON(text)), &analysis); err != nil {
		slog.Warn("classification response is not JSON", "id", article.ID, "error", err)
		return defaultRecord(article, now), false
	}

	if err := validateAnalysis(&analysis); err != nil {
		slog.Warn("classification response violates schema", "id", article.ID, "error", err)
		return defaultRecord(article, now), false
	}

	record := models.AnalyzedArticle{
		Article:        article,
		Summary:        analysis.Summary,
		Category:       analysis.Category,
		RelevanceScore: analysis.RelevanceScore,
		FetchedAt:      now,
	}
	if len(analysis.Tags) > 0 {
		record.Tags = analysis.Tags
	}
	if analysis.IsProductOrTool {
		record.IsProductOrTool = true
		record.ProductName = analysis.ProductName
		record.Competitors = analysis.Competitors
		record.CompetitiveAdvantage = analysis.CompetitiveAdvantage
	}
	return record, true
}

// validateAnalysis enforces the response schema: non-empty summary, a
// category from the fixed label set, and an in-range relevance score.
func validateAnalysis(a *analysisResponse) error {
	if a.Summary == "" {
		return fmt.Errorf("missing summary")
	}
	if !models.ValidCategory(a.Category) {
		return fmt.Errorf("unknown category %q", a.Category)
	}
	if a.RelevanceScore < 1 || a.RelevanceScore > 10 {
		return fmt.Errorf("relevance_score %d out of range", a.RelevanceScore)
	}
	return nil
}

// defaultRecord is the deterministic fallback used whenever the model's
// output cannot be trusted. All AI fields are populated so downstream
// consumers can always read them.
func defaultRecord(article models.Article, now time.Time) models.AnalyzedArticle {
	summary := article.Content
	if len(summary) > 300 {
		summary = summary[:300]
	}
	if len(summary) <= 30 {
		summary = fmt.Sprintf("From %s. Open the headline to read the full article.", article.Source)
	}

	return models.AnalyzedArticle{
		Article:        article,
		Summary:        summary,
		Category:       models.DefaultCategory,
		RelevanceScore: models.DefaultRelevance,
		FetchedAt:      now,
	}
}

// anthropicRequest is the request body for the Anthropic Messages API.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

// anthropicMessage is a single message in the Anthropic request.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse is the response body from the Anthropic Messages API.
type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// callAPI makes one request to the Anthropic Messages API and returns the
// text content from the first content block.
func (c *Classifier) callAPI(ctx context.Context, system, user string) (string, error) {
	reqBody := anthropicRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    system,
		Messages: []anthropicMessage{
			{Role: "user", Content: user},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("content-type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("parsing response (status %d): %w", resp.StatusCode, err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, apiResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response: no content blocks returned")
	}

	return apiResp.Content[0].Text, nil
}
