package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sunnysinghal86/ai-news-tracker/internal/config"
	"github.com/sunnysinghal86/ai-news-tracker/internal/digest"
	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
	"github.com/sunnysinghal86/ai-news-tracker/internal/pipeline"
	"github.com/sunnysinghal86/ai-news-tracker/internal/storage"
)

type fakeRefresher struct {
	report *pipeline.Report
	err    error
	calls  int
}

func (f *fakeRefresher) Run(ctx context.Context) (*pipeline.Report, error) {
	f.calls++
	return f.report, f.err
}

type fakeDigest struct {
	result *digest.Result
	err    error
}

func (f *fakeDigest) SendAll(ctx context.Context) (*digest.Result, error) {
	return f.result, f.err
}

// testServer builds a router over an in-memory store and fakes.
func testServer(t *testing.T) (*httptest.Server, *storage.Store, *fakeRefresher) {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.RunMigrations(db); err != nil {
		t.Fatal(err)
	}
	store := storage.NewStore(db)

	refresher := &fakeRefresher{report: &pipeline.Report{Fetched: 3, Stored: 3}}
	router := NewRouter(Deps{
		Store:       store,
		Config:      &config.Config{},
		Pipeline:    refresher,
		Digest:      &fakeDigest{result: &digest.Result{Sent: 1}},
		SourceNames: []string{"Hacker News", "arXiv"},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store, refresher
}

func seedArticles(t *testing.T, store *storage.Store) {
	t.Helper()
	err := store.UpsertArticles(context.Background(), []models.AnalyzedArticle{
		{
			Article: models.Article{
				ID:          "id1aaaaaaaaa",
				Title:       "Inference server launch",
				URL:         "https://example.com/1",
				Source:      "Hacker News",
				PublishedAt: time.Now().UTC(),
			},
			Summary:        "A new inference server.",
			Category:       models.CategoryProductTool,
			RelevanceScore: 9,
			FetchedAt:      time.Now().UTC(),
		},
		{
			Article: models.Article{
				ID:          "id2bbbbbbbbb",
				Title:       "Scaling laws paper",
				URL:         "https://example.com/2",
				Source:      "arXiv",
				PublishedAt: time.Now().UTC(),
			},
			Summary:        "New scaling laws.",
			Category:       models.CategoryResearchPaper,
			RelevanceScore: 6,
			FetchedAt:      time.Now().UTC(),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return resp
}

func TestGetNews(t *testing.T) {
	srv, store, _ := testServer(t)
	seedArticles(t, store)

	var body struct {
		Articles []models.AnalyzedArticle `json:"articles"`
		Count    int                      `json:"count"`
	}
	resp := getJSON(t, srv.URL+"/api/news", &body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
	if body.Articles[0].RelevanceScore != 9 {
		t.Errorf("first relevance = %d, want highest first", body.Articles[0].RelevanceScore)
	}
}

func TestGetNewsFilters(t *testing.T) {
	srv, store, _ := testServer(t)
	seedArticles(t, store)

	var body struct {
		Count int `json:"count"`
	}
	getJSON(t, srv.URL+"/api/news?category="+url2("Research Paper"), &body)
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}

	resp := getJSON(t, srv.URL+"/api/news?category=Nonsense", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d for unknown category, want 400", resp.StatusCode)
	}
}

// url2 path-escapes a query value.
func url2(s string) string {
	return strings.ReplaceAll(s, " ", "%20")
}

func TestGetNewsEmptyStore(t *testing.T) {
	srv, _, _ := testServer(t)

	var body struct {
		Articles []models.AnalyzedArticle `json:"articles"`
	}
	resp := getJSON(t, srv.URL+"/api/news", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body.Articles == nil {
		t.Error("articles is null, want empty array")
	}
}

func TestGetCategoriesAndSources(t *testing.T) {
	srv, _, _ := testServer(t)

	var cats struct {
		Categories []string `json:"categories"`
		Default    string   `json:"default"`
	}
	getJSON(t, srv.URL+"/api/categories", &cats)
	if len(cats.Categories) != 6 {
		t.Errorf("got %d categories, want 6", len(cats.Categories))
	}
	if cats.Default != models.DefaultCategory {
		t.Errorf("default = %q", cats.Default)
	}

	var srcs struct {
		Sources []string `json:"sources"`
	}
	getJSON(t, srv.URL+"/api/sources", &srcs)
	if len(srcs.Sources) != 2 {
		t.Errorf("got %d sources, want 2", len(srcs.Sources))
	}
}

func TestSubscriberLifecycle(t *testing.T) {
	srv, _, _ := testServer(t)

	// Subscribe.
	resp, err := http.Post(srv.URL+"/api/subscribers", "application/json",
		strings.NewReader(`{"email": "dev@example.com", "name": "Dev", "min_relevance": 6}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("subscribe status = %d, want 201", resp.StatusCode)
	}

	// List.
	var list struct {
		Count int `json:"count"`
	}
	getJSON(t, srv.URL+"/api/subscribers", &list)
	if list.Count != 1 {
		t.Errorf("subscriber count = %d, want 1", list.Count)
	}

	// Unsubscribe.
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/subscribers/dev@example.com", nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("unsubscribe status = %d, want 200", delResp.StatusCode)
	}

	// Unsubscribing again is a 404.
	again, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Body.Close()
	if again.StatusCode != http.StatusNotFound {
		t.Errorf("second unsubscribe status = %d, want 404", again.StatusCode)
	}
}

func TestSubscribeValidation(t *testing.T) {
	srv, _, _ := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing email", body: `{"name": "Dev"}`},
		{name: "bad email", body: `{"email": "not-an-email"}`},
		{name: "bad category", body: `{"email": "dev@example.com", "categories": ["Gossip"]}`},
		{name: "relevance out of range", body: `{"email": "dev@example.com", "min_relevance": 99}`},
		{name: "not JSON", body: `email=dev@example.com`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/subscribers", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestRefreshEndpoint(t *testing.T) {
	srv, _, refresher := testServer(t)

	resp, err := http.Post(srv.URL+"/api/refresh", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if refresher.calls != 1 {
		t.Errorf("pipeline ran %d times, want 1", refresher.calls)
	}

	var report pipeline.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Fetched != 3 {
		t.Errorf("fetched = %d, want the pipeline report echoed back", report.Fetched)
	}
}

func TestDigestEndpointFailure(t *testing.T) {
	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.RunMigrations(db); err != nil {
		t.Fatal(err)
	}

	router := NewRouter(Deps{
		Store:    storage.NewStore(db),
		Config:   &config.Config{},
		Pipeline: &fakeRefresher{},
		Digest:   &fakeDigest{err: errors.New("digest delivery not configured")},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/api/digest", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv, _, _ := testServer(t)

	var body map[string]string
	resp := getJSON(t, srv.URL+"/health", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("status body = %q", body["status"])
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _, _ := testServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/news", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS allow-origin header")
	}
}
