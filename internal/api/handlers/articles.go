package handlers

import (
	"net/http"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
	"github.com/sunnysinghal86/ai-news-tracker/internal/storage"
)

const maxPageSize = 200

// GetNews returns stored classified articles, filtered and paged by
// query parameters: limit, offset, category, source, min_relevance, q.
func GetNews(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := storage.ListOptions{
			Limit:        queryInt(r, "limit", 50),
			Offset:       queryInt(r, "offset", 0),
			Category:     r.URL.Query().Get("category"),
			Source:       r.URL.Query().Get("source"),
			MinRelevance: queryInt(r, "min_relevance", 0),
			Search:       r.URL.Query().Get("q"),
		}
		if opts.Limit > maxPageSize {
			opts.Limit = maxPageSize
		}
		if opts.Offset < 0 {
			opts.Offset = 0
		}
		if opts.Category != "" && !models.ValidCategory(opts.Category) {
			writeError(w, http.StatusBadRequest, "unknown category: "+opts.Category)
			return
		}

		articles, err := store.ListArticles(r.Context(), opts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list articles")
			return
		}
		if articles == nil {
			articles = []models.AnalyzedArticle{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"articles": articles,
			"count":    len(articles),
		})
	}
}

// GetStats returns aggregate counts over the stored articles.
func GetStats(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.GetStats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to compute stats")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// GetCategories returns the fixed classification category set.
func GetCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"categories": models.Categories(),
			"default":    models.DefaultCategory,
		})
	}
}

// GetSources returns the names of the configured ingestion sources.
func GetSources(names []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"sources": names})
	}
}
