package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
	"github.com/sunnysinghal86/ai-news-tracker/internal/storage"
)

// ListSubscribers returns every active digest subscriber.
func ListSubscribers(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := store.ActiveSubscribers(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list subscribers")
			return
		}
		if subs == nil {
			subs = []models.Subscriber{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"subscribers": subs,
			"count":       len(subs),
		})
	}
}

type subscribeRequest struct {
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Categories   []string `json:"categories"`
	MinRelevance int      `json:"min_relevance"`
}

// CreateSubscriber registers a new digest subscriber. Posting an email
// that already exists reactivates it with the new preferences.
func CreateSubscriber(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		email := strings.TrimSpace(req.Email)
		if email == "" || !strings.Contains(email, "@") {
			writeError(w, http.StatusBadRequest, "a valid email is required")
			return
		}
		for _, c := range req.Categories {
			if !models.ValidCategory(c) {
				writeError(w, http.StatusBadRequest, "unknown category: "+c)
				return
			}
		}
		if req.MinRelevance < 0 || req.MinRelevance > 10 {
			writeError(w, http.StatusBadRequest, "min_relevance must be between 0 and 10")
			return
		}

		sub, err := store.CreateSubscriber(r.Context(), &models.Subscriber{
			Email:        email,
			Name:         strings.TrimSpace(req.Name),
			Categories:   req.Categories,
			MinRelevance: req.MinRelevance,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create subscriber")
			return
		}

		writeJSON(w, http.StatusCreated, sub)
	}
}

// DeleteSubscriber unsubscribes the email in the URL path.
func DeleteSubscriber(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		if email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}

		err := store.DeleteSubscriber(r.Context(), email)
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "subscriber not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete subscriber")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed", "email": email})
	}
}
