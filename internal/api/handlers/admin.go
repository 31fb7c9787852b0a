package handlers

import (
	"context"
	"net/http"

	"github.com/sunnysinghal86/ai-news-tracker/internal/config"
	"github.com/sunnysinghal86/ai-news-tracker/internal/digest"
	"github.com/sunnysinghal86/ai-news-tracker/internal/pipeline"
)

// Refresher runs one ingestion pipeline pass.
type Refresher interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// DigestSender delivers the digest to all active subscribers.
type DigestSender interface {
	SendAll(ctx context.Context) (*digest.Result, error)
}

// Refresh triggers a pipeline run and returns its report.
func Refresh(p Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := p.Run(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "refresh failed: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// SendDigest triggers digest delivery to all active subscribers.
func SendDigest(d DigestSender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := d.SendAll(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "digest failed: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// GetConfig returns the non-secret runtime configuration.
func GetConfig(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"keywords":                 cfg.Sources.Keywords,
			"medium_feeds":             cfg.Sources.MediumFeeds,
			"max_per_source":           cfg.Sources.MaxPerSource,
			"refresh_interval_minutes": cfg.Pipeline.RefreshIntervalMinutes,
			"digest_send_time_utc":     cfg.Digest.SendTimeUTC,
			"ai_configured":            cfg.AI.APIKey != "",
			"newsapi_configured":       cfg.Sources.NewsAPIKey != "",
			"email_configured":         cfg.Digest.ResendAPIKey != "",
		})
	}
}

// Health reports service liveness.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
