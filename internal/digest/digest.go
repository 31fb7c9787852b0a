// Package digest renders and delivers per-subscriber email digests of
// the highest-relevance classified articles.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
)

// ArticleSource provides the digest candidate set.
type ArticleSource interface {
	TopArticles(ctx context.Context, minRelevance, limit int) ([]models.AnalyzedArticle, error)
}

// SubscriberStore lists recipients and records delivery attempts.
type SubscriberStore interface {
	ActiveSubscribers(ctx context.Context) ([]models.Subscriber, error)
	LogDigest(ctx context.Context, recipient string, articleCount int, status string) error
}

// EmailSender delivers a rendered digest.
type EmailSender interface {
	Configured() bool
	Send(ctx context.Context, to, subject, html string) error
}

// Service orchestrates digest delivery to all active subscribers.
type Service struct {
	articles     ArticleSource
	subscribers  SubscriberStore
	sender       EmailSender
	appURL       string
	maxArticles  int
	minRelevance int
	now          func() time.Time
}

// NewService creates a digest Service. maxArticles and minRelevance
// bound the candidate set pulled from the store.
func NewService(articles ArticleSource, subscribers SubscriberStore, sender EmailSender, appURL string, maxArticles, minRelevance int) *Service {
	if maxArticles <= 0 {
		maxArticles = 20
	}
	return &Service{
		articles:     articles,
		subscribers:  subscribers,
		sender:       sender,
		appURL:       appURL,
		maxArticles:  maxArticles,
		minRelevance: minRelevance,
		now:          time.Now,
	}
}

// Result summarizes one digest run.
type Result struct {
	Candidates int `json:"candidates"`
	Recipients int `json:"recipients"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
}

// SendAll renders and delivers a digest to every active subscriber.
// Per-recipient failures are logged and counted but do not abort the
// run. SendAll errors only when it cannot load the candidate articles
// or the subscriber list, or when the sender is unconfigured.
func (s *Service) SendAll(ctx context.Context) (*Result, error) {
	if !s.sender.Configured() {
		return nil, fmt.Errorf("digest delivery not configured")
	}

	candidates, err := s.articles.TopArticles(ctx, s.minRelevance, s.maxArticles)
	if err != nil {
		return nil, fmt.Errorf("loading digest articles: %w", err)
	}
	if len(candidates) == 0 {
		slog.Info("digest skipped, no articles above threshold", "min_relevance", s.minRelevance)
		return &Result{}, nil
	}

	subs, err := s.subscribers.ActiveSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading subscribers: %w", err)
	}

	now := s.now()
	subject := fmt.Sprintf("AI News Digest - %s", now.Format("Jan 2, 2006"))

	result := &Result{Candidates: len(candidates), Recipients: len(subs)}
	for i := range subs {
		sub := &subs[i]

		selected := FilterForSubscriber(candidates, sub)
		html, err := Render(selected, sub, s.appURL, now)
		if err != nil {
			slog.Error("digest render failed", "recipient", sub.Email, "error", err)
			result.Failed++
			continue
		}

		status := "sent"
		if err := s.sender.Send(ctx, sub.Email, subject, html); err != nil {
			slog.Error("digest delivery failed", "recipient", sub.Email, "error", err)
			status = "failed"
			result.Failed++
		} else {
			result.Sent++
		}

		if err := s.subscribers.LogDigest(ctx, sub.Email, len(selected), status); err != nil {
			slog.Warn("recording digest log failed", "recipient", sub.Email, "error", err)
		}
	}

	slog.Info("digest run complete",
		"candidates", result.Candidates,
		"recipients", result.Recipients,
		"sent", result.Sent,
		"failed", result.Failed,
	)
	return result, nil
}
