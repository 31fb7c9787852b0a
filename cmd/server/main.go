package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sunnysinghal86/ai-news-tracker/internal/api"
	"github.com/sunnysinghal86/ai-news-tracker/internal/classify"
	"github.com/sunnysinghal86/ai-news-tracker/internal/config"
	"github.com/sunnysinghal86/ai-news-tracker/internal/digest"
	"github.com/sunnysinghal86/ai-news-tracker/internal/enrich"
	"github.com/sunnysinghal86/ai-news-tracker/internal/models"
	"github.com/sunnysinghal86/ai-news-tracker/internal/pipeline"
	"github.com/sunnysinghal86/ai-news-tracker/internal/scheduler"
	"github.com/sunnysinghal86/ai-news-tracker/internal/sources"
	"github.com/sunnysinghal86/ai-news-tracker/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	dataDir := flag.String("data-dir", "./data", "path to data directory")
	flag.Parse()

	// Load .env if present; real environment variables win.
	_ = godotenv.Load()

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open database with WAL mode and pragmas.
	db, err := storage.OpenDatabase(filepath.Join(*dataDir, "news.db"))
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run schema migrations.
	if err := storage.RunMigrations(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	store := storage.NewStore(db)
	seedSubscribers(store)

	// Shared HTTP client for all outbound source fetches.
	client := sources.NewHTTPClient(15 * time.Second)
	matcher := sources.NewMatcher(cfg.Sources.Keywords)

	srcs := []sources.Source{
		sources.NewHackerNews(client, matcher, cfg.Sources.MaxPerSource),
		sources.NewArxiv(client, cfg.Sources.MaxPerSource),
		sources.NewNewsAPI(client, matcher, cfg.Sources.NewsAPIKey, cfg.Sources.MaxPerSource),
		sources.NewMedium(client, matcher, cfg.Sources.MediumFeeds, cfg.Sources.MaxPerSource),
	}
	aggregator := sources.NewAggregator(srcs...)

	enricher := enrich.New(client, cfg.Enrich.MaxConcurrent,
		time.Duration(cfg.Enrich.TimeoutSeconds)*time.Second)

	classifier := classify.New(classify.Config{
		APIKey:        cfg.AI.APIKey,
		Model:         cfg.AI.Model,
		MaxConcurrent: cfg.AI.MaxConcurrent,
		MaxTokens:     cfg.AI.MaxTokens,
	})

	pipe := pipeline.New(aggregator, enricher, classifier, store)

	sender := digest.NewSender(cfg.Digest.ResendAPIKey, cfg.Digest.FromEmail)
	digestSvc := digest.NewService(store, store, sender, cfg.Digest.AppURL,
		cfg.Digest.MaxArticles, cfg.Digest.MinRelevance)

	// Initial refresh in the background so the API is up immediately.
	go func() {
		if _, err := pipe.Run(context.Background()); err != nil {
			slog.Error("initial refresh failed", "error", err)
		}
	}()

	// Periodic refresh plus the daily digest.
	hour, minute := cfg.SendTime()
	var digestFn func(ctx context.Context)
	if sender.Configured() {
		digestFn = func(ctx context.Context) {
			if _, err := digestSvc.SendAll(ctx); err != nil {
				slog.Error("scheduled digest failed", "error", err)
			}
		}
	}
	sched := scheduler.New(
		func(ctx context.Context) {
			if _, err := pipe.Run(ctx); err != nil {
				slog.Error("scheduled refresh failed", "error", err)
			}
		},
		digestFn,
		time.Duration(cfg.Pipeline.RefreshIntervalMinutes)*time.Minute,
		hour, minute,
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Start(ctx)

	sourceNames := make([]string, 0, len(srcs))
	for _, s := range srcs {
		sourceNames = append(sourceNames, s.Name())
	}

	router := api.NewRouter(api.Deps{
		Store:       store,
		Config:      cfg,
		Pipeline:    pipe,
		Digest:      digestSvc,
		SourceNames: sourceNames,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("starting server", "addr", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// seedSubscribers registers subscribers listed in the SEED_SUBSCRIBERS
// environment variable, formatted "Name:email,Name:email". Intended for
// first-run bootstrap; existing emails are updated in place.
func seedSubscribers(store *storage.Store) {
	raw := os.Getenv("SEED_SUBSCRIBERS")
	if raw == "" {
		return
	}

	for _, entry := range strings.Split(raw, ",") {
		name, email, found := strings.Cut(strings.TrimSpace(entry), ":")
		if !found {
			email = name
			name = ""
		}
		if email == "" {
			continue
		}

		if _, err := store.CreateSubscriber(context.Background(), &models.Subscriber{
			Email: email,
			Name:  name,
		}); err != nil {
			slog.Warn("failed to seed subscriber", "email", email, "error", err)
			continue
		}
		slog.Info("seeded subscriber", "email", email)
	}
}
