package config

import (
	"os"
	"path/filepath"
	"testing"
)

// loadFromContent writes content to a temp config file and loads it.
func loadFromContent(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return Load(path)
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file was not created: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.AI.Model != "claude-haiku-4-5" {
		t.Errorf("model = %q", cfg.AI.Model)
	}
	if len(cfg.Sources.Keywords) == 0 {
		t.Error("default keywords are empty")
	}
	if len(cfg.Sources.MediumFeeds) == 0 {
		t.Error("default medium feeds are empty")
	}
	if cfg.Digest.SendTimeUTC != "08:00" {
		t.Errorf("send_time_utc = %q", cfg.Digest.SendTimeUTC)
	}
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	cfg, err := loadFromContent(t, `
[server]
port = 9999
`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want explicit 9999", cfg.Server.Port)
	}
	if cfg.AI.MaxConcurrent != 5 {
		t.Errorf("ai.max_concurrent = %d, want default 5", cfg.AI.MaxConcurrent)
	}
	if cfg.Enrich.MaxConcurrent != 10 {
		t.Errorf("enrich.max_concurrent = %d, want default 10", cfg.Enrich.MaxConcurrent)
	}
	if cfg.Pipeline.RefreshIntervalMinutes != 60 {
		t.Errorf("refresh_interval_minutes = %d, want default 60", cfg.Pipeline.RefreshIntervalMinutes)
	}
}

func TestLoadRejectsExplicitInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "zero port", content: "[server]\nport = 0\n"},
		{name: "port too high", content: "[server]\nport = 99999\n"},
		{name: "zero ai concurrency", content: "[ai]\nmax_concurrent = 0\n"},
		{name: "zero refresh interval", content: "[pipeline]\nrefresh_interval_minutes = 0\n"},
		{name: "bad send time", content: "[digest]\nsend_time_utc = \"25:99\"\n"},
		{name: "relevance out of range", content: "[digest]\nmin_relevance = 11\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadFromContent(t, tt.content); err == nil {
				t.Errorf("Load accepted invalid config:\n%s", tt.content)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")
	t.Setenv("NEWS_API_KEY", "env-news")
	t.Setenv("RESEND_API_KEY", "env-resend")

	cfg, err := loadFromContent(t, `
[ai]
api_key = "file-anthropic"
`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AI.APIKey != "env-anthropic" {
		t.Errorf("ai.api_key = %q, want env value to win", cfg.AI.APIKey)
	}
	if cfg.Sources.NewsAPIKey != "env-news" {
		t.Errorf("news_api_key = %q", cfg.Sources.NewsAPIKey)
	}
	if cfg.Digest.ResendAPIKey != "env-resend" {
		t.Errorf("resend_api_key = %q", cfg.Digest.ResendAPIKey)
	}
}

func TestSendTime(t *testing.T) {
	cfg, err := loadFromContent(t, `
[digest]
send_time_utc = "17:30"
`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	hour, minute := cfg.SendTime()
	if hour != 17 || minute != 30 {
		t.Errorf("SendTime() = (%d, %d), want (17, 30)", hour, minute)
	}
}
