package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		PathEnv, "PORT", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT", "ALLOWED_EMAIL_DOMAIN",
		"REDIS_ADDR", "NATS_URL", "GITHUB_OWNER", "GITHUB_REPO", "GITHUB_TOKEN",
		"GITHUB_BRANCH", "MATCH_THRESHOLD", "AUTO_RESOLVE_AFTER",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != 3000 {
		t.Errorf("expected port 3000, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "lostify.db" {
		t.Errorf("expected sqlite default, got %q", cfg.DatabaseURL)
	}
	if cfg.Matching.Threshold != 0.3 {
		t.Errorf("expected threshold 0.3, got %v", cfg.Matching.Threshold)
	}
	if cfg.ImageHost.Enabled() {
		t.Error("expected image host disabled without credentials")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "lostify.yaml")
	content := `
port: 8080
databaseUrl: postgres://lostify@db/lostify
allowedEmailDomain: campus.edu
imageHost:
  owner: campus
  repo: lostify-images
  token: from-file
matching:
  threshold: 0.5
  weights:
    title: 0.25
    description: 0.25
    category: 0.25
    location: 0.25
autoResolve:
  after: 720h
  interval: 30m
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(PathEnv, path)
	t.Setenv("PORT", "9090")
	t.Setenv("GITHUB_TOKEN", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected env port 9090, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://lostify@db/lostify" {
		t.Errorf("expected database url from file, got %q", cfg.DatabaseURL)
	}
	if cfg.ImageHost.Token != "from-env" {
		t.Errorf("expected token from env, got %q", cfg.ImageHost.Token)
	}
	if cfg.ImageHost.Branch != "main" {
		t.Errorf("expected default branch kept, got %q", cfg.ImageHost.Branch)
	}
	if !cfg.ImageHost.Enabled() {
		t.Error("expected image host enabled")
	}
	if cfg.Matching.Threshold != 0.5 || cfg.Matching.Weights.Title != 0.25 {
		t.Errorf("expected matching config from file, got %+v", cfg.Matching)
	}
	if cfg.AutoResolve.After != 720*time.Hour || cfg.AutoResolve.Interval != 30*time.Minute {
		t.Errorf("expected auto-resolve 720h/30m, got %v/%v", cfg.AutoResolve.After, cfg.AutoResolve.Interval)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad port", env: map[string]string{"PORT": "abc"}},
		{name: "port out of range", env: map[string]string{"PORT": "70000"}},
		{name: "bad threshold", env: map[string]string{"MATCH_THRESHOLD": "high"}},
		{name: "threshold out of range", env: map[string]string{"MATCH_THRESHOLD": "1.5"}},
		{name: "bad duration", env: map[string]string{"AUTO_RESOLVE_AFTER": "a month"}},
		{name: "missing file", env: map[string]string{PathEnv: "/nonexistent/lostify.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_RejectsWeightsNotSummingToOne(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "lostify.yaml")
	content := "matching:\n  threshold: 0.3\n  weights:\n    title: 0.5\n    description: 0.5\n    category: 0.5\n    location: 0\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(PathEnv, path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for weights summing to 1.5")
	}
}
