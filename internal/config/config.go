package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blackmichael/lostify/internal/matching"
)

// PathEnv names the environment variable pointing at an optional YAML file.
const PathEnv = "LOSTIFY_CONFIG"

// Config holds all configuration for the application.
type Config struct {
	// Port is the HTTP server port.
	Port int `yaml:"port"`

	// DatabaseURL selects the store: postgres:// URLs use PostgreSQL,
	// anything else is a SQLite path.
	DatabaseURL string `yaml:"databaseUrl"`

	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	// AllowedEmailDomain restricts sign-in to one institutional domain.
	// Empty accepts any email.
	AllowedEmailDomain string `yaml:"allowedEmailDomain"`

	// RedisAddr enables rate limiting when set.
	RedisAddr string `yaml:"redisAddr"`

	// NATSURL enables publishing post events to NATS when set.
	NATSURL string `yaml:"natsUrl"`

	ImageHost   ImageHostConfig   `yaml:"imageHost"`
	Matching    matching.Config   `yaml:"matching"`
	AutoResolve AutoResolveConfig `yaml:"autoResolve"`
	RateLimit   RateLimitConfig   `yaml:"rateLimit"`
}

// ImageHostConfig points uploads at a GitHub repository.
type ImageHostConfig struct {
	APIURL string `yaml:"apiUrl"`
	Owner  string `yaml:"owner"`
	Repo   string `yaml:"repo"`
	Token  string `yaml:"token"`
	Branch string `yaml:"branch"`
}

// Enabled reports whether enough is configured to upload images.
func (c ImageHostConfig) Enabled() bool {
	return c.Owner != "" && c.Repo != "" && c.Token != ""
}

// AutoResolveConfig drives the background job that resolves stale posts.
type AutoResolveConfig struct {
	After    time.Duration `yaml:"after"`
	Interval time.Duration `yaml:"interval"`
}

// RateLimitConfig caps writes per user per window.
type RateLimitConfig struct {
	Posts    int           `yaml:"posts"`
	Feedback int           `yaml:"feedback"`
	Window   time.Duration `yaml:"window"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Port:        3000,
		DatabaseURL: "lostify.db",
		LogLevel:    "info",
		LogFormat:   "json",
		ImageHost: ImageHostConfig{
			APIURL: "https://api.github.com",
			Branch: "main",
		},
		Matching: matching.DefaultConfig(),
		AutoResolve: AutoResolveConfig{
			After:    30 * 24 * time.Hour,
			Interval: time.Hour,
		},
		RateLimit: RateLimitConfig{
			Posts:    10,
			Feedback: 5,
			Window:   time.Hour,
		},
	}
}

// Load reads configuration from an optional YAML file named by
// LOSTIFY_CONFIG, then applies environment variable overrides.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(PathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if p := os.Getenv("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Port = port
	}

	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.AllowedEmailDomain, "ALLOWED_EMAIL_DOMAIN")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.NATSURL, "NATS_URL")
	setString(&c.ImageHost.Owner, "GITHUB_OWNER")
	setString(&c.ImageHost.Repo, "GITHUB_REPO")
	setString(&c.ImageHost.Token, "GITHUB_TOKEN")
	setString(&c.ImageHost.Branch, "GITHUB_BRANCH")

	if v := os.Getenv("MATCH_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid MATCH_THRESHOLD: %w", err)
		}
		c.Matching.Threshold = threshold
	}

	if v := os.Getenv("AUTO_RESOLVE_AFTER"); v != "" {
		after, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid AUTO_RESOLVE_AFTER: %w", err)
		}
		c.AutoResolve.After = after
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("database url is required")
	}
	if _, err := matching.New(c.Matching); err != nil {
		return fmt.Errorf("matching config: %w", err)
	}
	if c.AutoResolve.After < 0 || c.AutoResolve.Interval < 0 {
		return errors.New("auto-resolve durations must not be negative")
	}
	if c.AutoResolve.After > 0 && c.AutoResolve.Interval == 0 {
		return errors.New("auto-resolve interval must be positive when enabled")
	}
	if c.RateLimit.Window <= 0 && (c.RateLimit.Posts > 0 || c.RateLimit.Feedback > 0) {
		return errors.New("rate limit window must be positive")
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
