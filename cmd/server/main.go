package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blackmichael/lostify/internal/config"
	"github.com/blackmichael/lostify/internal/domain"
	"github.com/blackmichael/lostify/internal/httpserver"
	"github.com/blackmichael/lostify/internal/imagehost"
	"github.com/blackmichael/lostify/internal/livefeed"
	"github.com/blackmichael/lostify/internal/logging"
	"github.com/blackmichael/lostify/internal/matching"
	"github.com/blackmichael/lostify/internal/messaging"
	"github.com/blackmichael/lostify/internal/metrics"
	"github.com/blackmichael/lostify/internal/ratelimit"
	"github.com/blackmichael/lostify/internal/sqlstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("connected to database", "dialect", store.Dialect())

	matcher, err := matching.New(cfg.Matching)
	if err != nil {
		return fmt.Errorf("create matcher: %w", err)
	}

	hub := livefeed.NewHub(logger.With("component", "livefeed"))
	defer hub.Close()

	publishers := domain.Publishers{metrics.EventCounter{}, hub}
	if cfg.NATSURL != "" {
		nc, err := messaging.NewPublisher(messaging.DefaultConfig(cfg.NATSURL), logger.With("component", "nats"))
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Close()
		publishers = append(publishers, nc)
		logger.Info("publishing post events to nats", "url", cfg.NATSURL)
	}

	postService := domain.NewPostService(store, matcher, publishers, logger)
	deps := httpserver.Deps{
		Posts:    postService,
		Accounts: domain.NewAccountService(store, store, cfg.AllowedEmailDomain, logger),
		Feedback: domain.NewFeedbackService(store, logger),
		Admin:    domain.NewAdminService(store, store, store, store, publishers, logger),
		Live:     hub,
		Health:   store,
	}

	if cfg.RedisAddr != "" {
		limiter := ratelimit.NewLimiter(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), logger.With("component", "ratelimit"))
		defer limiter.Close()
		deps.Limiter = limiter
		logger.Info("rate limiting enabled", "redis", cfg.RedisAddr)
	}

	if cfg.ImageHost.Enabled() {
		deps.Images = imagehost.NewClient(imagehost.Config{
			APIURL: cfg.ImageHost.APIURL,
			Owner:  cfg.ImageHost.Owner,
			Repo:   cfg.ImageHost.Repo,
			Token:  cfg.ImageHost.Token,
			Branch: cfg.ImageHost.Branch,
		})
		logger.Info("image uploads enabled", "repo", cfg.ImageHost.Owner+"/"+cfg.ImageHost.Repo)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if cfg.AutoResolve.After > 0 {
		go postService.StartAutoResolveJob(ctx, cfg.AutoResolve.Interval, cfg.AutoResolve.After)
	}

	server := httpserver.NewServer(cfg, deps, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited with error", "error", err)
		}
	}()

	logger.Info("server started", "port", cfg.Port)

	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}
