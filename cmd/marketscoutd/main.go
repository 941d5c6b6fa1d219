package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/marketscout/marketscout/internal/adapters/aixplain"
	"github.com/marketscout/marketscout/internal/config"
	"github.com/marketscout/marketscout/internal/core/services"
	"github.com/marketscout/marketscout/pkg/api"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("starting marketscout")

	if err := run(logger); err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.VerboseLogging {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	store, err := services.NewJobStore(logger, cfg.StorageDir)
	if err != nil {
		return fmt.Errorf("failed to init job store: %w", err)
	}

	// Drop reports older than the retention window before serving.
	store.Sweep(time.Duration(cfg.JobRetentionDays) * 24 * time.Hour)

	platform := aixplain.NewClient(logger, aixplain.Options{
		BaseURL:        cfg.PlatformBaseURL,
		DefaultAPIKey:  cfg.PlatformAPIKey,
		LLMID:          cfg.LLMID,
		SearchModelID:  cfg.SearchModelID,
		MaxIterations:  cfg.MaxIterations,
		MaxRetries:     cfg.MaxRetries,
		EnableCache:    cfg.EnableCache,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
	})

	eventBus := services.NewEventBus(logger)
	runner := services.NewRunner(logger, store, eventBus, platform, cfg.MaxConcurrentJobs)
	runner.Start(ctx)

	apiServer := api.NewServer(logger, store, runner, eventBus)

	c := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSAllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: c.Handler(apiServer.Handler()),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting api server", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
