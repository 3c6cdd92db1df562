package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pmctools/pmcharvest/internal/api"
	"github.com/pmctools/pmcharvest/internal/config"
	"github.com/pmctools/pmcharvest/internal/fetch"
	"github.com/pmctools/pmcharvest/internal/pipeline"
	"github.com/pmctools/pmcharvest/internal/store"
)

func main() {
	godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	cache, err := store.Open(ctx, cfg.CachePath)
	if err != nil {
		log.Error("failed to open cache", "path", cfg.CachePath, "error", err)
		os.Exit(1)
	}
	client := fetch.NewClient(cfg.EFetchURL, cfg.OAURL, cfg.RequestInterval, log)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, client, cache, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		cache.Close()
	}()

	log.Info("starting pmcharvest", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
