package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/formulatag/internal/api"
	"github.com/dgallion1/formulatag/internal/config"
	"github.com/dgallion1/formulatag/internal/paragraphs"
	"github.com/dgallion1/formulatag/internal/pipeline"
	"github.com/dgallion1/formulatag/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	path := os.Getenv("FORMULATAG_CONFIG")
	if path == "" {
		path = "formulatag.yml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Error("loading configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	v, err := cfg.Vocabulary()
	if err != nil {
		log.Error("loading vocabulary", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(store.Config{
		Backend: cfg.StoreBackend,
		Path:    cfg.StorePath,
		Log:     log.With("component", "badger"),
	})
	if err != nil {
		log.Error("opening annotation store", "error", err)
		os.Exit(1)
	}

	// The paragraph endpoints are optional.
	var lib *paragraphs.Library
	if cfg.ParagraphDir != "" {
		if lib, err = paragraphs.NewLibrary(cfg.ParagraphDir); err != nil {
			log.Warn("paragraph library unavailable", "dir", cfg.ParagraphDir, "error", err)
			lib = nil
		}
	}

	// Pre-tagging needs paragraphs to work on.
	var orch *pipeline.Orchestrator
	if lib != nil {
		orch = pipeline.NewOrchestrator(pipeline.Config{
			Workers:        cfg.PretagWorkers,
			MaxQueueSize:   cfg.PretagQueueSize,
			MaxConcurrency: cfg.PretagConcurrency,
			JobTTL:         cfg.JobTTL,
		}, lib, st, v, log.With("component", "pretag"))
		orch.Start(context.Background())
	}

	srv := api.NewServer(st, lib, orch, v, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
		if orch != nil {
			orch.Stop()
		}
	}()

	log.Info("starting formulatag server",
		"port", cfg.Port,
		"store", cfg.StoreBackend,
		"store_path", cfg.StorePath,
		"paragraphs", lib != nil,
		"auth", cfg.APIKey != "",
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		st.Close()
		os.Exit(1)
	}
	<-done
	if err := st.Close(); err != nil {
		log.Error("closing annotation store", "error", err)
	}
}
