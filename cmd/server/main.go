package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docstruct/internal/api"
	"github.com/dgallion1/docstruct/internal/config"
	"github.com/dgallion1/docstruct/internal/detect"
	"github.com/dgallion1/docstruct/internal/parser"
	"github.com/dgallion1/docstruct/internal/pathstore"
	"github.com/dgallion1/docstruct/internal/pipeline"
	"github.com/dgallion1/docstruct/internal/stats"
	"github.com/dgallion1/docstruct/internal/store"
	"github.com/dgallion1/docstruct/internal/structure"
	"github.com/dgallion1/docstruct/internal/titles"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Result store.
	db, err := store.New(cfg.DBPath)
	if err != nil {
		log.Error("open store", "error", err)
		os.Exit(1)
	}

	// Known titles for the repair pass.
	var titleSource titles.Source = titles.Static(structure.DefaultKnownTitles())
	var watcher *titles.Watcher
	if cfg.KnownTitlesFile != "" {
		watcher, err = titles.NewWatcher(cfg.KnownTitlesFile, log)
		if err != nil {
			log.Error("load known titles", "error", err)
			os.Exit(1)
		}
		if cfg.WatchTitles {
			if err := watcher.Start(ctx); err != nil {
				log.Error("watch known titles", "error", err)
				os.Exit(1)
			}
		}
		titleSource = watcher
	}

	tracker := stats.NewTracker(time.Hour)
	extractor := &pipeline.Extractor{
		Detector: detect.New(cfg.DetectSampleChars, cfg.DetectMinEntries, log),
		Stats:    tracker,
		Titles:   titleSource,
		Repair:   cfg.RepairTitles,
		Log:      log,
	}

	// Optional pathstore mirror.
	var ps *pathstore.Client
	var publisher pipeline.Publisher
	var mirror api.Mirror
	if cfg.PublishEnabled() {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		p := pathstore.NewPublisher(ps, cfg.PublishRetries, log)
		publisher, mirror = p, p
	}

	// Initialize pipeline.
	worker := pipeline.NewWorker(extractor, db, publisher, log,
		parser.Options{FallbackPdftotext: cfg.PDFFallbackPdftotext})
	orch := pipeline.NewOrchestrator(cfg, worker, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Orchestrator: orch,
		Extractor:    extractor,
		Store:        db,
		Mirror:       mirror,
		Stats:        tracker,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
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

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if watcher != nil {
			watcher.Close()
		}
		if ps != nil {
			ps.Close()
		}
		db.Close()
	}()

	log.Info("starting docstruct",
		"port", cfg.Port,
		"db", cfg.DBPath,
		"publish", cfg.PublishEnabled(),
		"repair_titles", cfg.RepairTitles,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
