package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kmoroz/askcorpus/internal/bootstrap"
	"github.com/kmoroz/askcorpus/internal/config"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.WorkerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	rebuild := func() {
		app.WorkerMetrics.StartRebuild()
		start := time.Now()
		id, err := app.BuildUC.Rebuild(ctx)
		chunks := 0
		if snap, snapErr := app.Holder.Current(); snapErr == nil {
			chunks = snap.Len()
		}
		app.WorkerMetrics.FinishRebuild("worker", time.Since(start), chunks, err)
		if err != nil {
			app.Logger.Error("snapshot rebuild failed", "error", err)
			return
		}
		app.Logger.Info("snapshot rebuilt", "snapshot_id", id, "chunks", chunks)
	}

	rebuild()

	if cfg.RebuildIntervalMinutes <= 0 {
		return
	}

	ticker := time.NewTicker(time.Duration(cfg.RebuildIntervalMinutes) * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rebuild()
		}
	}
}
