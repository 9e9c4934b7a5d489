package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kmoroz/askcorpus/internal/adapters/http"
	"github.com/kmoroz/askcorpus/internal/bootstrap"
	"github.com/kmoroz/askcorpus/internal/config"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewAPI(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	router := httpadapter.NewRouter(app.RetrieveUC, app.AnswerUC, cfg.RetrievalDefaults(), app.APIMetrics)
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.APIMetrics.Handler())
	mux.Handle("/", app.APIMetrics.Middleware("api", router.Handler()))

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := app.Events.SubscribeSnapshotReady(ctx, func(_ context.Context, snapshotID string) error {
			return app.ReloadSnapshot(snapshotID)
		}); err != nil && ctx.Err() == nil {
			app.Logger.Error("snapshot subscription failed", "error", err)
		}
	}()

	go func() {
		app.Logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("api shutdown error", "error", err)
	}
}
