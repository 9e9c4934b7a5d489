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
	"github.com/kmoroz/askcorpus/internal/core/domain"
	"github.com/kmoroz/askcorpus/internal/core/usecase"
	"github.com/kmoroz/askcorpus/internal/infrastructure/corpus"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewEval(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	// Long ablation runs are scrapeable while they execute.
	metricsServer := &http.Server{
		Addr:    ":" + cfg.EvalMetricsPort,
		Handler: app.EvalMetrics.Handler(),
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

	items, err := corpus.LoadQuestions(cfg.QuestionsPath)
	if err != nil {
		log.Fatalf("load questions: %v", err)
	}

	var configs []domain.NamedConfig
	if cfg.MatrixPath != "" {
		configs, err = corpus.LoadMatrix(cfg.MatrixPath)
		if err != nil {
			log.Fatalf("load ablation matrix: %v", err)
		}
	} else {
		configs = usecase.DefaultAblationMatrix(cfg.RetrievalDefaults())
	}

	report, err := app.Evaluator.Evaluate(ctx, items, configs)
	if err != nil {
		log.Fatalf("evaluate: %v", err)
	}

	for _, row := range usecase.AblationDeltas(report) {
		app.Logger.Info("ablation result",
			"run_id", report.RunID,
			"config_id", row.ConfigID,
			"mrr", row.Metrics[usecase.MetricMRR],
			"mrr_delta", row.Deltas[usecase.MetricMRR],
		)
	}
	for _, cr := range report.Configs {
		for category, count := range usecase.FailureBreakdown(cr) {
			app.Logger.Info("failure breakdown",
				"run_id", report.RunID,
				"config_id", cr.ConfigID,
				"category", string(category),
				"count", count,
			)
		}
	}

	if app.EvalStore != nil {
		if err := app.EvalStore.SaveReport(ctx, report); err != nil {
			log.Fatalf("save report: %v", err)
		}
		app.Logger.Info("report persisted", "run_id", report.RunID)
	}

	if cfg.ReportPath != "" {
		if err := app.ReportWriter.Write(report, cfg.ReportPath); err != nil {
			log.Fatalf("write report workbook: %v", err)
		}
		app.Logger.Info("report written", "run_id", report.RunID, "path", cfg.ReportPath)
	}
}
