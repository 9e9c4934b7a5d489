package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kmoroz/askcorpus/internal/config"
	"github.com/kmoroz/askcorpus/internal/core/domain"
	"github.com/kmoroz/askcorpus/internal/core/ports"
	"github.com/kmoroz/askcorpus/internal/core/usecase"
	"github.com/kmoroz/askcorpus/internal/index"
	"github.com/kmoroz/askcorpus/internal/infrastructure/corpus"
	"github.com/kmoroz/askcorpus/internal/infrastructure/llm/ollama"
	natsqueue "github.com/kmoroz/askcorpus/internal/infrastructure/queue/nats"
	"github.com/kmoroz/askcorpus/internal/infrastructure/report/excel"
	"github.com/kmoroz/askcorpus/internal/infrastructure/repository/postgres"
	"github.com/kmoroz/askcorpus/internal/infrastructure/resilience"
	"github.com/kmoroz/askcorpus/internal/observability/logging"
	"github.com/kmoroz/askcorpus/internal/observability/metrics"
)

// App holds the wired dependencies of one process. Only the fields the
// process's constructor filled are set.
type App struct {
	Config config.Config
	Logger *slog.Logger
	Holder *index.Holder
	Events *natsqueue.SnapshotEvents

	RetrieveUC *usecase.RetrieveUseCase
	AnswerUC   *usecase.AnswerUseCase
	BuildUC    *usecase.BuildSnapshotUseCase
	Evaluator  *usecase.Evaluator

	EvalStore    *postgres.EvalStore
	ReportWriter *excel.Writer

	APIMetrics    *metrics.APIMetrics
	WorkerMetrics *metrics.WorkerMetrics
	EvalMetrics   *metrics.EvalMetrics

	closeFn func()
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// ReloadSnapshot replaces the serving snapshot with the persisted one. The
// worker publishes the id after every rebuild; api processes reload on it.
func (a *App) ReloadSnapshot(snapshotID string) error {
	snap, err := index.Load(a.Config.SnapshotPath)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", snapshotID, err)
	}
	a.Holder.Swap(snap)
	if a.APIMetrics != nil {
		a.APIMetrics.SetSnapshotChunks(snap.Len())
	}
	a.Logger.Info("snapshot reloaded", "snapshot_id", snap.ID, "chunks", snap.Len())
	return nil
}

// NewAPI wires the serving process: snapshot holder, Ollama adapters and
// the retrieval/answer use cases.
func NewAPI(_ context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	apiMetrics := metrics.NewAPIMetrics("api")
	holder := index.NewHolder()

	snap, err := index.Load(cfg.SnapshotPath)
	switch {
	case err == nil:
		holder.Swap(snap)
		apiMetrics.SetSnapshotChunks(snap.Len())
		logger.Info("snapshot loaded", "snapshot_id", snap.ID, "chunks", snap.Len())
	case domain.IsKind(err, domain.ErrSnapshotNotFound):
		// Serve 503s until the worker publishes the first snapshot.
		logger.Warn("no snapshot on disk yet", "path", cfg.SnapshotPath)
	default:
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)
	client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(client)
	generator := ollama.NewGenerator(client)

	events, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init snapshot events: %w", err)
	}

	retrieveUC := usecase.NewRetrieveUseCase(holder, embedder, apiMetrics)
	answerUC := usecase.NewAnswerUseCase(retrieveUC, generator, cfg.RetrievalDefaults(), cfg.AnswerContextChars)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Holder:     holder,
		Events:     events,
		RetrieveUC: retrieveUC,
		AnswerUC:   answerUC,
		APIMetrics: apiMetrics,
		closeFn:    events.Close,
	}, nil
}

// NewWorker wires the rebuild process: corpus loader, embedder and the
// snapshot build use case publishing over NATS.
func NewWorker(_ context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)
	client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(client)

	events, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init snapshot events: %w", err)
	}

	holder := index.NewHolder()
	buildUC := usecase.NewBuildSnapshotUseCase(
		corpus.NewLoader(cfg.CorpusPath),
		embedder,
		holder,
		events,
		cfg.SnapshotPath,
		cfg.EmbedBatch,
		index.BuildOptions{BM25K1: cfg.BM25K1, BM25B: cfg.BM25B},
		logger,
	)

	return &App{
		Config:        cfg,
		Logger:        logger,
		Holder:        holder,
		Events:        events,
		BuildUC:       buildUC,
		WorkerMetrics: metrics.NewWorkerMetrics("worker"),
		closeFn:       events.Close,
	}, nil
}

// NewEval wires the evaluation process: a retrieval engine over the
// persisted snapshot, the harness, and the result sinks. An empty
// POSTGRES_DSN skips database persistence.
func NewEval(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger("eval", cfg.LogLevel)
	slog.SetDefault(logger)

	snap, err := index.Load(cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	holder := index.NewHolder()
	holder.Swap(snap)
	logger.Info("snapshot loaded", "snapshot_id", snap.ID, "chunks", snap.Len())

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)
	client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(client)

	var generator ports.AnswerGenerator
	if cfg.EvalGenerate {
		generator = ollama.NewGenerator(client)
	}

	evalMetrics := metrics.NewEvalMetrics("eval")
	retrieveUC := usecase.NewRetrieveUseCase(holder, embedder, nil)
	evaluator := usecase.NewEvaluator(retrieveUC, snap, generator, nil, usecase.EvaluatorOptions{
		Workers:     cfg.EvalWorkers,
		QueryBudget: time.Duration(cfg.EvalQueryBudgetSeconds) * time.Second,
		MaxQPS:      cfg.EvalMaxQPS,
		Observer:    evalMetrics,
		Logger:      logger,
	})

	var (
		db    *sql.DB
		store *postgres.EvalStore
	)
	if cfg.PostgresDSN != "" {
		db, err = postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		store = postgres.NewEvalStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		Holder:       holder,
		RetrieveUC:   retrieveUC,
		Evaluator:    evaluator,
		EvalStore:    store,
		ReportWriter: excel.NewWriter(),
		EvalMetrics:  evalMetrics,
		closeFn: func() {
			if db != nil {
				_ = db.Close()
			}
		},
	}, nil
}
