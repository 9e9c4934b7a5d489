package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kmoroz/askcorpus/internal/core/domain"
	"github.com/kmoroz/askcorpus/internal/core/ports"
)

// URLResolver maps a chunk id to its owning document's source URL.
// *index.Snapshot satisfies it.
type URLResolver interface {
	URLByChunk(chunkID string) string
}

// EvalObserver receives per-item outcomes and per-config aggregates.
type EvalObserver interface {
	ObserveItem(configID string, outcome domain.Outcome, seconds float64)
	SetAggregate(configID, metric string, value float64)
}

// EvaluatorOptions tunes harness execution.
type EvaluatorOptions struct {
	Workers     int
	QueryBudget time.Duration
	MaxQPS      float64
	Observer    EvalObserver
	Logger      *slog.Logger
}

// Evaluator runs a labeled question set through the one retrieval engine
// under one or more configurations. Indices are read-only during a run, so
// items execute in parallel; only result accumulation is serialized.
type Evaluator struct {
	retriever ports.Retriever
	resolver  URLResolver
	generator ports.AnswerGenerator
	metrics   map[string]MetricFunc

	workers     int
	queryBudget time.Duration
	limiter     *rate.Limiter
	observer    EvalObserver
	logger      *slog.Logger
}

// NewEvaluator builds a harness. Metrics are fixed at construction; nil
// falls back to the default registry. A nil generator skips the generation
// step and answer metrics score zero.
func NewEvaluator(
	retriever ports.Retriever,
	resolver URLResolver,
	generator ports.AnswerGenerator,
	metrics map[string]MetricFunc,
	opts EvaluatorOptions,
) *Evaluator {
	if metrics == nil {
		metrics = DefaultMetrics()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	var limiter *rate.Limiter
	if opts.MaxQPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.MaxQPS), 1)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		retriever:   retriever,
		resolver:    resolver,
		generator:   generator,
		metrics:     metrics,
		workers:     workers,
		queryBudget: opts.QueryBudget,
		limiter:     limiter,
		observer:    opts.Observer,
		logger:      logger,
	}
}

// Evaluate scores every item under every configuration. A single bad item
// records a failure outcome and never voids the run.
func (e *Evaluator) Evaluate(ctx context.Context, items []domain.EvaluationItem, configs []domain.NamedConfig) (*domain.EvaluationReport, error) {
	if len(configs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "evaluate", errors.New("no configurations given"))
	}

	started := time.Now()
	report := &domain.EvaluationReport{
		RunID:     uuid.NewString(),
		StartedAt: started.UTC(),
		NumItems:  len(items),
	}

	for _, cfg := range configs {
		result := e.runConfig(ctx, items, cfg)
		report.Configs = append(report.Configs, result)
		e.logger.Info("configuration evaluated",
			"run_id", report.RunID,
			"config_id", cfg.ID,
			"items", len(items),
			"mrr", result.Aggregates[MetricMRR],
		)
	}

	report.Duration = time.Since(started)
	return report, nil
}

func (e *Evaluator) runConfig(ctx context.Context, items []domain.EvaluationItem, cfg domain.NamedConfig) domain.ConfigResult {
	results := make([]domain.ItemResult, len(items))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)
	for i := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.runItem(ctx, items[i], cfg)
		}(i)
	}
	wg.Wait()

	aggregates := make(map[string]float64, len(e.metrics))
	if len(items) > 0 {
		for name := range e.metrics {
			var sum float64
			for i := range results {
				sum += results[i].Metrics[name]
			}
			aggregates[name] = sum / float64(len(items))
		}
	}
	if e.observer != nil {
		for name, value := range aggregates {
			e.observer.SetAggregate(cfg.ID, name, value)
		}
	}

	return domain.ConfigResult{
		ConfigID:   cfg.ID,
		Retrieval:  cfg.Retrieval,
		Items:      results,
		Aggregates: aggregates,
	}
}

func (e *Evaluator) runItem(ctx context.Context, item domain.EvaluationItem, cfg domain.NamedConfig) domain.ItemResult {
	result := domain.ItemResult{
		QuestionID: item.QuestionID,
		ConfigID:   cfg.ID,
		Metrics:    e.zeroMetrics(),
	}

	if len(item.GoldURLs) == 0 {
		result.Outcome = domain.OutcomeFailed
		result.Failure = domain.FailureNoGoldURL
		result.Err = "empty gold url set"
		e.observeItem(cfg.ID, result.Outcome, 0)
		return result
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			result.Outcome = domain.OutcomeFailed
			result.Failure = domain.FailureNoGoldURL
			result.Err = err.Error()
			e.observeItem(cfg.ID, result.Outcome, 0)
			return result
		}
	}

	queryCtx := ctx
	if e.queryBudget > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, e.queryBudget)
		defer cancel()
	}

	start := time.Now()
	hits, err := e.retriever.Retrieve(queryCtx, item.Question, cfg.Retrieval)
	result.Latency = time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || domain.IsKind(err, domain.ErrRetrievalTimeout) {
			result.Outcome = domain.OutcomeTimeout
		} else {
			result.Outcome = domain.OutcomeFailed
		}
		result.Failure = domain.FailureNoGoldURL
		result.Err = err.Error()
		e.observeItem(cfg.ID, result.Outcome, result.Latency.Seconds())
		return result
	}

	result.Hits = hits
	result.HitURLs = make([]string, len(hits))
	for i, h := range hits {
		result.HitURLs[i] = e.resolver.URLByChunk(h.ChunkID)
	}

	if e.generator != nil {
		answer, genErr := e.generateAnswer(queryCtx, item, hits)
		if genErr != nil {
			// Generation trouble degrades answer metrics but keeps the
			// retrieval scores for this item.
			e.logger.Warn("generation failed", "question_id", item.QuestionID, "error", genErr)
		}
		result.Answer = answer
	}

	in := MetricInput{Hits: hits, HitURLs: result.HitURLs, Item: item, Answer: result.Answer}
	for name, fn := range e.metrics {
		result.Metrics[name] = fn(in)
	}

	result.Outcome = domain.OutcomeScored
	result.Failure = ClassifyResult(result.HitURLs, item.GoldURLs, result.Metrics[MetricAnswerF1], e.generator != nil)
	e.observeItem(cfg.ID, result.Outcome, result.Latency.Seconds())
	return result
}

func (e *Evaluator) generateAnswer(ctx context.Context, item domain.EvaluationItem, hits []domain.FusedHit) (string, error) {
	resolver, ok := e.resolver.(interface {
		Chunk(id string) (domain.Chunk, bool)
	})
	if !ok {
		return "", nil
	}
	passages := make([]string, 0, len(hits))
	for _, h := range hits {
		if chunk, found := resolver.Chunk(h.ChunkID); found {
			passages = append(passages, chunk.Text)
		}
	}
	return e.generator.GenerateAnswer(ctx, item.Question, passages)
}

func (e *Evaluator) zeroMetrics() map[string]float64 {
	out := make(map[string]float64, len(e.metrics))
	for name := range e.metrics {
		out[name] = 0
	}
	return out
}

func (e *Evaluator) observeItem(configID string, outcome domain.Outcome, seconds float64) {
	if e.observer != nil {
		e.observer.ObserveItem(configID, outcome, seconds)
	}
}
