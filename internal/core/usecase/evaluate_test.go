package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

// scriptedRetriever returns a canned ranking per question text.
type scriptedRetriever struct {
	hits map[string][]domain.FusedHit
	errs map[string]error
}

func (s *scriptedRetriever) Retrieve(_ context.Context, query string, _ domain.RetrievalConfig) ([]domain.FusedHit, error) {
	if err, ok := s.errs[query]; ok {
		return nil, err
	}
	return s.hits[query], nil
}

// mapResolver maps chunk ids to URLs through a plain map.
type mapResolver map[string]string

func (m mapResolver) URLByChunk(id string) string { return m[id] }

func evalConfigs() []domain.NamedConfig {
	return []domain.NamedConfig{{ID: "hybrid_k60", Retrieval: domain.DefaultRetrievalConfig()}}
}

func TestEvaluateAggregateMRR(t *testing.T) {
	retriever := &scriptedRetriever{hits: map[string][]domain.FusedHit{
		"q1": {{ChunkID: "gold-chunk", Score: 1}},
		"q2": {{ChunkID: "other-chunk", Score: 1}},
	}}
	resolver := mapResolver{"gold-chunk": "https://example.org/gold", "other-chunk": "https://example.org/other"}

	e := NewEvaluator(retriever, resolver, nil, nil, EvaluatorOptions{Workers: 2})
	report, err := e.Evaluate(context.Background(), []domain.EvaluationItem{
		{QuestionID: "q1", Question: "q1", GoldURLs: []string{"https://example.org/gold"}},
		{QuestionID: "q2", Question: "q2", GoldURLs: []string{"https://example.org/gold"}},
	}, evalConfigs())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	// One item at reciprocal rank 1, one at 0: aggregate MRR is 0.5.
	got := report.Configs[0].Aggregates[MetricMRR]
	if got != 0.5 {
		t.Fatalf("aggregate MRR = %v, want 0.5", got)
	}
	if report.NumItems != 2 {
		t.Fatalf("NumItems = %d, want 2", report.NumItems)
	}
	if report.RunID == "" {
		t.Fatalf("run id must be assigned")
	}
}

func TestEvaluateMalformedItemDoesNotAbortRun(t *testing.T) {
	retriever := &scriptedRetriever{hits: map[string][]domain.FusedHit{
		"good": {{ChunkID: "g", Score: 1}},
	}}
	resolver := mapResolver{"g": "https://example.org/gold"}

	e := NewEvaluator(retriever, resolver, nil, nil, EvaluatorOptions{})
	report, err := e.Evaluate(context.Background(), []domain.EvaluationItem{
		{QuestionID: "bad", Question: "bad"}, // empty gold set
		{QuestionID: "good", Question: "good", GoldURLs: []string{"https://example.org/gold"}},
	}, evalConfigs())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	items := report.Configs[0].Items
	if items[0].Outcome != domain.OutcomeFailed {
		t.Fatalf("malformed item outcome = %s, want failed", items[0].Outcome)
	}
	if items[1].Outcome != domain.OutcomeScored {
		t.Fatalf("healthy item outcome = %s, want scored", items[1].Outcome)
	}
	if items[1].Metrics[MetricMRR] != 1 {
		t.Fatalf("healthy item MRR = %v, want 1", items[1].Metrics[MetricMRR])
	}
}

func TestEvaluateRetrieverErrorRecordedAsFailure(t *testing.T) {
	retriever := &scriptedRetriever{
		hits: map[string][]domain.FusedHit{"ok": {{ChunkID: "g", Score: 1}}},
		errs: map[string]error{"boom": errors.New("index exploded")},
	}
	resolver := mapResolver{"g": "https://example.org/gold"}

	e := NewEvaluator(retriever, resolver, nil, nil, EvaluatorOptions{})
	report, err := e.Evaluate(context.Background(), []domain.EvaluationItem{
		{QuestionID: "boom", Question: "boom", GoldURLs: []string{"https://example.org/gold"}},
		{QuestionID: "ok", Question: "ok", GoldURLs: []string{"https://example.org/gold"}},
	}, evalConfigs())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	items := report.Configs[0].Items
	if items[0].Outcome != domain.OutcomeFailed || items[0].Err == "" {
		t.Fatalf("expected recorded failure, got %+v", items[0])
	}
	if items[0].Metrics[MetricMRR] != 0 {
		t.Fatalf("failed item must contribute 0, got %v", items[0].Metrics[MetricMRR])
	}
	if got := report.Configs[0].Aggregates[MetricMRR]; got != 0.5 {
		t.Fatalf("aggregate MRR = %v, want 0.5", got)
	}
}

func TestEvaluateTimeoutOutcome(t *testing.T) {
	retriever := &scriptedRetriever{errs: map[string]error{"slow": context.DeadlineExceeded}}

	e := NewEvaluator(retriever, mapResolver{}, nil, nil, EvaluatorOptions{})
	report, err := e.Evaluate(context.Background(), []domain.EvaluationItem{
		{QuestionID: "slow", Question: "slow", GoldURLs: []string{"https://example.org/gold"}},
	}, evalConfigs())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	item := report.Configs[0].Items[0]
	if item.Outcome != domain.OutcomeTimeout {
		t.Fatalf("outcome = %s, want timeout", item.Outcome)
	}
	if item.Metrics[MetricMRR] != 0 {
		t.Fatalf("timeout must score 0, got %v", item.Metrics[MetricMRR])
	}
}

func TestEvaluateRequiresConfigs(t *testing.T) {
	e := NewEvaluator(&scriptedRetriever{}, mapResolver{}, nil, nil, EvaluatorOptions{})
	_, err := e.Evaluate(context.Background(), nil, nil)
	if !domain.IsKind(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEvaluateMultipleConfigsKeepResultsSeparate(t *testing.T) {
	retriever := &scriptedRetriever{hits: map[string][]domain.FusedHit{
		"q": {{ChunkID: "g", Score: 1}},
	}}
	resolver := mapResolver{"g": "https://example.org/gold"}

	configs := []domain.NamedConfig{
		{ID: "a", Retrieval: domain.DefaultRetrievalConfig()},
		{ID: "b", Retrieval: domain.DefaultRetrievalConfig()},
	}
	e := NewEvaluator(retriever, resolver, nil, nil, EvaluatorOptions{})
	report, err := e.Evaluate(context.Background(), []domain.EvaluationItem{
		{QuestionID: "q", Question: "q", GoldURLs: []string{"https://example.org/gold"}},
	}, configs)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if len(report.Configs) != 2 {
		t.Fatalf("expected 2 config results, got %d", len(report.Configs))
	}
	if report.Config("a") == nil || report.Config("b") == nil {
		t.Fatalf("config lookup failed")
	}
	for _, cr := range report.Configs {
		if cr.Items[0].ConfigID != cr.ConfigID {
			t.Fatalf("item tagged with %s inside %s", cr.Items[0].ConfigID, cr.ConfigID)
		}
	}
}
