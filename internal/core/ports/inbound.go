package ports

import (
	"context"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

// Retriever is the inbound contract for a single hybrid query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, cfg domain.RetrievalConfig) ([]domain.FusedHit, error)
}

// AnswerService is the inbound contract for retrieval-augmented answering.
type AnswerService interface {
	Ask(ctx context.Context, question string, topN int) (*domain.Answer, error)
}

// SnapshotBuilder is the inbound contract for one-shot corpus index builds.
type SnapshotBuilder interface {
	Rebuild(ctx context.Context) (string, error)
}

// Evaluator scores a labeled question set under one or more configurations.
type Evaluator interface {
	Evaluate(ctx context.Context, items []domain.EvaluationItem, configs []domain.NamedConfig) (*domain.EvaluationReport, error)
}
