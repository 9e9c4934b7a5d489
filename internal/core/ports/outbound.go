package ports

import (
	"context"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

// Embedder builds vectors for chunk texts and query text. The same embedder
// must serve a snapshot at build time and at query time.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// AnswerGenerator creates the final user-facing answer from retrieved context.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, passages []string) (string, error)
}

// ChunkSource supplies the finite chunk sequence a snapshot is built from.
type ChunkSource interface {
	LoadChunks(ctx context.Context) ([]domain.Chunk, error)
}

// EvalResultStore persists evaluation outcomes keyed by
// (run, question, configuration, metric).
type EvalResultStore interface {
	EnsureSchema(ctx context.Context) error
	SaveReport(ctx context.Context, report *domain.EvaluationReport) error
	LoadRunMetrics(ctx context.Context, runID string) ([]domain.MetricRow, error)
}

// ReportWriter renders a finished evaluation report for humans.
type ReportWriter interface {
	Write(report *domain.EvaluationReport, path string) error
}

// SnapshotEvents connects snapshot producers and consumers across processes.
type SnapshotEvents interface {
	PublishSnapshotReady(ctx context.Context, snapshotID string) error
	SubscribeSnapshotReady(ctx context.Context, handler func(context.Context, string) error) error
	Close()
}
