package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kmoroz/askcorpus/internal/core/ports"
	"github.com/kmoroz/askcorpus/internal/index"
)

// BuildSnapshotUseCase produces a new immutable snapshot from the chunk
// source and swaps it in only once fully built. A failed build leaves the
// previous snapshot serving.
type BuildSnapshotUseCase struct {
	source       ports.ChunkSource
	embedder     ports.Embedder
	holder       *index.Holder
	events       ports.SnapshotEvents
	snapshotPath string
	embedBatch   int
	opts         index.BuildOptions
	logger       *slog.Logger
}

func NewBuildSnapshotUseCase(
	source ports.ChunkSource,
	embedder ports.Embedder,
	holder *index.Holder,
	events ports.SnapshotEvents,
	snapshotPath string,
	embedBatch int,
	opts index.BuildOptions,
	logger *slog.Logger,
) *BuildSnapshotUseCase {
	if embedBatch <= 0 {
		embedBatch = 32
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BuildSnapshotUseCase{
		source:       source,
		embedder:     embedder,
		holder:       holder,
		events:       events,
		snapshotPath: snapshotPath,
		embedBatch:   embedBatch,
		opts:         opts,
		logger:       logger,
	}
}

// Rebuild builds, persists and publishes a fresh snapshot, returning its id.
func (uc *BuildSnapshotUseCase) Rebuild(ctx context.Context) (string, error) {
	chunks, err := uc.source.LoadChunks(ctx)
	if err != nil {
		return "", fmt.Errorf("load chunks: %w", err)
	}
	uc.logger.Info("corpus loaded", "chunks", len(chunks))

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += uc.embedBatch {
		end := start + uc.embedBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		batch, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return "", fmt.Errorf("embed batch at %d: %w", start, err)
		}
		vectors = append(vectors, batch...)
	}

	snap, err := index.Build(chunks, vectors, uc.opts)
	if err != nil {
		return "", err
	}

	if uc.snapshotPath != "" {
		if err := index.Save(snap, uc.snapshotPath); err != nil {
			return "", fmt.Errorf("save snapshot: %w", err)
		}
	}

	uc.holder.Swap(snap)
	uc.logger.Info("snapshot swapped in", "snapshot_id", snap.ID, "chunks", snap.Len(), "dimension", snap.Dimension())

	if uc.events != nil {
		if err := uc.events.PublishSnapshotReady(ctx, snap.ID); err != nil {
			// The new snapshot already serves locally; a missed event only
			// delays other processes until the next rebuild.
			uc.logger.Warn("publish snapshot ready failed", "snapshot_id", snap.ID, "error", err)
		}
	}
	return snap.ID, nil
}
