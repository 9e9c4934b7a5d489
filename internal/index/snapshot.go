package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

// snapshotFile is the persisted snapshot layout. Chunks and vectors are
// enough to rebuild both indices losslessly: sparse construction is
// deterministic from chunk text and the stored vectors are already the ones
// the dense index serves.
type snapshotFile struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	BM25K1    float64        `json:"bm25_k1"`
	BM25B     float64        `json:"bm25_b"`
	Chunks    []domain.Chunk `json:"chunks"`
	Vectors   [][]float32    `json:"vectors"`
}

// Save writes the snapshot to path. The write goes through a temp file and
// rename so a crashed save never leaves a partial snapshot behind.
func Save(s *Snapshot, path string) error {
	file := snapshotFile{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		BM25K1:    s.sparse.k1,
		BM25B:     s.sparse.b,
		Chunks:    make([]domain.Chunk, 0, len(s.ordered)),
		Vectors:   s.dense.vecs,
	}
	for _, id := range s.ordered {
		file.Chunks = append(file.Chunks, s.chunks[id])
	}

	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("publish snapshot file: %w", err)
	}
	return nil
}

// Load reads a snapshot saved by Save and rebuilds its indices, preserving
// the original snapshot identity.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrSnapshotNotFound, "load snapshot", err)
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	snap, err := Build(file.Chunks, file.Vectors, BuildOptions{BM25K1: file.BM25K1, BM25B: file.BM25B})
	if err != nil {
		return nil, err
	}
	snap.ID = file.ID
	snap.CreatedAt = file.CreatedAt
	return snap, nil
}
