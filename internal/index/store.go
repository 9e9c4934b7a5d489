package index

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

// Snapshot is an immutable, fully built pairing of chunk store, sparse index
// and dense index as of one corpus build. Readers never observe a partially
// built snapshot: Build returns only complete snapshots and Holder swaps the
// pointer atomically.
type Snapshot struct {
	ID        string
	CreatedAt time.Time

	chunks  map[string]domain.Chunk
	docs    map[string]domain.Document
	ordered []string

	sparse *SparseIndex
	dense  *DenseIndex
}

// BuildOptions tunes index construction. Zero values fall back to the
// standard BM25 constants.
type BuildOptions struct {
	BM25K1 float64
	BM25B  float64
}

// Build constructs a complete snapshot from a chunk sequence and its
// pre-computed embeddings. vectors[i] must correspond to chunks[i].
func Build(chunks []domain.Chunk, vectors [][]float32, opts BuildOptions) (*Snapshot, error) {
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrIndexBuild, "build snapshot", errors.New("empty chunk sequence"))
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(domain.ErrIndexBuild, "build snapshot",
			fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	byID := make(map[string]domain.Chunk, len(chunks))
	docs := make(map[string]domain.Document)
	ordered := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.ID == "" {
			return nil, domain.WrapError(domain.ErrIndexBuild, "build snapshot", errors.New("chunk with empty id"))
		}
		if _, dup := byID[c.ID]; dup {
			return nil, domain.WrapError(domain.ErrIndexBuild, "build snapshot",
				fmt.Errorf("duplicate chunk id %q", c.ID))
		}
		byID[c.ID] = c
		ordered = append(ordered, c.ID)

		doc := docs[c.DocumentID]
		doc.ID = c.DocumentID
		doc.SourceURL = c.SourceURL
		doc.Title = c.Title
		doc.ChunkIDs = append(doc.ChunkIDs, c.ID)
		docs[c.DocumentID] = doc
	}

	sparse, err := BuildSparse(chunks, opts.BM25K1, opts.BM25B)
	if err != nil {
		return nil, err
	}
	dense, err := BuildDense(chunks, vectors)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		chunks:    byID,
		docs:      docs,
		ordered:   ordered,
		sparse:    sparse,
		dense:     dense,
	}, nil
}

// Len reports the number of chunks in the snapshot.
func (s *Snapshot) Len() int { return len(s.ordered) }

// Chunk returns a chunk by id.
func (s *Snapshot) Chunk(id string) (domain.Chunk, bool) {
	c, ok := s.chunks[id]
	return c, ok
}

// URLByChunk maps a chunk id to its owning document's source URL. Unknown
// ids map to the empty string.
func (s *Snapshot) URLByChunk(id string) string {
	return s.chunks[id].SourceURL
}

// Documents returns the snapshot's documents sorted by id.
func (s *Snapshot) Documents() []domain.Document {
	out := make([]domain.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SearchSparse runs the BM25 branch.
func (s *Snapshot) SearchSparse(query string, topK int) []domain.RankedHit {
	return s.sparse.Search(query, topK)
}

// SearchDense runs the cosine branch against a query vector produced by the
// embedder the snapshot was built with.
func (s *Snapshot) SearchDense(queryVector []float32, topK int) ([]domain.RankedHit, error) {
	return s.dense.Search(queryVector, topK)
}

// Dimension reports the embedding width of the dense index.
func (s *Snapshot) Dimension() int { return s.dense.Dimension() }

// Holder publishes the serving snapshot. Swap is atomic with respect to
// Current; the old snapshot stays valid for readers still holding it.
type Holder struct {
	mu   sync.RWMutex
	snap *Snapshot
}

func NewHolder() *Holder { return &Holder{} }

// Swap replaces the serving snapshot with a fully built one.
func (h *Holder) Swap(s *Snapshot) {
	h.mu.Lock()
	h.snap = s
	h.mu.Unlock()
}

// Current returns the serving snapshot.
func (h *Holder) Current() (*Snapshot, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.snap == nil {
		return nil, domain.WrapError(domain.ErrSnapshotNotFound, "current snapshot", errors.New("no snapshot built yet"))
	}
	return h.snap, nil
}
