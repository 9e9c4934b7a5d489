package usecase

import (
	"context"
	"testing"

	"github.com/kmoroz/askcorpus/internal/core/domain"
	"github.com/kmoroz/askcorpus/internal/index"
)

// fixedEmbedder returns a constant query vector and errors on batch embeds.
type fixedEmbedder struct {
	vector []float32
	err    error
}

func (f *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, f.err
}

func (f *fixedEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return f.vector, f.err
}

// hybridFixture is the five-chunks-across-three-documents corpus: document A
// holds c1+c2, document B holds c3, document C holds c4+c5. The word
// "zephyr" appears only in c4; the embedding space puts c2 on the query
// direction and everything else orthogonal to it.
func hybridFixture(t *testing.T) *index.Holder {
	t.Helper()
	chunks := []domain.Chunk{
		{ID: "c1", DocumentID: "docA", SourceURL: "https://example.org/a", Text: "marble statues of antiquity"},
		{ID: "c2", DocumentID: "docA", SourceURL: "https://example.org/a", Text: "classical sculpture techniques"},
		{ID: "c3", DocumentID: "docB", SourceURL: "https://example.org/b", Text: "bronze casting methods"},
		{ID: "c4", DocumentID: "docC", SourceURL: "https://example.org/c", Text: "the zephyr winds of the aegean"},
		{ID: "c5", DocumentID: "docC", SourceURL: "https://example.org/c", Text: "mediterranean trade routes"},
	}
	vectors := [][]float32{
		{0, 1},
		{1, 0},
		{0, 1},
		{0, 1},
		{0, 1},
	}
	snap, err := index.Build(chunks, vectors, index.BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	holder := index.NewHolder()
	holder.Swap(snap)
	return holder
}

func TestRetrieveRejectsDisabledBranches(t *testing.T) {
	uc := NewRetrieveUseCase(hybridFixture(t), &fixedEmbedder{vector: []float32{1, 0}}, nil)

	cfg := domain.DefaultRetrievalConfig()
	cfg.DenseEnabled = false
	cfg.SparseEnabled = false
	_, err := uc.Retrieve(context.Background(), "q", cfg)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRetrieveRejectsNonPositiveDepths(t *testing.T) {
	uc := NewRetrieveUseCase(hybridFixture(t), &fixedEmbedder{vector: []float32{1, 0}}, nil)

	for name, mutate := range map[string]func(*domain.RetrievalConfig){
		"top_n":        func(c *domain.RetrievalConfig) { c.TopN = 0 },
		"rrf_k":        func(c *domain.RetrievalConfig) { c.RRFK = -1 },
		"dense_top_k":  func(c *domain.RetrievalConfig) { c.DenseTopK = 0 },
		"sparse_top_k": func(c *domain.RetrievalConfig) { c.SparseTopK = 0 },
	} {
		cfg := domain.DefaultRetrievalConfig()
		mutate(&cfg)
		if _, err := uc.Retrieve(context.Background(), "q", cfg); !domain.IsKind(err, domain.ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestRetrieveWithoutSnapshot(t *testing.T) {
	uc := NewRetrieveUseCase(index.NewHolder(), &fixedEmbedder{vector: []float32{1, 0}}, nil)
	_, err := uc.Retrieve(context.Background(), "q", domain.DefaultRetrievalConfig())
	if !domain.IsKind(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestRetrieveHybridTiedTopPositions(t *testing.T) {
	uc := NewRetrieveUseCase(hybridFixture(t), &fixedEmbedder{vector: []float32{1, 0}}, nil)

	cfg := domain.RetrievalConfig{
		DenseTopK:     1,
		SparseTopK:    1,
		TopN:          5,
		RRFK:          60,
		DenseWeight:   1,
		SparseWeight:  1,
		DenseEnabled:  true,
		SparseEnabled: true,
	}
	hits, err := uc.Retrieve(context.Background(), "zephyr", cfg)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}

	// c2 (dense rank 1) and c4 (sparse rank 1) tie at 1/61; chunk id
	// ascending puts c2 first.
	want := 1.0 / 61
	if hits[0].ChunkID != "c2" || hits[1].ChunkID != "c4" {
		t.Fatalf("expected c2 then c4, got %s then %s", hits[0].ChunkID, hits[1].ChunkID)
	}
	for i, h := range hits {
		if diff := h.Score - want; diff > 1e-12 || diff < -1e-12 {
			t.Fatalf("hit %d score = %v, want %v", i, h.Score, want)
		}
	}
}

func TestRetrieveSparseDisabledIsDensePassThrough(t *testing.T) {
	uc := NewRetrieveUseCase(hybridFixture(t), &fixedEmbedder{vector: []float32{1, 0}}, nil)

	cfg := domain.DefaultRetrievalConfig()
	cfg.SparseEnabled = false
	cfg.TopN = 3
	hits, err := uc.Retrieve(context.Background(), "anything", cfg)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "c2" {
		t.Fatalf("expected dense winner c2 first, got %s", hits[0].ChunkID)
	}
	for _, h := range hits {
		if h.SparseRank != 0 {
			t.Fatalf("sparse rank must be absent when branch disabled, got %d", h.SparseRank)
		}
	}
}

func TestRetrieveTruncatesToTopN(t *testing.T) {
	uc := NewRetrieveUseCase(hybridFixture(t), &fixedEmbedder{vector: []float32{1, 0}}, nil)

	cfg := domain.DefaultRetrievalConfig()
	cfg.TopN = 2
	hits, err := uc.Retrieve(context.Background(), "zephyr winds", cfg)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) > 2 {
		t.Fatalf("expected at most 2 hits, got %d", len(hits))
	}
}

func TestRetrieveDeterministicAcrossRuns(t *testing.T) {
	uc := NewRetrieveUseCase(hybridFixture(t), &fixedEmbedder{vector: []float32{1, 0}}, nil)

	cfg := domain.DefaultRetrievalConfig()
	first, err := uc.Retrieve(context.Background(), "zephyr trade sculpture", cfg)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	second, err := uc.Retrieve(context.Background(), "zephyr trade sculpture", cfg)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("result lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("hit %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
