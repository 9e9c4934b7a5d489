package index

import (
	"testing"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

func sparseTestChunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "c1", DocumentID: "d1", SourceURL: "https://example.org/a", Text: "stoicism teaches virtue and reason"},
		{ID: "c2", DocumentID: "d1", SourceURL: "https://example.org/a", Text: "virtue is the only good in stoic ethics"},
		{ID: "c3", DocumentID: "d2", SourceURL: "https://example.org/b", Text: "quantum mechanics describes subatomic particles"},
		{ID: "c4", DocumentID: "d3", SourceURL: "https://example.org/c", Text: "the stoic school was founded by zeno"},
	}
}

func TestBuildSparseEmptyCorpus(t *testing.T) {
	_, err := BuildSparse(nil, 0, 0)
	if err == nil {
		t.Fatalf("expected error for empty corpus")
	}
	if !domain.IsKind(err, domain.ErrIndexBuild) {
		t.Fatalf("expected ErrIndexBuild, got %v", err)
	}
}

func TestSparseSearchReturnsEveryChunkAtFullDepth(t *testing.T) {
	chunks := sparseTestChunks()
	idx, err := BuildSparse(chunks, 0, 0)
	if err != nil {
		t.Fatalf("BuildSparse() error = %v", err)
	}

	// Every chunk shares at least one term with this query corpus-wide.
	hits := idx.Search("stoicism virtue quantum zeno stoic ethics particles reason", len(chunks))
	if len(hits) != len(chunks) {
		t.Fatalf("expected %d hits, got %d", len(chunks), len(hits))
	}
	seen := make(map[string]bool)
	for i, h := range hits {
		if h.Rank != i+1 {
			t.Fatalf("hit %d has rank %d", i, h.Rank)
		}
		if seen[h.ChunkID] {
			t.Fatalf("chunk %s returned twice", h.ChunkID)
		}
		seen[h.ChunkID] = true
	}
}

func TestSparseSearchOrderedByScoreThenID(t *testing.T) {
	idx, err := BuildSparse(sparseTestChunks(), 0, 0)
	if err != nil {
		t.Fatalf("BuildSparse() error = %v", err)
	}

	hits := idx.Search("stoic virtue", 10)
	if len(hits) == 0 {
		t.Fatalf("expected hits")
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Fatalf("scores not non-increasing at %d: %f > %f", i, hits[i].Score, hits[i-1].Score)
		}
		if hits[i].Score == hits[i-1].Score && hits[i].ChunkID < hits[i-1].ChunkID {
			t.Fatalf("tie at %d not broken by chunk id ascending", i)
		}
	}
}

func TestSparseSearchDeterministic(t *testing.T) {
	idx, err := BuildSparse(sparseTestChunks(), 0, 0)
	if err != nil {
		t.Fatalf("BuildSparse() error = %v", err)
	}

	first := idx.Search("stoic virtue reason", 4)
	second := idx.Search("stoic virtue reason", 4)
	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("run %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSparseSearchNoMatchReturnsEmpty(t *testing.T) {
	idx, err := BuildSparse(sparseTestChunks(), 0, 0)
	if err != nil {
		t.Fatalf("BuildSparse() error = %v", err)
	}

	hits := idx.Search("xylophone zeppelin", 5)
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestSparseTieBreakByChunkID(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: "b", DocumentID: "d1", Text: "alpha beta"},
		{ID: "a", DocumentID: "d2", Text: "alpha beta"},
	}
	idx, err := BuildSparse(chunks, 0, 0)
	if err != nil {
		t.Fatalf("BuildSparse() error = %v", err)
	}

	hits := idx.Search("alpha", 2)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "a" || hits[1].ChunkID != "b" {
		t.Fatalf("tie not broken by chunk id: got %s, %s", hits[0].ChunkID, hits[1].ChunkID)
	}
}

func TestTokenizeFoldsCaseAndPunctuation(t *testing.T) {
	tokens := tokenize("Stoicism, per Zeno's school (c. 300 BC)!")
	want := []string{"stoicism", "per", "zeno", "s", "school", "c", "300", "bc"}
	if len(tokens) != len(want) {
		t.Fatalf("got %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("token %d = %q, want %q", i, tokens[i], want[i])
		}
	}
}
