package index

import (
	"path/filepath"
	"testing"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

func buildTestSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	chunks := []domain.Chunk{
		{ID: "c1", DocumentID: "d1", SourceURL: "https://example.org/a", Title: "A", Text: "stoicism teaches virtue", TokenCount: 3},
		{ID: "c2", DocumentID: "d1", SourceURL: "https://example.org/a", Title: "A", Text: "virtue is the only good", TokenCount: 5},
		{ID: "c3", DocumentID: "d2", SourceURL: "https://example.org/b", Title: "B", Text: "quantum particles interact", TokenCount: 3},
	}
	vectors := [][]float32{{1, 0}, {0.8, 0.2}, {0, 1}}
	snap, err := Build(chunks, vectors, BuildOptions{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return snap
}

func TestBuildRejectsDuplicateChunkIDs(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Text: "a"},
		{ID: "c1", DocumentID: "d1", Text: "b"},
	}
	_, err := Build(chunks, [][]float32{{1}, {1}}, BuildOptions{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrIndexBuild) {
		t.Fatalf("expected ErrIndexBuild, got %v", err)
	}
}

func TestSnapshotURLByChunk(t *testing.T) {
	snap := buildTestSnapshot(t)
	if url := snap.URLByChunk("c2"); url != "https://example.org/a" {
		t.Fatalf("URLByChunk(c2) = %q", url)
	}
	if url := snap.URLByChunk("missing"); url != "" {
		t.Fatalf("expected empty url for unknown chunk, got %q", url)
	}
}

func TestSnapshotDocumentsGroupChunksInOrder(t *testing.T) {
	snap := buildTestSnapshot(t)
	docs := snap.Documents()
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "d1" || len(docs[0].ChunkIDs) != 2 {
		t.Fatalf("unexpected first document: %+v", docs[0])
	}
	if docs[0].ChunkIDs[0] != "c1" || docs[0].ChunkIDs[1] != "c2" {
		t.Fatalf("chunk order not preserved: %v", docs[0].ChunkIDs)
	}
}

func TestSnapshotSaveLoadRoundTrip(t *testing.T) {
	snap := buildTestSnapshot(t)
	path := filepath.Join(t.TempDir(), "snapshot.json")

	if err := Save(snap, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.ID != snap.ID {
		t.Fatalf("snapshot id changed on load: %s vs %s", loaded.ID, snap.ID)
	}
	if loaded.Len() != snap.Len() {
		t.Fatalf("chunk count changed: %d vs %d", loaded.Len(), snap.Len())
	}

	wantSparse := snap.SearchSparse("virtue stoicism", 3)
	gotSparse := loaded.SearchSparse("virtue stoicism", 3)
	if len(wantSparse) != len(gotSparse) {
		t.Fatalf("sparse result count differs after reload")
	}
	for i := range wantSparse {
		if wantSparse[i] != gotSparse[i] {
			t.Fatalf("sparse hit %d differs: %+v vs %+v", i, wantSparse[i], gotSparse[i])
		}
	}

	wantDense, err := snap.SearchDense([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("SearchDense() error = %v", err)
	}
	gotDense, err := loaded.SearchDense([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("SearchDense() after load error = %v", err)
	}
	for i := range wantDense {
		if wantDense[i].ChunkID != gotDense[i].ChunkID || wantDense[i].Rank != gotDense[i].Rank {
			t.Fatalf("dense hit %d differs: %+v vs %+v", i, wantDense[i], gotDense[i])
		}
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestHolderSwapAndCurrent(t *testing.T) {
	holder := NewHolder()
	if _, err := holder.Current(); !domain.IsKind(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound before first swap, got %v", err)
	}

	snap := buildTestSnapshot(t)
	holder.Swap(snap)
	current, err := holder.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if current.ID != snap.ID {
		t.Fatalf("holder serves wrong snapshot")
	}
}
