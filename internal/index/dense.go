package index

import (
	"errors"
	"fmt"
	"math"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

// DenseIndex is a flat nearest-neighbour index over chunk embeddings.
// Vectors are L2-normalized at build time so cosine similarity reduces to a
// dot product, mirroring an inner-product index over normalized embeddings.
type DenseIndex struct {
	dim  int
	ids  []string
	vecs [][]float32
}

// BuildDense stores one vector per chunk. Inconsistent dimensions across
// chunks are a build error.
func BuildDense(chunks []domain.Chunk, vectors [][]float32) (*DenseIndex, error) {
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrIndexBuild, "build dense index", errors.New("empty chunk sequence"))
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(domain.ErrIndexBuild, "build dense index",
			fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, domain.WrapError(domain.ErrIndexBuild, "build dense index", errors.New("zero-length embedding"))
	}

	idx := &DenseIndex{
		dim:  dim,
		ids:  make([]string, 0, len(chunks)),
		vecs: make([][]float32, 0, len(chunks)),
	}
	for i, c := range chunks {
		if len(vectors[i]) != dim {
			return nil, domain.WrapError(domain.ErrIndexBuild, "build dense index",
				fmt.Errorf("chunk %q embedding has dimension %d, want %d", c.ID, len(vectors[i]), dim))
		}
		idx.ids = append(idx.ids, c.ID)
		idx.vecs = append(idx.vecs, normalize(vectors[i]))
	}
	return idx, nil
}

// Dimension reports the embedding width the index was built with.
func (d *DenseIndex) Dimension() int { return d.dim }

// Search scores every stored vector by cosine similarity against the query
// vector and returns the topK by score descending, ties by chunk id
// ascending. A query vector of the wrong width is an embedding mismatch.
func (d *DenseIndex) Search(queryVector []float32, topK int) ([]domain.RankedHit, error) {
	if len(queryVector) != d.dim {
		return nil, domain.WrapError(domain.ErrEmbeddingDimension, "dense search",
			fmt.Errorf("query vector has dimension %d, index built with %d", len(queryVector), d.dim))
	}
	if topK <= 0 {
		return nil, nil
	}

	q := normalize(queryVector)
	scores := make(map[string]float64, len(d.ids))
	for i, id := range d.ids {
		scores[id] = dot(q, d.vecs[i])
	}
	return rankHits(scores, topK), nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
