package usecase

import (
	"sort"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

// fuseRRF merges the dense and sparse rankings with weighted Reciprocal Rank
// Fusion: score(c) = wd/(k+rank_dense(c)) + ws/(k+rank_sparse(c)). A chunk
// absent from a branch simply contributes nothing for that branch. A branch
// weight of zero removes that branch entirely, so the remaining branch's
// ranking passes through unchanged.
func fuseRRF(dense, sparse []domain.RankedHit, rrfK int, denseWeight, sparseWeight float64) []domain.FusedHit {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]*domain.FusedHit, len(dense)+len(sparse))
	get := func(chunkID string) *domain.FusedHit {
		if hit, ok := acc[chunkID]; ok {
			return hit
		}
		hit := &domain.FusedHit{ChunkID: chunkID}
		acc[chunkID] = hit
		return hit
	}

	if denseWeight > 0 {
		for _, h := range dense {
			hit := get(h.ChunkID)
			hit.DenseRank = h.Rank
			hit.DenseScore = h.Score
			hit.Score += denseWeight / float64(rrfK+h.Rank)
		}
	}
	if sparseWeight > 0 {
		for _, h := range sparse {
			hit := get(h.ChunkID)
			hit.SparseRank = h.Rank
			hit.SparseScore = h.Score
			hit.Score += sparseWeight / float64(rrfK+h.Rank)
		}
	}

	out := make([]domain.FusedHit, 0, len(acc))
	for _, hit := range acc {
		out = append(out, *hit)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}

func truncateHits(hits []domain.FusedHit, limit int) []domain.FusedHit {
	if limit <= 0 || len(hits) <= limit {
		return hits
	}
	return hits[:limit]
}
