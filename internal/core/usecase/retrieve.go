package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kmoroz/askcorpus/internal/core/domain"
	"github.com/kmoroz/askcorpus/internal/core/ports"
	"github.com/kmoroz/askcorpus/internal/index"
)

// BranchObserver receives per-branch search latencies. Implementations must
// be safe for concurrent use.
type BranchObserver interface {
	ObserveBranch(branch string, seconds float64)
}

// RetrieveUseCase is the single entry point for hybrid retrieval. The two
// branches are pure reads against an immutable snapshot and run
// concurrently; results join before fusion.
type RetrieveUseCase struct {
	holder   *index.Holder
	embedder ports.Embedder
	observer BranchObserver
}

func NewRetrieveUseCase(holder *index.Holder, embedder ports.Embedder, observer BranchObserver) *RetrieveUseCase {
	return &RetrieveUseCase{
		holder:   holder,
		embedder: embedder,
		observer: observer,
	}
}

type branchResult struct {
	hits []domain.RankedHit
	err  error
}

// Retrieve fans the query out to the enabled branches, fuses the rankings
// and truncates to the configured depth. A disabled branch contributes an
// empty list, degrading fusion to a pass-through of the other branch.
func (uc *RetrieveUseCase) Retrieve(ctx context.Context, query string, cfg domain.RetrievalConfig) ([]domain.FusedHit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	snap, err := uc.holder.Current()
	if err != nil {
		return nil, err
	}

	denseCh := make(chan branchResult, 1)
	sparseCh := make(chan branchResult, 1)

	if cfg.DenseEnabled {
		go func() {
			start := time.Now()
			hits, err := uc.searchDense(ctx, snap, query, cfg.DenseTopK)
			uc.observe("dense", start)
			denseCh <- branchResult{hits: hits, err: err}
		}()
	} else {
		denseCh <- branchResult{}
	}

	if cfg.SparseEnabled {
		go func() {
			start := time.Now()
			hits := snap.SearchSparse(query, cfg.SparseTopK)
			uc.observe("sparse", start)
			sparseCh <- branchResult{hits: hits}
		}()
	} else {
		sparseCh <- branchResult{}
	}

	dense := <-denseCh
	sparse := <-sparseCh
	if dense.err != nil {
		return nil, fmt.Errorf("dense branch: %w", dense.err)
	}
	if sparse.err != nil {
		return nil, fmt.Errorf("sparse branch: %w", sparse.err)
	}

	fused := fuseRRF(dense.hits, sparse.hits, cfg.RRFK, cfg.DenseWeight, cfg.SparseWeight)
	return truncateHits(fused, cfg.TopN), nil
}

// Snapshot exposes the serving snapshot for callers that need the
// chunk-to-document mapping, such as the evaluation harness.
func (uc *RetrieveUseCase) Snapshot() (*index.Snapshot, error) {
	return uc.holder.Current()
}

func (uc *RetrieveUseCase) searchDense(ctx context.Context, snap *index.Snapshot, query string, topK int) ([]domain.RankedHit, error) {
	vector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return snap.SearchDense(vector, topK)
}

func (uc *RetrieveUseCase) observe(branch string, start time.Time) {
	if uc.observer != nil {
		uc.observer.ObserveBranch(branch, time.Since(start).Seconds())
	}
}
