package domain

// RankedHit is the output of a single retrieval branch. Rank is 1-based and
// strictly increasing by decreasing score; ties break by chunk id ascending.
type RankedHit struct {
	ChunkID string  `json:"chunk_id"`
	Rank    int     `json:"rank"`
	Score   float64 `json:"score"`
}

// FusedHit is one entry of the merged ranking. A branch rank of 0 means the
// chunk was absent from that branch's list.
type FusedHit struct {
	ChunkID     string  `json:"chunk_id"`
	Score       float64 `json:"score"`
	DenseRank   int     `json:"dense_rank,omitempty"`
	SparseRank  int     `json:"sparse_rank,omitempty"`
	DenseScore  float64 `json:"dense_score,omitempty"`
	SparseScore float64 `json:"sparse_score,omitempty"`
}

// RetrievalConfig controls one retrieve call. Setting a branch weight to zero
// drops that branch from fusion, which is how the ablation study produces
// single-branch rankings without a second code path.
type RetrievalConfig struct {
	DenseTopK     int     `json:"dense_top_k" yaml:"dense_top_k"`
	SparseTopK    int     `json:"sparse_top_k" yaml:"sparse_top_k"`
	TopN          int     `json:"top_n" yaml:"top_n"`
	RRFK          int     `json:"rrf_k" yaml:"rrf_k"`
	DenseWeight   float64 `json:"dense_weight" yaml:"dense_weight"`
	SparseWeight  float64 `json:"sparse_weight" yaml:"sparse_weight"`
	DenseEnabled  bool    `json:"dense_enabled" yaml:"dense_enabled"`
	SparseEnabled bool    `json:"sparse_enabled" yaml:"sparse_enabled"`
}

// DefaultRetrievalConfig is the equal-weight hybrid setup with the standard
// RRF constant.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		DenseTopK:     100,
		SparseTopK:    100,
		TopN:          5,
		RRFK:          60,
		DenseWeight:   1.0,
		SparseWeight:  1.0,
		DenseEnabled:  true,
		SparseEnabled: true,
	}
}

// Validate rejects configurations before any retrieval work begins.
func (c RetrievalConfig) Validate() error {
	if !c.DenseEnabled && !c.SparseEnabled {
		return WrapError(ErrInvalidConfig, "validate retrieval config", errBothBranchesDisabled)
	}
	if c.TopN <= 0 {
		return WrapError(ErrInvalidConfig, "validate retrieval config", errNonPositive("top_n", c.TopN))
	}
	if c.RRFK <= 0 {
		return WrapError(ErrInvalidConfig, "validate retrieval config", errNonPositive("rrf_k", c.RRFK))
	}
	if c.DenseEnabled && c.DenseTopK <= 0 {
		return WrapError(ErrInvalidConfig, "validate retrieval config", errNonPositive("dense_top_k", c.DenseTopK))
	}
	if c.SparseEnabled && c.SparseTopK <= 0 {
		return WrapError(ErrInvalidConfig, "validate retrieval config", errNonPositive("sparse_top_k", c.SparseTopK))
	}
	if c.DenseWeight < 0 || c.SparseWeight < 0 {
		return WrapError(ErrInvalidConfig, "validate retrieval config", errNegativeWeight)
	}
	return nil
}

// NamedConfig pairs a retrieval configuration with a stable identifier so
// evaluation results can be keyed by the configuration that produced them.
type NamedConfig struct {
	ID        string          `json:"id" yaml:"id"`
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval"`
}

// Answer is the generation-step output returned to API callers.
type Answer struct {
	Text    string     `json:"text"`
	Sources []FusedHit `json:"sources"`
}
