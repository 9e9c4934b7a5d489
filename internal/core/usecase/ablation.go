package usecase

import "github.com/kmoroz/askcorpus/internal/core/domain"

// DefaultAblationMatrix mirrors the standard comparison set: each single
// branch alone, then equal-weight hybrids across RRF constants. Every
// variant goes through the same retrieval engine; single-branch runs are
// expressed purely through weights and branch toggles.
func DefaultAblationMatrix(base domain.RetrievalConfig) []domain.NamedConfig {
	denseOnly := base
	denseOnly.SparseEnabled = false
	denseOnly.SparseWeight = 0

	sparseOnly := base
	sparseOnly.DenseEnabled = false
	sparseOnly.DenseWeight = 0

	hybrid := func(k int) domain.RetrievalConfig {
		cfg := base
		cfg.DenseEnabled = true
		cfg.SparseEnabled = true
		cfg.DenseWeight = 1
		cfg.SparseWeight = 1
		cfg.RRFK = k
		return cfg
	}

	return []domain.NamedConfig{
		{ID: "hybrid_k60", Retrieval: hybrid(60)},
		{ID: "dense_only", Retrieval: denseOnly},
		{ID: "sparse_only", Retrieval: sparseOnly},
		{ID: "hybrid_k30", Retrieval: hybrid(30)},
		{ID: "hybrid_k100", Retrieval: hybrid(100)},
	}
}

// AblationRow compares one configuration against the run's baseline.
type AblationRow struct {
	ConfigID string
	Metrics  map[string]float64
	Deltas   map[string]float64
}

// AblationDeltas reports per-metric differences of every configuration
// against the first configuration in the report (the baseline).
func AblationDeltas(report *domain.EvaluationReport) []AblationRow {
	if report == nil || len(report.Configs) == 0 {
		return nil
	}
	baseline := report.Configs[0].Aggregates

	rows := make([]AblationRow, 0, len(report.Configs))
	for _, cfg := range report.Configs {
		row := AblationRow{
			ConfigID: cfg.ConfigID,
			Metrics:  cfg.Aggregates,
			Deltas:   make(map[string]float64, len(cfg.Aggregates)),
		}
		for name, value := range cfg.Aggregates {
			row.Deltas[name] = value - baseline[name]
		}
		rows = append(rows, row)
	}
	return rows
}
