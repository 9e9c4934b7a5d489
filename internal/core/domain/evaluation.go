package domain

import "time"

// EvaluationItem is one labeled question. GoldURLs references document
// source URLs against which retrieval is judged and must be non-empty for
// the item to be scorable.
type EvaluationItem struct {
	QuestionID string   `json:"question_id" yaml:"question_id"`
	Question   string   `json:"question" yaml:"question"`
	Answer     string   `json:"answer" yaml:"answer"`
	GoldURLs   []string `json:"urls" yaml:"urls"`
	Category   string   `json:"category" yaml:"category"`
}

// Outcome classifies how a single retrieve call ended for one item.
type Outcome string

const (
	OutcomeScored  Outcome = "scored"
	OutcomeFailed  Outcome = "failed"
	OutcomeTimeout Outcome = "timeout"
)

// FailureCategory buckets failed items for error analysis.
type FailureCategory string

const (
	FailureNone               FailureCategory = "success"
	FailureNoGoldURL          FailureCategory = "no_gold_url_retrieved"
	FailureLowRank            FailureCategory = "low_rank_retrieval"
	FailureGenerationMismatch FailureCategory = "generation_mismatch"
)

// ItemResult holds per-question outcomes for one configuration.
type ItemResult struct {
	QuestionID string             `json:"question_id"`
	ConfigID   string             `json:"config_id"`
	Outcome    Outcome            `json:"outcome"`
	Failure    FailureCategory    `json:"failure,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
	Hits       []FusedHit         `json:"hits,omitempty"`
	HitURLs    []string           `json:"hit_urls,omitempty"`
	Answer     string             `json:"answer,omitempty"`
	Latency    time.Duration      `json:"latency_ns"`
	Err        string             `json:"error,omitempty"`
}

// ConfigResult aggregates one configuration over the whole item set.
type ConfigResult struct {
	ConfigID   string             `json:"config_id"`
	Retrieval  RetrievalConfig    `json:"retrieval"`
	Items      []ItemResult       `json:"items"`
	Aggregates map[string]float64 `json:"aggregates"`
}

// EvaluationReport is created fresh per run and never merged across runs.
type EvaluationReport struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration_ns"`
	NumItems  int            `json:"num_items"`
	Configs   []ConfigResult `json:"configs"`
}

// MetricRow is the persisted form of one metric value:
// (question, configuration, metric) -> value within a run.
type MetricRow struct {
	RunID      string  `json:"run_id"`
	QuestionID string  `json:"question_id"`
	ConfigID   string  `json:"config_id"`
	MetricName string  `json:"metric_name"`
	Value      float64 `json:"value"`
}

// Config returns the result block for one configuration id, or nil.
func (r *EvaluationReport) Config(id string) *ConfigResult {
	for i := range r.Configs {
		if r.Configs[i].ConfigID == id {
			return &r.Configs[i]
		}
	}
	return nil
}
