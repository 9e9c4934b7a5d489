package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

// Loader reads the chunked corpus from a JSON file. It implements
// ports.ChunkSource for the snapshot rebuild path.
type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

func (l *Loader) LoadChunks(_ context.Context) ([]domain.Chunk, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", l.path, err)
	}

	var chunks []domain.Chunk
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", l.path, err)
	}
	return chunks, nil
}

// LoadQuestions reads a YAML question set. Each record carries the question,
// its reference answer, and the gold source URLs retrieval is judged against.
func LoadQuestions(path string) ([]domain.EvaluationItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question set %s: %w", path, err)
	}

	var items []domain.EvaluationItem
	if err := yaml.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse question set %s: %w", path, err)
	}
	for i, item := range items {
		if item.QuestionID == "" {
			return nil, fmt.Errorf("question set %s: record %d has no question_id", path, i)
		}
		if item.Question == "" {
			return nil, fmt.Errorf("question set %s: %s has no question text", path, item.QuestionID)
		}
	}
	return items, nil
}

// LoadMatrix reads a YAML ablation matrix: a list of named retrieval
// configurations. The first entry is the baseline deltas are computed
// against. Every configuration is validated up front so a bad matrix
// fails before any retrieval runs.
func LoadMatrix(path string) ([]domain.NamedConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ablation matrix %s: %w", path, err)
	}

	var configs []domain.NamedConfig
	if err := yaml.Unmarshal(raw, &configs); err != nil {
		return nil, fmt.Errorf("parse ablation matrix %s: %w", path, err)
	}
	if len(configs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "load matrix", fmt.Errorf("matrix %s is empty", path))
	}

	seen := make(map[string]struct{}, len(configs))
	for _, cfg := range configs {
		if cfg.ID == "" {
			return nil, domain.WrapError(domain.ErrInvalidConfig, "load matrix", fmt.Errorf("matrix %s: config without id", path))
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, domain.WrapError(domain.ErrInvalidConfig, "load matrix", fmt.Errorf("matrix %s: duplicate config id %s", path, cfg.ID))
		}
		seen[cfg.ID] = struct{}{}
		if err := cfg.Retrieval.Validate(); err != nil {
			return nil, fmt.Errorf("matrix %s: config %s: %w", path, cfg.ID, err)
		}
	}
	return configs, nil
}
