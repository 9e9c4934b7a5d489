package usecase

import (
	"context"
	"fmt"

	"github.com/kmoroz/askcorpus/internal/core/domain"
	"github.com/kmoroz/askcorpus/internal/core/ports"
)

// AnswerUseCase runs retrieval and hands the top passages to the generation
// model. The generator is an external collaborator: this use case only
// assembles its context window.
type AnswerUseCase struct {
	retriever       *RetrieveUseCase
	generator       ports.AnswerGenerator
	defaults        domain.RetrievalConfig
	maxContextChars int
}

func NewAnswerUseCase(retriever *RetrieveUseCase, generator ports.AnswerGenerator, defaults domain.RetrievalConfig, maxContextChars int) *AnswerUseCase {
	if maxContextChars <= 0 {
		maxContextChars = 2000
	}
	return &AnswerUseCase{
		retriever:       retriever,
		generator:       generator,
		defaults:        defaults,
		maxContextChars: maxContextChars,
	}
}

// Ask retrieves topN passages for the question and generates an answer from
// them. topN <= 0 falls back to the configured default depth.
func (uc *AnswerUseCase) Ask(ctx context.Context, question string, topN int) (*domain.Answer, error) {
	cfg := uc.defaults
	if topN > 0 {
		cfg.TopN = topN
	}

	hits, err := uc.retriever.Retrieve(ctx, question, cfg)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	snap, err := uc.retriever.Snapshot()
	if err != nil {
		return nil, err
	}

	passages := make([]string, 0, len(hits))
	budget := uc.maxContextChars
	for _, h := range hits {
		chunk, ok := snap.Chunk(h.ChunkID)
		if !ok {
			continue
		}
		text := chunk.Text
		if len(text) > budget {
			text = text[:budget]
		}
		passages = append(passages, text)
		budget -= len(text)
		if budget <= 0 {
			break
		}
	}

	text, err := uc.generator.GenerateAnswer(ctx, question, passages)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{Text: text, Sources: hits}, nil
}
