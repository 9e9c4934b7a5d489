package usecase

import (
	"strings"
	"unicode"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

// MetricInput carries everything a metric may score: the fused hits, the
// hits resolved to document URLs (same order), the labeled item and the
// generated answer (empty when generation is skipped).
type MetricInput struct {
	Hits    []domain.FusedHit
	HitURLs []string
	Item    domain.EvaluationItem
	Answer  string
}

// MetricFunc is a pure per-item scoring function.
type MetricFunc func(MetricInput) float64

// Metric names. MRR is mandatory; the rest are registered by default but
// the harness is agnostic to which metrics it carries.
const (
	MetricMRR      = "mrr"
	MetricRecall   = "recall_at_k"
	MetricAnswerF1 = "answer_token_f1"
)

// DefaultMetrics returns the standard registry.
func DefaultMetrics() map[string]MetricFunc {
	return map[string]MetricFunc{
		MetricMRR:      ReciprocalRankURL,
		MetricRecall:   RecallAtK,
		MetricAnswerF1: AnswerTokenF1,
	}
}

// ReciprocalRankURL computes the URL-level reciprocal rank: hits collapse to
// unique document URLs preserving first-occurrence order, and the score is
// 1/rank of the first gold URL, or 0 when no gold URL appears. Two chunks of
// the same gold document at hit ranks 3 and 5 score as URL-rank 3's URL.
func ReciprocalRankURL(in MetricInput) float64 {
	gold := make(map[string]bool, len(in.Item.GoldURLs))
	for _, u := range in.Item.GoldURLs {
		gold[u] = true
	}

	seen := make(map[string]bool)
	urlRank := 0
	for _, url := range in.HitURLs {
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		urlRank++
		if gold[url] {
			return 1 / float64(urlRank)
		}
	}
	return 0
}

// RecallAtK is 1 when any gold URL appears anywhere in the returned hits.
func RecallAtK(in MetricInput) float64 {
	for _, url := range in.HitURLs {
		for _, g := range in.Item.GoldURLs {
			if url == g {
				return 1
			}
		}
	}
	return 0
}

// AnswerTokenF1 scores lexical overlap between the generated and reference
// answers: harmonic mean of token precision and recall.
func AnswerTokenF1(in MetricInput) float64 {
	ref := answerTokens(in.Item.Answer)
	hyp := answerTokens(in.Answer)
	if len(ref) == 0 || len(hyp) == 0 {
		return 0
	}

	refCounts := make(map[string]int, len(ref))
	for _, t := range ref {
		refCounts[t]++
	}
	overlap := 0
	for _, t := range hyp {
		if refCounts[t] > 0 {
			refCounts[t]--
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}

	precision := float64(overlap) / float64(len(hyp))
	recall := float64(overlap) / float64(len(ref))
	return 2 * precision * recall / (precision + recall)
}

func answerTokens(s string) []string {
	if s == "" {
		return nil
	}
	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
