package usecase

import (
	"testing"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

func TestClassifyResultNoGoldURL(t *testing.T) {
	got := ClassifyResult([]string{"A", "B"}, []string{"Z"}, 1, true)
	if got != domain.FailureNoGoldURL {
		t.Fatalf("ClassifyResult() = %s, want %s", got, domain.FailureNoGoldURL)
	}
}

func TestClassifyResultLowRank(t *testing.T) {
	got := ClassifyResult([]string{"A", "G"}, []string{"G"}, 1, true)
	if got != domain.FailureLowRank {
		t.Fatalf("ClassifyResult() = %s, want %s", got, domain.FailureLowRank)
	}
}

func TestClassifyResultLowRankCountsUniqueURLs(t *testing.T) {
	// Duplicate leading URLs collapse, so the gold document sits at
	// URL-rank 2 and the item is rank-degraded, not a miss.
	got := ClassifyResult([]string{"A", "A", "G"}, []string{"G"}, 1, true)
	if got != domain.FailureLowRank {
		t.Fatalf("ClassifyResult() = %s, want %s", got, domain.FailureLowRank)
	}
}

func TestClassifyResultGenerationMismatch(t *testing.T) {
	got := ClassifyResult([]string{"G", "A"}, []string{"G"}, 0.05, true)
	if got != domain.FailureGenerationMismatch {
		t.Fatalf("ClassifyResult() = %s, want %s", got, domain.FailureGenerationMismatch)
	}
}

func TestClassifyResultSuccessWithoutGeneration(t *testing.T) {
	// With no generation step a top-ranked retrieval is a success whatever
	// the answer score says.
	got := ClassifyResult([]string{"G"}, []string{"G"}, 0, false)
	if got != domain.FailureNone {
		t.Fatalf("ClassifyResult() = %s, want %s", got, domain.FailureNone)
	}
}

func TestClassifyResultTotalOnDegenerateInput(t *testing.T) {
	// Classification must never fail, whatever the inputs look like.
	inputs := []struct {
		hits []string
		gold []string
	}{
		{nil, nil},
		{nil, []string{"G"}},
		{[]string{""}, []string{"G"}},
		{[]string{"G"}, nil},
	}
	for i, in := range inputs {
		if got := ClassifyResult(in.hits, in.gold, 0, false); got == "" {
			t.Fatalf("case %d: empty category", i)
		}
	}
}

func TestFailureBreakdownCounts(t *testing.T) {
	result := domain.ConfigResult{Items: []domain.ItemResult{
		{Failure: domain.FailureNone},
		{Failure: domain.FailureNoGoldURL},
		{Failure: domain.FailureNoGoldURL},
		{Failure: domain.FailureLowRank},
		{},
	}}
	counts := FailureBreakdown(result)
	if counts[domain.FailureNone] != 2 {
		t.Fatalf("success count = %d, want 2", counts[domain.FailureNone])
	}
	if counts[domain.FailureNoGoldURL] != 2 || counts[domain.FailureLowRank] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
