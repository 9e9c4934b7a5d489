package usecase

import "github.com/kmoroz/askcorpus/internal/core/domain"

// answerMatchThreshold is the token-F1 floor below which a generated answer
// counts as a mismatch despite correct retrieval.
const answerMatchThreshold = 0.2

// ClassifyResult buckets one scored item into a failure category. It is a
// total function over the per-item data: every input maps to exactly one
// category and it never errors.
//
// Categories, checked in order:
//   - no gold URL anywhere in the hits
//   - gold URL retrieved but not at URL-rank 1
//   - correct retrieval but the generated answer judged incorrect
//   - success
func ClassifyResult(hitURLs, goldURLs []string, answerF1 float64, generated bool) domain.FailureCategory {
	gold := make(map[string]bool, len(goldURLs))
	for _, u := range goldURLs {
		gold[u] = true
	}

	seen := make(map[string]bool)
	goldRank := 0
	urlRank := 0
	for _, url := range hitURLs {
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		urlRank++
		if gold[url] {
			goldRank = urlRank
			break
		}
	}

	switch {
	case goldRank == 0:
		return domain.FailureNoGoldURL
	case goldRank > 1:
		return domain.FailureLowRank
	case generated && answerF1 < answerMatchThreshold:
		return domain.FailureGenerationMismatch
	default:
		return domain.FailureNone
	}
}

// FailureBreakdown counts items per failure category for one configuration.
func FailureBreakdown(result domain.ConfigResult) map[domain.FailureCategory]int {
	out := make(map[domain.FailureCategory]int)
	for _, item := range result.Items {
		category := item.Failure
		if category == "" {
			category = domain.FailureNone
		}
		out[category]++
	}
	return out
}
