package index

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/kmoroz/askcorpus/internal/core/domain"
)

const (
	defaultBM25K1 = 1.5
	defaultBM25B  = 0.75
)

type posting struct {
	ChunkID string `json:"chunk_id"`
	TF      int    `json:"tf"`
}

// SparseIndex is an inverted index scoring chunks with BM25. Queries are
// tokenized identically to indexed text.
type SparseIndex struct {
	k1 float64
	b  float64

	postings map[string][]posting
	docLen   map[string]int
	avgLen   float64
	numDocs  int
}

// BuildSparse tokenizes every chunk's text and builds term posting lists
// plus the length statistics BM25 needs. An empty chunk sequence is a build
// error, never a silent empty index.
func BuildSparse(chunks []domain.Chunk, k1, b float64) (*SparseIndex, error) {
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrIndexBuild, "build sparse index", errors.New("empty chunk sequence"))
	}
	if k1 <= 0 {
		k1 = defaultBM25K1
	}
	if b <= 0 {
		b = defaultBM25B
	}

	idx := &SparseIndex{
		k1:       k1,
		b:        b,
		postings: make(map[string][]posting),
		docLen:   make(map[string]int, len(chunks)),
	}

	var totalLen int
	for _, c := range chunks {
		tokens := tokenize(c.Text)
		idx.docLen[c.ID] = len(tokens)
		totalLen += len(tokens)

		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		for term, freq := range tf {
			idx.postings[term] = append(idx.postings[term], posting{ChunkID: c.ID, TF: freq})
		}
	}
	idx.numDocs = len(chunks)
	idx.avgLen = float64(totalLen) / float64(len(chunks))

	// Posting order is not relied on for scoring, but a sorted order keeps
	// the persisted snapshot byte-stable across rebuilds of the same corpus.
	for term := range idx.postings {
		list := idx.postings[term]
		sort.Slice(list, func(i, j int) bool { return list[i].ChunkID < list[j].ChunkID })
		idx.postings[term] = list
	}
	return idx, nil
}

// Search scores candidate chunks with BM25 and returns the topK by score
// descending, ties broken by chunk id ascending. A query matching no indexed
// term returns an empty list, not an error.
func (s *SparseIndex) Search(query string, topK int) []domain.RankedHit {
	if topK <= 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, term := range tokenize(query) {
		list, ok := s.postings[term]
		if !ok {
			continue
		}
		idf := math.Log(1 + (float64(s.numDocs)-float64(len(list))+0.5)/(float64(len(list))+0.5))
		for _, p := range list {
			norm := 1 - s.b + s.b*float64(s.docLen[p.ChunkID])/s.avgLen
			tf := float64(p.TF)
			scores[p.ChunkID] += idf * (tf * (s.k1 + 1)) / (tf + s.k1*norm)
		}
	}
	if len(scores) == 0 {
		return nil
	}

	return rankHits(scores, topK)
}

// rankHits orders a score map into 1-based ranked hits: score descending,
// chunk id ascending for equal scores.
func rankHits(scores map[string]float64, topK int) []domain.RankedHit {
	hits := make([]domain.RankedHit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, domain.RankedHit{ChunkID: id, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	for i := range hits {
		hits[i].Rank = i + 1
	}
	return hits
}

// tokenize lower-cases and splits text into alphanumeric runs, stripping
// punctuation. Indexing and querying must use the same tokenizer.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
