// Package fusion implements Reciprocal Rank Fusion over two ranked id lists.
// It is a pure algorithm: no I/O, no state beyond its inputs.
package fusion

import "sort"

// DefaultK is both the result cutoff and the RRF smoothing constant. The two
// are intentionally the same knob: changing k shifts result count and ranking
// together.
const DefaultK = 10

// Scored is one fused id with its combined RRF score.
type Scored struct {
	ID    string
	Score float64
}

// Fuse combines a semantic ranked list (ascending vector distance) and a
// lexical ranked list (descending full-text relevance) into one ordering.
//
// Every id in the union of both lists scores 1/(k+rank) per list it appears
// in, with 1-based ranks; an id absent from a list simply contributes no term
// for it. This is a full outer join over the rank sets: ids present in only
// one list still surface with their partial score. Ties break by ascending id
// so the ordering is deterministic. The result is truncated to k entries.
func Fuse(semantic, lexical []string, k int) []Scored {
	if k <= 0 {
		k = DefaultK
	}

	scores := make(map[string]float64, len(semantic)+len(lexical))
	for i, id := range semantic {
		scores[id] += 1.0 / float64(k+i+1)
	}
	for i, id := range lexical {
		scores[id] += 1.0 / float64(k+i+1)
	}

	fused := make([]Scored, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, Scored{ID: id, Score: score})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ID < fused[j].ID
	})

	if len(fused) > k {
		fused = fused[:k]
	}
	return fused
}

// IDs returns just the ids of a fused result, in fused order.
func IDs(fused []Scored) []string {
	ids := make([]string, len(fused))
	for i, f := range fused {
		ids[i] = f.ID
	}
	return ids
}
