package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rrf(k int, ranks ...int) float64 {
	var s float64
	for _, r := range ranks {
		s += 1.0 / float64(k+r)
	}
	return s
}

func TestFuseOuterJoin(t *testing.T) {
	semantic := []string{"A", "B", "C"}
	lexical := []string{"B", "D"}

	fused := Fuse(semantic, lexical, 10)
	require.Len(t, fused, 4)

	// Expectations derived from the formula, not hard-coded.
	want := map[string]float64{
		"A": rrf(10, 1),
		"B": rrf(10, 2) + rrf(10, 1),
		"C": rrf(10, 3),
		"D": rrf(10, 2),
	}
	for _, f := range fused {
		assert.InDelta(t, want[f.ID], f.Score, 1e-12, "score of %s", f.ID)
	}

	// B: 1/11+1/12, A: 1/11, D: 1/12, C: 1/13.
	assert.Equal(t, []string{"B", "A", "D", "C"}, IDs(fused))
}

func TestFuseCommutative(t *testing.T) {
	a := []string{"x", "y", "z"}
	b := []string{"z", "w"}

	ab := Fuse(a, b, 10)
	ba := Fuse(b, a, 10)

	assert.Equal(t, ab, ba)
}

func TestFuseSingleListMembersSurface(t *testing.T) {
	fused := Fuse([]string{"only-semantic"}, nil, 10)
	require.Len(t, fused, 1)
	assert.Equal(t, "only-semantic", fused[0].ID)
	assert.InDelta(t, rrf(10, 1), fused[0].Score, 1e-12)
}

func TestFuseTieBreakAscendingID(t *testing.T) {
	// Same rank in disjoint lists: identical scores, order decided by id.
	fused := Fuse([]string{"b"}, []string{"a"}, 10)
	assert.Equal(t, []string{"a", "b"}, IDs(fused))
}

func TestFuseTruncatesToK(t *testing.T) {
	semantic := []string{"1", "2", "3", "4"}
	lexical := []string{"5", "6", "7"}

	fused := Fuse(semantic, lexical, 3)
	assert.Len(t, fused, 3)
}

func TestFuseKAffectsRanking(t *testing.T) {
	// The smoothing constant and cutoff are the same k. A smaller k rewards
	// top ranks more aggressively, so the spread between ranks widens. Both k
	// values must cover the list so neither result is truncated.
	small := Fuse([]string{"A", "B"}, nil, 2)
	large := Fuse([]string{"A", "B"}, nil, 100)
	require.Len(t, small, 2)
	require.Len(t, large, 2)

	spreadSmall := small[0].Score - small[1].Score
	spreadLarge := large[0].Score - large[1].Score
	assert.Greater(t, spreadSmall, spreadLarge)
}

func TestFuseDefaultK(t *testing.T) {
	fused := Fuse([]string{"A"}, nil, 0)
	require.Len(t, fused, 1)
	assert.InDelta(t, rrf(DefaultK, 1), fused[0].Score, 1e-12)
}
