package embedding

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	vectors [][]float32
	err     error
}

func (s *stubProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return s.vectors, s.err
}

func (s *stubProvider) Dimensions() int { return 3 }

func TestEmbedOne(t *testing.T) {
	p := &stubProvider{vectors: [][]float32{{1, 0, 0}}}

	vec, err := EmbedOne(context.Background(), p, "milk")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, vec)
}

func TestEmbedOnePropagatesError(t *testing.T) {
	p := &stubProvider{err: fmt.Errorf("backend down")}

	_, err := EmbedOne(context.Background(), p, "milk")

	assert.EqualError(t, err, "backend down")
}

func TestEmbedOneRejectsWrongVectorCount(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float32
	}{
		{name: "empty", vectors: nil},
		{name: "too many", vectors: [][]float32{{1}, {2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EmbedOne(context.Background(), &stubProvider{vectors: tt.vectors}, "milk")
			assert.Error(t, err)
		})
	}
}

func TestNormalizeVector(t *testing.T) {
	got := normalizeVector([]float32{3, 4})

	var magnitude float64
	for _, v := range got {
		magnitude += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(magnitude), 1e-6)
	assert.InDelta(t, 0.6, got[0], 1e-6)
	assert.InDelta(t, 0.8, got[1], 1e-6)
}

func TestNormalizeVectorZero(t *testing.T) {
	got := normalizeVector([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, got)
}
