package embedding

import (
	"context"
	"fmt"
	"math"
)

// Provider generates text embeddings. Implementations batch internally when
// the input exceeds their batch-size threshold and always return one vector
// per input text, in input order, of fixed dimensionality.
type Provider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the fixed vector size this provider produces.
	Dimensions() int
}

// EmbedOne is a convenience wrapper for callers that need a single vector.
func EmbedOne(ctx context.Context, p Provider, text string) ([]float32, error) {
	vectors, err := p.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding: got %d vectors for 1 input", len(vectors))
	}
	return vectors[0], nil
}

// normalizeVector scales a vector to unit length. Cosine distance in pgvector
// needs normalized vectors for meaningful comparisons across providers.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
