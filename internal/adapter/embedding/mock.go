package embedding

import (
	"crypto/sha256"
	"math"
)

// MockEmbedder produces deterministic pseudo-embeddings derived from the
// text hash. Useful for tests and offline runs; similar texts do NOT get
// similar vectors.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 64
	}
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Model() string {
	return "mock"
}

func (e *MockEmbedder) Embed(texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *MockEmbedder) embedOne(text string) []float32 {
	hash := sha256.Sum256([]byte(text))

	vec := make([]float32, e.dimension)
	var norm float64
	for i := 0; i < e.dimension; i++ {
		b := hash[i%len(hash)]
		v := float64(b)/127.5 - 1
		// Rotate so different dimensions differ even past the hash length.
		v *= math.Cos(float64(i+1) * float64(hash[(i+7)%len(hash)]))
		vec[i] = float32(v)
		norm += v * v
	}

	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
