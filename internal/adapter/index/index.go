package index

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"ragkit/internal/domain"
)

// ErrLengthMismatch is returned when AddMany receives a different number
// of chunks and vectors.
var ErrLengthMismatch = errors.New("chunks and vectors must have the same length")

type record struct {
	chunk  domain.Chunk
	vector []float32
}

// Index is a brute-force in-memory vector index. Search is O(n) per
// query, which is fine for the corpus sizes this tool targets; swap in an
// ANN structure if that ever stops being true.
type Index struct {
	records []record
}

func New() *Index {
	return &Index{}
}

// AddMany appends (chunk, vector) pairs in order.
func (ix *Index) AddMany(chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", ErrLengthMismatch, len(chunks), len(vectors))
	}
	for i := range chunks {
		ix.records = append(ix.records, record{chunk: chunks[i], vector: vectors[i]})
	}
	return nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Search returns the min(topK, len) most similar chunks, in strictly
// non-increasing score order. Ties keep insertion order.
func (ix *Index) Search(query []float32, topK int) []domain.RetrievedCandidate {
	if topK <= 0 || len(ix.records) == 0 {
		return nil
	}

	candidates := make([]domain.RetrievedCandidate, len(ix.records))
	for i, rec := range ix.records {
		candidates[i] = domain.RetrievedCandidate{
			Chunk: rec.chunk,
			Score: cosineSimilarity(query, rec.vector),
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if topK > len(candidates) {
		topK = len(candidates)
	}
	return candidates[:topK]
}

// cosineSimilarity compares the two vectors over the shorter of their
// lengths, guarding against dimension drift between snapshots and query
// models. A zero-norm vector has similarity 0 by convention.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
