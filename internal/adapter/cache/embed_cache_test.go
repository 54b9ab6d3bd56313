package cache

import (
	"path/filepath"
	"testing"
)

// countingEmbedder tracks which texts reached the inner embedder.
type countingEmbedder struct {
	calls [][]string
}

func (e *countingEmbedder) Embed(texts []string) ([][]float32, error) {
	e.calls = append(e.calls, texts)
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = []float32{float32(len(t)), 1}
	}
	return vectors, nil
}

func TestCachedEmbedderHitsSkipInner(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := NewCachedEmbedder(inner, "test-model", filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	first, err := c.Embed([]string{"alpha", "beta"})
	if err != nil {
		t.Fatal(err)
	}
	if len(inner.calls) != 1 || len(inner.calls[0]) != 2 {
		t.Fatalf("expected one inner call with 2 texts, got %v", inner.calls)
	}

	second, err := c.Embed([]string{"alpha", "beta"})
	if err != nil {
		t.Fatal(err)
	}
	if len(inner.calls) != 1 {
		t.Errorf("expected cache hits to skip the inner embedder, got %d calls", len(inner.calls))
	}
	for i := range first {
		if len(first[i]) != len(second[i]) {
			t.Fatalf("vector %d length changed across cache round trip", i)
		}
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Errorf("vector %d differs at %d: %g vs %g", i, j, first[i][j], second[i][j])
			}
		}
	}
}

func TestCachedEmbedderPartialMiss(t *testing.T) {
	inner := &countingEmbedder{}
	c, err := NewCachedEmbedder(inner, "test-model", filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Embed([]string{"alpha"}); err != nil {
		t.Fatal(err)
	}

	vectors, err := c.Embed([]string{"alpha", "gamma", "alpha"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	// Only the unseen text goes to the inner embedder. The duplicated
	// "alpha" is served from cache both times.
	last := inner.calls[len(inner.calls)-1]
	if len(last) != 1 || last[0] != "gamma" {
		t.Errorf("expected only the miss to be embedded, got %v", last)
	}
	if vectors[0] == nil || vectors[1] == nil || vectors[2] == nil {
		t.Error("all result slots must be filled")
	}
}

func TestCachedEmbedderModelScopesKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")

	innerA := &countingEmbedder{}
	a, err := NewCachedEmbedder(innerA, "model-a", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Embed([]string{"text"}); err != nil {
		t.Fatal(err)
	}
	a.Close()

	innerB := &countingEmbedder{}
	b, err := NewCachedEmbedder(innerB, "model-b", path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if _, err := b.Embed([]string{"text"}); err != nil {
		t.Fatal(err)
	}
	if len(innerB.calls) != 1 {
		t.Error("a different model must not hit the other model's cache entries")
	}
}
