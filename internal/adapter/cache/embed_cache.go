package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
	"ragkit/internal/port"
)

var bucketEmbeddings = []byte("embeddings")

// CachedEmbedder wraps an embedder with a BoltDB-backed text-to-vector
// cache, keyed by a hash of model and text. Re-ingesting the same corpus
// skips the embedding round trips entirely.
type CachedEmbedder struct {
	inner port.Embedder
	model string
	db    *bbolt.DB
}

func NewCachedEmbedder(inner port.Embedder, model, path string) (*CachedEmbedder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bbolt.Open(path, 0644, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &CachedEmbedder{inner: inner, model: model, db: db}, nil
}

func (c *CachedEmbedder) Close() error {
	return c.db.Close()
}

// Embed serves cached vectors where possible and embeds only the misses,
// preserving the input order in the result.
func (c *CachedEmbedder) Embed(texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int

	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for i, text := range texts {
			data := b.Get(c.key(text))
			if data == nil {
				missing = append(missing, text)
				missingIdx = append(missingIdx, i)
				continue
			}
			var vec []float32
			if err := json.Unmarshal(data, &vec); err != nil {
				// Corrupted entry, treat as a miss.
				missing = append(missing, text)
				missingIdx = append(missingIdx, i)
				continue
			}
			vectors[i] = vec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := c.inner.Embed(missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missing))
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for j, vec := range fresh {
			vectors[missingIdx[j]] = vec
			data, err := json.Marshal(vec)
			if err != nil {
				return err
			}
			if err := b.Put(c.key(missing[j]), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return vectors, nil
}

func (c *CachedEmbedder) key(text string) []byte {
	hash := sha256.Sum256([]byte(c.model + "\x00" + text))
	return hash[:]
}
