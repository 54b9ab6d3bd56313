package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"ragkit/internal/domain"
)

// WindowChunker splits content into fixed-size windows that advance by
// size-overlap characters per step.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker creates a fixed-window chunker. The overlap must leave
// the window room to advance, otherwise chunking would never terminate.
func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid chunk configuration: size must be > 0, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("invalid chunk configuration: overlap must be in [0, size), got %d", overlap)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

func (c *WindowChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	parts := c.split(doc.Content)

	chunks := make([]domain.Chunk, 0, len(parts))
	for i, text := range parts {
		chunks = append(chunks, domain.Chunk{
			ID:      generateChunkID(doc.ID, i),
			DocID:   doc.ID,
			Content: text,
			Index:   i,
		})
	}
	return chunks, nil
}

// split walks the content left to right emitting windows of up to size
// runes. The last window ends exactly at the end of content.
func (c *WindowChunker) split(content string) []string {
	runes := []rune(content)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var parts []string
	for start := 0; ; start += step {
		end := start + c.size
		if end >= len(runes) {
			parts = append(parts, string(runes[start:]))
			return parts
		}
		parts = append(parts, string(runes[start:end]))
	}
}

func generateChunkID(docID string, index int) string {
	data := fmt.Sprintf("%s:%d", docID, index)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
