package chunker

import (
	"regexp"
	"strings"

	"ragkit/internal/domain"
)

var paragraphSep = regexp.MustCompile(`\n{2,}`)

// ParagraphChunker splits content on blank lines. Paragraphs that fit
// within the size bound become one chunk each; oversized paragraphs fall
// back to fixed-window splitting so no chunk exceeds the bound. Trades
// uniform size for semantic coherence.
type ParagraphChunker struct {
	size   int
	window *WindowChunker
}

func NewParagraphChunker(size, overlap int) (*ParagraphChunker, error) {
	window, err := NewWindowChunker(size, overlap)
	if err != nil {
		return nil, err
	}
	return &ParagraphChunker{size: size, window: window}, nil
}

func (c *ParagraphChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	index := 0

	for _, para := range paragraphSep.Split(doc.Content, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		var parts []string
		if len([]rune(para)) <= c.size {
			parts = []string{para}
		} else {
			parts = c.window.split(para)
		}

		for _, text := range parts {
			chunks = append(chunks, domain.Chunk{
				ID:      generateChunkID(doc.ID, index),
				DocID:   doc.ID,
				Content: text,
				Index:   index,
			})
			index++
		}
	}
	return chunks, nil
}
