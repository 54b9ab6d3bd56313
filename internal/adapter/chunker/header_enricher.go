package chunker

import (
	"fmt"
	"strings"

	"ragkit/internal/domain"
	"ragkit/internal/port"
)

// HeaderEnricher decorates another chunker and prepends a short document
// header (title plus optional section) to every chunk, so similarity
// search picks up document-level context without widening the embedding.
type HeaderEnricher struct {
	inner port.Chunker
}

func NewHeaderEnricher(inner port.Chunker) *HeaderEnricher {
	return &HeaderEnricher{inner: inner}
}

func (e *HeaderEnricher) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	chunks, err := e.inner.Chunk(doc)
	if err != nil {
		return nil, err
	}

	header := buildHeader(doc)
	if header == "" {
		return chunks, nil
	}

	for i := range chunks {
		chunks[i].Content = header + "\n\n" + chunks[i].Content
	}
	return chunks, nil
}

func buildHeader(doc domain.Document) string {
	var lines []string
	if doc.Title != "" {
		lines = append(lines, fmt.Sprintf("Title: %s", doc.Title))
	}
	if section := doc.Metadata["section"]; section != "" {
		lines = append(lines, fmt.Sprintf("Section: %s", section))
	}
	return strings.Join(lines, "\n")
}
