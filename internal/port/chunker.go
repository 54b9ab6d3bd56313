package port

import "ragkit/internal/domain"

// Chunker splits a document into an ordered sequence of chunks.
type Chunker interface {
	Chunk(doc domain.Document) ([]domain.Chunk, error)
}
