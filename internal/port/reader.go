package port

import "ragkit/internal/domain"

// DocumentReader loads source documents for ingestion.
type DocumentReader interface {
	Read() ([]domain.Document, error)
}
