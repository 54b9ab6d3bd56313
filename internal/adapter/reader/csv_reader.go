package reader

import (
	"fmt"
	"os"
	"path/filepath"

	"ragkit/internal/domain"
)

// CSVReader loads a tabular file as a single document whose content is the
// raw CSV text; the row chunking strategy turns it into per-row chunks.
type CSVReader struct {
	path string
}

func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path}
}

func (r *CSVReader) Read() ([]domain.Document, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	name := filepath.Base(r.path)
	return []domain.Document{{
		ID:      documentID(r.path),
		Title:   name,
		Content: string(data),
	}}, nil
}
