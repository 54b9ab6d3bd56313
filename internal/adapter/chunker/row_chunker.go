package chunker

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"ragkit/internal/domain"
)

// RowChunker turns each row of a tabular document into one chunk. The
// document content is CSV text; designated text columns are concatenated
// into the chunk content ("Column: value", newline-joined) and the
// remaining columns land in chunk metadata together with the row's
// ordinal position. Rows whose text columns are all empty are dropped so
// the index carries no empty content.
type RowChunker struct {
	textColumns []string
	metaColumns []string
}

// NewRowChunker creates a row chunker. Leave textColumns empty to infer
// the column split from the data: a column counts as text if any row's
// value contains a letter.
func NewRowChunker(textColumns, metaColumns []string) *RowChunker {
	return &RowChunker{textColumns: textColumns, metaColumns: metaColumns}
}

func (c *RowChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	r := csv.NewReader(strings.NewReader(doc.Content))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse tabular content: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := records[1:]

	textCols := c.textColumns
	if len(textCols) == 0 {
		textCols = inferTextColumns(header, rows)
	}
	metaCols := c.metaColumns
	if len(metaCols) == 0 {
		metaCols = remainingColumns(header, textCols)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}

	var chunks []domain.Chunk
	index := 0
	for rowIndex, row := range rows {
		var lines []string
		for _, col := range textCols {
			i, ok := colIdx[col]
			if !ok || i >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[i])
			if value == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s", col, value))
		}
		if len(lines) == 0 {
			continue
		}

		metadata := map[string]string{
			"rowIndex": strconv.Itoa(rowIndex),
		}
		for _, col := range metaCols {
			i, ok := colIdx[col]
			if !ok || i >= len(row) {
				continue
			}
			metadata[col] = row[i]
		}

		chunks = append(chunks, domain.Chunk{
			ID:       generateChunkID(doc.ID, index),
			DocID:    doc.ID,
			Content:  strings.Join(lines, "\n"),
			Index:    index,
			Metadata: metadata,
		})
		index++
	}
	return chunks, nil
}

// inferTextColumns classifies a column as text when any row value in it
// contains a letter; everything else is treated as metadata.
func inferTextColumns(header []string, rows [][]string) []string {
	var textCols []string
	for i, name := range header {
		for _, row := range rows {
			if i >= len(row) {
				continue
			}
			if containsLetter(row[i]) {
				textCols = append(textCols, name)
				break
			}
		}
	}
	return textCols
}

func remainingColumns(header, textCols []string) []string {
	isText := make(map[string]bool, len(textCols))
	for _, c := range textCols {
		isText[c] = true
	}
	var rest []string
	for _, name := range header {
		if !isText[name] {
			rest = append(rest, name)
		}
	}
	return rest
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
