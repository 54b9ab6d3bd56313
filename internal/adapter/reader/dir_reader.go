package reader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"ragkit/internal/domain"
)

// DirReader loads every file under a root directory that matches the
// include globs and none of the exclude globs. Each file becomes one
// document titled with its path relative to the root.
type DirReader struct {
	root     string
	includes []string
	excludes []string
}

func NewDirReader(root string, includes, excludes []string) *DirReader {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &DirReader{
		root:     root,
		includes: includes,
		excludes: excludes,
	}
}

func (r *DirReader) Read() ([]domain.Document, error) {
	root, err := filepath.Abs(r.root)
	if err != nil {
		return nil, err
	}

	var docs []domain.Document
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if r.shouldExclude(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !r.shouldInclude(relPath) || r.shouldExclude(relPath) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		docs = append(docs, domain.Document{
			ID:      documentID(relPath),
			Title:   relPath,
			Content: string(data),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *DirReader) shouldInclude(path string) bool {
	for _, pattern := range r.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (r *DirReader) shouldExclude(path string) bool {
	for _, pattern := range r.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func documentID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
