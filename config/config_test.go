package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Ingest.ChunkSize != 1000 {
		t.Errorf("expected ChunkSize=1000, got %d", cfg.Ingest.ChunkSize)
	}
	if cfg.Ingest.ChunkOverlap != 200 {
		t.Errorf("expected ChunkOverlap=200, got %d", cfg.Ingest.ChunkOverlap)
	}
	if cfg.Query.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Query.TopK)
	}
	if cfg.Query.OverlapThreshold != 0.4 {
		t.Errorf("expected OverlapThreshold=0.4, got %g", cfg.Query.OverlapThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/ragkit.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ragkit.yaml")

	content := `
ingest:
  chunk_size: 256
  chunk_overlap: 32
query:
  top_k: 10
  transformation: decompose
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Ingest.ChunkSize != 256 {
		t.Errorf("expected ChunkSize=256, got %d", cfg.Ingest.ChunkSize)
	}
	if cfg.Query.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Query.TopK)
	}
	if cfg.Query.Transformation != "decompose" {
		t.Errorf("expected transformation=decompose, got %s", cfg.Query.Transformation)
	}
	// Untouched fields keep defaults.
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected default embedding model, got %s", cfg.Embedding.Model)
	}
}

func TestLoad_InvalidChunkSize(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ragkit.yaml")

	content := `
ingest:
  chunk_size: 0
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for chunk_size=0")
	}
	if !strings.Contains(err.Error(), "chunk_size") {
		t.Errorf("error should name the offending key, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{"overlap equals size", func(c *Config) { c.Ingest.ChunkOverlap = c.Ingest.ChunkSize }, "chunk_overlap"},
		{"negative overlap", func(c *Config) { c.Ingest.ChunkOverlap = -1 }, "chunk_overlap"},
		{"zero top_k", func(c *Config) { c.Query.TopK = 0 }, "top_k"},
		{"relevance out of range", func(c *Config) { c.Query.RelevanceThreshold = 1.5 }, "relevance_threshold"},
		{"bad transformation", func(c *Config) { c.Query.Transformation = "summarize" }, "transformation"},
		{"bad augment", func(c *Config) { c.Ingest.Augment = "rewrite" }, "augment"},
		{"grading out of range", func(c *Config) { c.Ingest.GradingThreshold = -0.1 }, "grading_threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("error should mention %q, got %v", tt.wantKey, err)
			}
		})
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ragkit.yaml")

	content := `
query:
  top_k: 8
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Query.TopK != 8 {
		t.Errorf("expected TopK=8, got %d", cfg.Query.TopK)
	}
}

func TestSnapshotPath(t *testing.T) {
	got := SnapshotPath("/data/corpus", filepath.Join(".ragkit", "index.json"))
	want := filepath.Join("/data/corpus", ".ragkit", "index.json")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	abs := filepath.Join(string(filepath.Separator), "tmp", "snap.json")
	if SnapshotPath("/data", abs) != abs {
		t.Error("absolute path should pass through unchanged")
	}
}
