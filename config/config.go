package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the ragkit tool.
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest"`
	Query     QueryConfig     `yaml:"query"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
}

// IngestConfig holds chunking and augmentation configuration.
type IngestConfig struct {
	Includes          []string `yaml:"includes"`
	Excludes          []string `yaml:"excludes"`
	ChunkSize         int      `yaml:"chunk_size"`
	ChunkOverlap      int      `yaml:"chunk_overlap"`
	Strategy          string   `yaml:"strategy"` // "window", "paragraph", "row"
	TextColumns       []string `yaml:"text_columns"`
	MetadataColumns   []string `yaml:"metadata_columns"`
	Augment           string   `yaml:"augment"` // "none", "header", "qa", "propositions"
	QuestionsPerChunk int      `yaml:"questions_per_chunk"`
	MaxPropositions   int      `yaml:"max_propositions"`
	GradingThreshold  float64  `yaml:"grading_threshold"`
	SnapshotPath      string   `yaml:"snapshot_path"`
}

// QueryConfig holds retrieval and post-processing configuration.
type QueryConfig struct {
	TopK               int     `yaml:"top_k"`
	Transformation     string  `yaml:"transformation"` // "", "rewrite", "stepback", "decompose", "all"
	MaxSubQueries      int     `yaml:"max_sub_queries"`
	Validate           bool    `yaml:"validate"`
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
	OverlapThreshold   float64 `yaml:"overlap_threshold"`
	HighlightWindow    int     `yaml:"highlight_window"`
	Stitch             bool    `yaml:"stitch"`
	SegmentMaxChars    int     `yaml:"segment_max_chars"`
}

// EmbeddingConfig holds embedding client configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "deepseek", "jina", "ollama", "mock"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
	CachePath string `yaml:"cache_path"` // empty disables the on-disk embedding cache
}

// LLMConfig holds generation client configuration.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "openai", "deepseek", "ollama", "mock"
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Includes:          []string{"**/*.txt", "**/*.md"},
			Excludes:          []string{"**/.git/**", "**/node_modules/**"},
			ChunkSize:         1000,
			ChunkOverlap:      200,
			Strategy:          "window",
			Augment:           "none",
			QuestionsPerChunk: 3,
			MaxPropositions:   5,
			GradingThreshold:  0.7,
			SnapshotPath:      filepath.Join(".ragkit", "index.json"),
		},
		Query: QueryConfig{
			TopK:               5,
			Transformation:     "",
			MaxSubQueries:      3,
			Validate:           false,
			RelevanceThreshold: 0.5,
			OverlapThreshold:   0.4,
			HighlightWindow:    160,
			Stitch:             false,
			SegmentMaxChars:    2000,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0,
		},
	}
}

// Load loads configuration from a YAML file, applying defaults for
// anything the file leaves unset. A missing file returns defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragkit.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragkit.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragkit", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the numeric invariants the pipelines depend on. Each
// failure names the offending key.
func (c *Config) Validate() error {
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size: must be > 0, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap: must be in [0, chunk_size), got %d", c.Ingest.ChunkOverlap)
	}
	if c.Query.TopK <= 0 {
		return fmt.Errorf("query.top_k: must be > 0, got %d", c.Query.TopK)
	}
	if c.Query.RelevanceThreshold < 0 || c.Query.RelevanceThreshold > 1 {
		return fmt.Errorf("query.relevance_threshold: must be in [0,1], got %g", c.Query.RelevanceThreshold)
	}
	if c.Query.OverlapThreshold < 0 || c.Query.OverlapThreshold > 1 {
		return fmt.Errorf("query.overlap_threshold: must be in [0,1], got %g", c.Query.OverlapThreshold)
	}
	if c.Ingest.GradingThreshold < 0 || c.Ingest.GradingThreshold > 1 {
		return fmt.Errorf("ingest.grading_threshold: must be in [0,1], got %g", c.Ingest.GradingThreshold)
	}
	switch c.Query.Transformation {
	case "", "rewrite", "stepback", "decompose", "all":
	default:
		return fmt.Errorf("query.transformation: unknown value %q", c.Query.Transformation)
	}
	switch c.Ingest.Augment {
	case "", "none", "header", "qa", "propositions":
	default:
		return fmt.Errorf("ingest.augment: unknown value %q", c.Ingest.Augment)
	}
	return nil
}

// SnapshotPath resolves the snapshot path relative to a root directory.
func SnapshotPath(dir, configured string) string {
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(dir, configured)
}
