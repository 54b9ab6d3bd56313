package cli

import (
	"fmt"

	"ragkit/config"
	"ragkit/internal/adapter/cache"
	"ragkit/internal/adapter/chunker"
	"ragkit/internal/adapter/embedding"
	"ragkit/internal/adapter/llm"
	"ragkit/internal/port"
	"ragkit/internal/usecase"
)

// namedEmbedder is what the provider constructors return: an embedder
// that knows its model name, which the on-disk cache uses to scope keys.
type namedEmbedder interface {
	port.Embedder
	Model() string
}

// buildEmbedder creates the configured embedder, wrapped in the BoltDB
// cache when a cache path is set. The returned closer is nil when there
// is nothing to close.
func buildEmbedder(cfg *config.Config) (port.Embedder, func() error, error) {
	var base namedEmbedder
	var err error

	switch cfg.Embedding.Provider {
	case "openai":
		base, err = embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
	case "deepseek":
		base, err = embedding.NewDeepSeekEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
	case "jina":
		base, err = embedding.NewJinaEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model)
	case "ollama":
		base = embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL)
	case "mock":
		base = embedding.NewMockEmbedder(cfg.Embedding.Dimension)
	default:
		return nil, nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	if oa, ok := base.(*embedding.OpenAIEmbedder); ok && cfg.Embedding.BatchSize > 0 {
		oa.SetBatchSize(cfg.Embedding.BatchSize)
	}

	if cfg.Embedding.CachePath == "" {
		return base, nil, nil
	}

	cachePath := config.SnapshotPath(GetRootDir(), cfg.Embedding.CachePath)
	cached, err := cache.NewCachedEmbedder(base, base.Model(), cachePath)
	if err != nil {
		return nil, nil, err
	}
	return cached, cached.Close, nil
}

func buildLLM(cfg *config.Config) (port.LLM, error) {
	if cfg.LLM.Provider == "mock" {
		return llm.NewMock(), nil
	}
	client, err := llm.New(llm.Options{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKeyEnv:   cfg.LLM.APIKeyEnv,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// buildChunker assembles the configured chunking strategy, wrapped in
// header enrichment when that augmentation is selected.
func buildChunker(cfg *config.Config, csvMode bool) (port.Chunker, error) {
	var ck port.Chunker
	var err error

	strategy := cfg.Ingest.Strategy
	if csvMode {
		strategy = "row"
	}

	switch strategy {
	case "", "window":
		ck, err = chunker.NewWindowChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	case "paragraph":
		ck, err = chunker.NewParagraphChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	case "row":
		ck = chunker.NewRowChunker(cfg.Ingest.TextColumns, cfg.Ingest.MetadataColumns)
	default:
		return nil, fmt.Errorf("unsupported chunking strategy: %s", strategy)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Ingest.Augment == "header" {
		ck = chunker.NewHeaderEnricher(ck)
	}
	return ck, nil
}

func queryOptions(cfg *config.Config) usecase.QueryOptions {
	return usecase.QueryOptions{
		TopK:             cfg.Query.TopK,
		Transformation:   cfg.Query.Transformation,
		MaxSubQueries:    cfg.Query.MaxSubQueries,
		Validate:         cfg.Query.Validate,
		ScoreThreshold:   cfg.Query.RelevanceThreshold,
		OverlapThreshold: cfg.Query.OverlapThreshold,
		HighlightWindow:  cfg.Query.HighlightWindow,
		Stitch:           cfg.Query.Stitch,
		SegmentMaxChars:  cfg.Query.SegmentMaxChars,
	}
}
