package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"ragkit/config"
	"ragkit/internal/adapter/reader"
	"ragkit/internal/port"
	"ragkit/internal/usecase"
)

var (
	ingestCSV     string
	ingestAugment string
	ingestOut     string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Chunk, embed and snapshot documents",
	Long: `Read documents, split them into chunks, embed the chunks and persist
the index snapshot as JSON.

Examples:
  ragkit ingest ./docs                      # Ingest a directory
  ragkit ingest --csv listings.csv          # Ingest a tabular file row by row
  ragkit ingest ./docs --augment qa         # Add synthetic question chunks`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestCSV, "csv", "", "ingest a single CSV file row by row")
	ingestCmd.Flags().StringVar(&ingestAugment, "augment", "", "augmentation: none, header, qa, propositions (default from config)")
	ingestCmd.Flags().StringVar(&ingestOut, "out", "", "snapshot output path (default from config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if ingestAugment != "" {
		cfg.Ingest.Augment = ingestAugment
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	var rd port.DocumentReader
	csvMode := ingestCSV != ""
	if csvMode {
		if _, err := os.Stat(ingestCSV); err != nil {
			return fmt.Errorf("csv file does not exist: %w", err)
		}
		rd = reader.NewCSVReader(ingestCSV)
	} else {
		path := GetRootDir()
		if len(args) > 0 {
			var err error
			path, err = filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("invalid path: %w", err)
			}
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("path does not exist: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("path is not a directory: %s", path)
		}
		rd = reader.NewDirReader(path, cfg.Ingest.Includes, cfg.Ingest.Excludes)
	}

	ck, err := buildChunker(cfg, csvMode)
	if err != nil {
		return err
	}

	embedder, closeEmbedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	if closeEmbedder != nil {
		defer closeEmbedder()
	}

	var generator port.LLM
	if cfg.Ingest.Augment == "qa" || cfg.Ingest.Augment == "propositions" {
		generator, err = buildLLM(cfg)
		if err != nil {
			return err
		}
	}

	snapshotPath := ingestOut
	if snapshotPath == "" {
		snapshotPath = config.SnapshotPath(GetRootDir(), cfg.Ingest.SnapshotPath)
	}

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)
	}

	pipeline := usecase.NewIngestionPipeline(rd, ck, embedder, generator, usecase.IngestOptions{
		Augment:           cfg.Ingest.Augment,
		QuestionsPerChunk: cfg.Ingest.QuestionsPerChunk,
		MaxPropositions:   cfg.Ingest.MaxPropositions,
		GradingThreshold:  cfg.Ingest.GradingThreshold,
		SnapshotPath:      snapshotPath,
		EmbedBatchSize:    cfg.Embedding.BatchSize,
		OnProgress:        progress,
	})

	_, result, err := pipeline.Run()
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Documents read:   %d\n", result.Documents)
	fmt.Printf("  Chunks indexed:   %d\n", result.Chunks)
	if result.Augmented > 0 {
		fmt.Printf("  Chunks generated: %d\n", result.Augmented)
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, w := range result.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nSnapshot stored at: %s\n", snapshotPath)
	return nil
}
