package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"ragkit/config"
	"ragkit/internal/adapter/index"
	"ragkit/internal/refine"
	"ragkit/internal/usecase"
)

var (
	askQuestion    string
	askJSON        bool
	askShowContext bool
	askBudget      float64
	askMinRating   float64
	askAmenities   []string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question over the indexed documents",
	Long: `Retrieve the most relevant chunks for a question and answer it with
the configured LLM.

Examples:
  ragkit ask -q "How do refunds work?"
  ragkit ask -q "Which listing fits?" --budget 150 --min-rating 4 --amenities wifi,parking`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to answer (required)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the retrieved context before the answer")
	askCmd.Flags().Float64Var(&askBudget, "budget", 0, "prefer listings priced at or below this budget")
	askCmd.Flags().Float64Var(&askMinRating, "min-rating", 0, "prefer listings rated at or above this value")
	askCmd.Flags().StringSliceVar(&askAmenities, "amenities", nil, "prefer listings offering these amenities")
	askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	snapshotPath := config.SnapshotPath(GetRootDir(), cfg.Ingest.SnapshotPath)
	ix, err := index.Load(snapshotPath)
	if err != nil {
		if errors.Is(err, index.ErrSnapshotNotFound) {
			return fmt.Errorf("no index found. Run 'ragkit ingest' first (%w)", err)
		}
		return err
	}

	embedder, closeEmbedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	if closeEmbedder != nil {
		defer closeEmbedder()
	}

	generator, err := buildLLM(cfg)
	if err != nil {
		return err
	}

	opts := queryOptions(cfg)
	if askBudget > 0 || askMinRating > 0 || len(askAmenities) > 0 {
		opts.Preferences = &refine.Preferences{
			Budget:    askBudget,
			MinRating: askMinRating,
			Amenities: askAmenities,
		}
	}

	pipeline := usecase.NewQueryPipeline(ix, embedder, generator, opts)
	answer, err := pipeline.Ask(askQuestion)
	if err != nil {
		return err
	}

	if askJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if askShowContext {
		fmt.Printf("Retrieved %d chunks:\n\n", len(answer.Candidates))
		for i, c := range answer.Candidates {
			fmt.Printf("--- [%d] %s#%d (score: %.3f) ---\n", i+1, c.Chunk.DocID, c.Chunk.Index, c.Score)
			text := c.Chunk.Content
			if len(text) > 500 {
				text = text[:500] + "..."
			}
			fmt.Println(text)
			fmt.Println()
		}
	}

	if answer.LowConfidence {
		fmt.Println("Note: no chunk passed relevance validation; answering from the closest match.")
		fmt.Println()
	}
	fmt.Println(answer.Text)
	return nil
}
