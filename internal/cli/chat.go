package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"ragkit/config"
	"ragkit/internal/adapter/index"
	"ragkit/internal/tui"
	"ragkit/internal/usecase"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat over the indexed documents",
	Long: `Start a terminal chat session. Every question runs the full retrieval
pipeline and answers with the configured LLM, citing chunk sources.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
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

	pipeline := usecase.NewQueryPipeline(ix, embedder, generator, queryOptions(cfg))
	summary := fmt.Sprintf("%d chunks loaded from %s", ix.Len(), snapshotPath)

	program := tea.NewProgram(tui.New(pipeline, summary), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}
	return nil
}
