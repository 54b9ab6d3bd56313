package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"ragkit/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "ragkit",
	Short: "Retrieval-augmented question answering over local documents",
	Long: `ragkit chunks local documents, embeds the chunks into an in-memory
vector index persisted as a JSON snapshot, and answers questions over
the retrieved context with an LLM.

Example usage:
  ragkit ingest ./docs              # Chunk, embed and snapshot a directory
  ragkit ask -q "How do refunds work?"
  ragkit chat                       # Interactive chat over the index`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ragkit.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
