package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"ragcore/src/infrastructure/log"
)

var devLogging bool

var rootCmd = &cobra.Command{
	Use:   "ragcore",
	Short: "Retrieval-augmented chat and document ingestion service",
	Long: `ragcore ingests documents into a vector index and answers chat
requests with retrieval-augmented generation against that index.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if devLogging {
			log.SetDevelopment()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&devLogging, "dev", false, "use human-readable debug logging")
	settingDefaultConfig()
}
