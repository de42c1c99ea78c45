package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "revctl",
	Short: "A CLI tool for the review analytics server",
	Long:  `revctl imports review exports into the analytics database and prints aggregate reports.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./data/reviews.db", "Path to the sqlite database")
}

var dbPath string
