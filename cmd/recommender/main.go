// Package main provides the entry point for the gift recommender CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recommender",
	Short: "Gift and experience recommender",
	Long: "Recommender picks three budget-appropriate gift, experience or date ideas for a partner " +
		"vault, via the REST API or directly from the command line.",
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
