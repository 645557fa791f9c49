// Package main provides the article generator CLI: an HTTP server plus
// one-shot generation and search commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "articlegen",
	Short: "Recruiting article draft generator",
	Long:  "articlegen generates first-draft recruiting articles from raw input material, grounded in a corpus of previously published articles via hybrid retrieval.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
