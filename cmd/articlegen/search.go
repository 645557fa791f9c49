package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

var (
	searchArticleType string
	searchK           int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a hybrid search against the reference corpus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := types.ParseArticleType(searchArticleType)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		passages, err := a.searcher.Search(cmd.Context(), args[0], category)
		if err != nil {
			return err
		}
		if len(passages) > searchK {
			passages = passages[:searchK]
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(passages); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchArticleType, "type", "t", "", "Article type to search within (required)")
	searchCmd.Flags().IntVarP(&searchK, "k", "k", 10, "Maximum number of passages")
	_ = searchCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(searchCmd)
}
