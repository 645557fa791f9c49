package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/observability"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/pipeline"
)

var (
	generateInputPath   string
	generateArticleType string
	generateVerbose     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one article draft from a material file",
	RunE: func(cmd *cobra.Command, args []string) error {
		material, err := os.ReadFile(generateInputPath)
		if err != nil {
			return fmt.Errorf("failed to read input material: %w", err)
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		printer := observability.NewPrinter(os.Stderr)

		var events chan pipeline.Event
		done := make(chan struct{})
		if generateVerbose {
			events = make(chan pipeline.Event, 32)
			go func() {
				defer close(done)
				for ev := range events {
					printer.PrintEvent(ev)
				}
			}()
		} else {
			close(done)
		}

		result, err := a.pipeline.Generate(context.Background(), string(material), generateArticleType, events)
		if events != nil {
			close(events)
			<-done
		}
		if err != nil {
			return err
		}

		if generateVerbose {
			printer.PrintDraftSummary(result.Draft)
		}
		fmt.Println(result.Markdown)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateInputPath, "input", "i", "", "Path to the input material text file (required)")
	generateCmd.Flags().StringVarP(&generateArticleType, "type", "t", "auto", "Article type (auto, ANNOUNCEMENT, EVENT_REPORT, INTERVIEW, CULTURE)")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Print per-stage progress")
	_ = generateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(generateCmd)
}
