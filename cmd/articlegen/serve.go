package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background())
		if err != nil {
			return err
		}
		defer a.close()

		srv := server.New(a.cfg.Port, a.pipeline, a.searcher, a.verify, a.db, a.logger)
		return srv.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
