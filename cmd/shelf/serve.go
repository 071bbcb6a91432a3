package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/app"
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the HTTP API",
	Annotations: map[string]string{"skipCore": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), getCfg(cmd), getLogger(cmd))
		if err != nil {
			return err
		}
		return a.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
