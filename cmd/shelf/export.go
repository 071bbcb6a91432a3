package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <category>",
	Short: "Print every item of a category (kept, pending or dismissed)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		core := getCore(cmd)

		category, err := domain.ParseCategory(args[0])
		if err != nil {
			return cmdErr(err)
		}
		formatFlag, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(formatFlag)
		if err != nil {
			return cmdErr(err)
		}
		persist, _ := cmd.Flags().GetBool("persist")

		res, err := core.Exports.ExportByCategory(cmd.Context(), category, format, persist)
		if err != nil {
			return cmdErr(err)
		}

		if jsonMode(cmd) {
			return emit(cmd, res, "")
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		if res.Warning != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %s (failed: %v)\n", res.Warning, res.Persistence.FailedIDs)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", string(export.FormatList), "Output format: list, urls, detailed, csv, json")
	exportCmd.Flags().Bool("persist", false, "Apply export transitions (pending becomes kept, dismissed is deleted)")
	rootCmd.AddCommand(exportCmd)
}
