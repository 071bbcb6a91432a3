package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/sources/importfile"
	"github.com/MrSnakeDoc/shelf/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a JSON or YAML item list as kept items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		core := getCore(cmd)

		modeFlag, _ := cmd.Flags().GetString("mode")
		mode, err := store.ParseMergeMode(modeFlag)
		if err != nil {
			return cmdErr(err)
		}

		f, err := importfile.NewLoader(args[0]).Load()
		if err != nil {
			return cmdErr(err)
		}

		res, err := core.Items.Import(cmd.Context(), f.Entries(), mode)
		if err != nil {
			return cmdErr(err)
		}

		return emit(cmd, res, fmt.Sprintf("✅ imported %s, updated %s, skipped %s, invalid %s",
			humanize.Comma(int64(res.Imported)),
			humanize.Comma(int64(res.Updated)),
			humanize.Comma(int64(res.Skipped)),
			humanize.Comma(int64(res.Invalid))))
	},
}

func init() {
	importCmd.Flags().String("mode", string(store.MergeSkip), "What to do with existing ids: skip or replace")
	rootCmd.AddCommand(importCmd)
}
