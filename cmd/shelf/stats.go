package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show item and history counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		core := getCore(cmd)

		s, err := core.Items.Stats(cmd.Context())
		if err != nil {
			return cmdErr(err)
		}
		return emit(cmd, s, renderStats(s, core.Backend.Name()))
	},
}

func renderStats(s store.Stats, backend string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Store: %s\n", backend)
	fmt.Fprintf(&b, "  kept       %s\n", humanize.Comma(int64(s.Kept)))
	fmt.Fprintf(&b, "  pending    %s\n", humanize.Comma(int64(s.Pending)))
	fmt.Fprintf(&b, "  dismissed  %s\n", humanize.Comma(int64(s.Dismissed)))
	fmt.Fprintf(&b, "  total      %s\n", humanize.Comma(int64(s.Total)))
	fmt.Fprintf(&b, "History: %s entries (%s free, %s registered)",
		humanize.Comma(int64(s.History)),
		humanize.Comma(int64(s.Free)),
		humanize.Comma(int64(s.Registered)))
	return b.String()
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
