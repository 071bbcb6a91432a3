package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List items that became kept, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		core := getCore(cmd)

		grouped, _ := cmd.Flags().GetBool("grouped")
		log, err := core.Items.History(cmd.Context())
		if err != nil {
			return cmdErr(err)
		}

		if grouped {
			groups := domain.GroupHistory(log)
			return emit(cmd, groups, renderGroups(groups))
		}
		return emit(cmd, log, renderHistory(log, time.Now()))
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the history log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getCore(cmd).Items.ClearHistory(cmd.Context()); err != nil {
			return cmdErr(err)
		}
		return emit(cmd, map[string]bool{"ok": true}, "✅ history cleared")
	},
}

func renderHistory(log []domain.HistoryEntry, now time.Time) string {
	if len(log) == 0 {
		return "No history yet."
	}
	var b strings.Builder
	for i := len(log) - 1; i >= 0; i-- {
		e := log[i]
		when := e.Time
		if t, err := time.ParseInLocation(domain.HistoryTimeLayout, e.Time, time.Local); err == nil {
			when = humanize.RelTime(t, now, "ago", "from now")
		}
		fmt.Fprintf(&b, "%-10s %-16s %s\n", e.ID, when, e.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderGroups(groups []domain.HistoryGroup) string {
	if len(groups) == 0 {
		return "No history yet."
	}
	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "%d  %s  (%s)\n", g.ID, g.Title, humanize.Comma(int64(len(g.Files))))
	}
	return strings.TrimRight(b.String(), "\n")
}

func init() {
	historyCmd.Flags().Bool("grouped", false, "One line per id with its file count")
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
