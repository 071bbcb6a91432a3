package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every item and the history log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return cmdErr(domain.NewValidationError("yes", "refusing to clear the store without --yes"))
		}
		if err := getCore(cmd).Items.Clear(cmd.Context()); err != nil {
			return cmdErr(err)
		}
		return emit(cmd, map[string]bool{"ok": true}, "✅ store cleared")
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report stored items that break the category rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		bad, err := getCore(cmd).Items.Audit(cmd.Context())
		if err != nil {
			return cmdErr(err)
		}
		if err := emit(cmd, map[string][]string{"invalid_ids": bad}, auditMessage(bad)); err != nil {
			return err
		}
		if len(bad) > 0 {
			return &CmdError{Err: errors.New("store holds invalid items"), Code: exitValidation}
		}
		return nil
	},
}

func auditMessage(bad []string) string {
	if len(bad) == 0 {
		return "✅ all items valid"
	}
	msg := "⚠️  invalid items:"
	for _, id := range bad {
		msg += "\n  " + id
	}
	return msg
}

func init() {
	clearCmd.Flags().Bool("yes", false, "Confirm deletion")
	rootCmd.AddCommand(clearCmd, auditCmd)
}
