package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// emit prints v as indented JSON in --json mode, message otherwise.
func emit(cmd *cobra.Command, v any, message string) error {
	if jsonMode(cmd) {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	if message != "" {
		fmt.Fprintln(cmd.OutOrStdout(), message)
	}
	return nil
}
