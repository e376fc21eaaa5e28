package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"honeydesk/internal/services"
)

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token <secret>",
	Short: "Print the bcrypt hash for WEBHOOK_SECRET_HASH or DASHBOARD_TOKEN_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := services.HashToken(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), h)
		return nil
	},
}
