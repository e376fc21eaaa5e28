package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"honeydesk/internal/repos"
)

var promoteCmd = &cobra.Command{
	Use:   "promote <username>...",
	Short: "Grant admin rights to registered customers by chat handle",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := setup()
		if err != nil {
			return err
		}
		defer db.Close()
		customers := repos.NewCustomerRepo(db)
		for _, h := range args {
			ok, err := customers.PromoteByUsername(cmd.Context(), h)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: not registered\n", h)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: admin\n", h)
		}
		return nil
	},
}
