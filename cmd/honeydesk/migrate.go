package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"honeydesk/internal/repos"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := setup()
		if err != nil {
			return err
		}
		defer db.Close()
		v, err := repos.MigrationVersion(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
		return nil
	},
}
