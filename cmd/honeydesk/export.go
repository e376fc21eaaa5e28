package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"honeydesk/internal/repos"
)

var (
	exportTable string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a table as CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := setup()
		if err != nil {
			return err
		}
		defer db.Close()

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		n, err := repos.ExportCSV(cmd.Context(), db, exportTable, w)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %d %s row(s)\n", n, exportTable)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportTable, "table", "", "one of: "+strings.Join(repos.ExportTables(), ", "))
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")
	_ = exportCmd.MarkFlagRequired("table")
}
