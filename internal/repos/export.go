package repos

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/jmoiron/sqlx"

	"honeydesk/internal/domain"
)

var exportTables = []string{"customers", "products", "orders", "tickets", "messages", "feedback"}

// ExportTables lists the tables ExportCSV accepts.
func ExportTables() []string { return slices.Clone(exportTables) }

// ExportCSV writes every row of table to w, header first.
func ExportCSV(ctx context.Context, db *sqlx.DB, table string, w io.Writer) (int, error) {
	if !slices.Contains(exportTables, table) {
		return 0, domain.Validation("unknown table %q", table)
	}
	rows, err := db.QueryxContext(ctx, `SELECT * FROM `+table+` ORDER BY id`)
	if err != nil {
		return 0, storeErr(err, "export "+table)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, storeErr(err, "export "+table)
	}
	out := csv.NewWriter(w)
	if err := out.Write(cols); err != nil {
		return 0, err
	}
	n := 0
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return n, storeErr(err, "export "+table)
		}
		rec := make([]string, len(vals))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
			case []byte:
				rec[i] = string(x)
			default:
				rec[i] = fmt.Sprint(x)
			}
		}
		if err := out.Write(rec); err != nil {
			return n, err
		}
		n++
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return n, err
	}
	return n, storeErr(rows.Err(), "export "+table)
}
