package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// InventoryRepo handles product stock counts.
type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

type StockRow struct {
	ProductID int64  `db:"id"`
	Name      string `db:"name"`
	Stock     int    `db:"stock"`
}

// Low lists products whose stock is at or below threshold.
func (r *InventoryRepo) Low(ctx context.Context, threshold int) ([]StockRow, error) {
	var rows []StockRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, stock FROM products
		WHERE stock <= ?
		ORDER BY stock, LOWER(name)`, threshold)
	return rows, storeErr(err, "list stock")
}
