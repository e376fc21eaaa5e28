package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// CategoryRepo reads the category tags carried by products.
type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

type CategoryRow struct {
	Name     string `db:"name"`
	Products int    `db:"products"`
}

func (r *CategoryRepo) List(ctx context.Context) ([]CategoryRow, error) {
	var out []CategoryRow
	err := r.db.SelectContext(ctx, &out, `
		SELECT category AS name, COUNT(*) AS products
		FROM products
		GROUP BY category
		ORDER BY LOWER(category)`)
	return out, storeErr(err, "list categories")
}
