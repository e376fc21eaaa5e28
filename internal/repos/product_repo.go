package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"honeydesk/internal/domain"
)

// Attach stores an uploaded blob for a freshly written row and returns the
// path to record. It runs inside the write transaction and must not use the db.
type Attach func(id int64) (string, error)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, name, description, price, stock, image_path, category, available_quantities, created_at, updated_at`

// productColumns are the columns an admin edit may touch.
var productColumns = map[string]bool{
	"name": true, "description": true, "price": true, "stock": true,
	"category": true, "available_quantities": true, "image_path": true,
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product, attach Attach) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, storeErr(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	if p.Category == "" {
		p.Category = "General"
	}
	ts := now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO products(name, description, price, stock, image_path, category, available_quantities, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?, ?, ?)`,
		p.Name, p.Description, p.Price.String(), p.Stock, p.Category, p.AvailableQuantities, ts, ts)
	if err != nil {
		return 0, storeErr(err, "insert product")
	}
	id, _ := res.LastInsertId()
	if attach != nil {
		path, err := attach(id)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE products SET image_path = ? WHERE id = ?`, path, id); err != nil {
			return 0, storeErr(err, "set product image")
		}
		p.ImagePath = path
	}
	if err := tx.Commit(); err != nil {
		return 0, storeErr(err, "commit product")
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, ts, ts
	return id, nil
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.GetContext(ctx, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id); err != nil {
		return nil, getErr(err, "product")
	}
	return &p, nil
}

// List returns the catalog by name, optionally limited to one category.
func (r *ProductRepo) List(ctx context.Context, category string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+productCols+` FROM products
		WHERE (? = '' OR LOWER(category) = LOWER(?))
		ORDER BY LOWER(name), id`, category, category)
	return out, storeErr(err, "list products")
}

func (r *ProductRepo) Search(ctx context.Context, q string, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	like := "%" + strings.ToLower(q) + "%"
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+productCols+` FROM products
		WHERE LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?
		ORDER BY LOWER(name), id
		LIMIT ?`, like, like, like, limit)
	return out, storeErr(err, "search products")
}

// Update overwrites the given columns in place.
func (r *ProductRepo) Update(ctx context.Context, id int64, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	sets := make([]string, 0, len(changes)+1)
	args := make([]any, 0, len(changes)+2)
	for col, v := range changes {
		if !productColumns[col] {
			return domain.Validation("unknown product field %q", col)
		}
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now(), id)
	res, err := r.db.ExecContext(ctx, `UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return storeErr(err, "update product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("product")
	}
	return nil
}

// SetImage replaces the product image inside one transaction.
func (r *ProductRepo) SetImage(ctx context.Context, id int64, attach Attach) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", storeErr(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM products WHERE id = ?`, id); err != nil {
		return "", storeErr(err, "load product")
	}
	if exists == 0 {
		return "", domain.NotFound("product")
	}
	path, err := attach(id)
	if err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE products SET image_path = ?, updated_at = ? WHERE id = ?`, path, now(), id); err != nil {
		return "", storeErr(err, "set product image")
	}
	return path, storeErr(tx.Commit(), "commit product image")
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return storeErr(err, "delete product")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("product")
	}
	return nil
}
