package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"honeydesk/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `id, user_id, product_name, price, quantity, address, payment, status, created_at, updated_at`

// Create inserts a Pending order.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) (int64, error) {
	ts := now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO orders(user_id, product_name, price, quantity, address, payment, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 'Pending', ?, ?)`,
		o.UserID, o.ProductName, o.Price.String(), o.Quantity, o.Address, o.Payment, ts, ts)
	if err != nil {
		return 0, storeErr(err, "insert order")
	}
	id, _ := res.LastInsertId()
	o.ID, o.Status, o.CreatedAt, o.UpdatedAt = id, domain.OrderPending, ts, ts
	return id, nil
}

func (r *OrderRepo) Get(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.GetContext(ctx, &o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id); err != nil {
		return nil, getErr(err, "order")
	}
	return &o, nil
}

// ListLatest returns the newest orders first, optionally filtered by status.
func (r *OrderRepo) ListLatest(ctx context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Order
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+orderCols+` FROM orders
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, status, status, limit)
	return out, storeErr(err, "list orders")
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []domain.Order
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+orderCols+` FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	return out, storeErr(err, "list orders")
}

// Decide moves a Pending order to Approved or Rejected exactly once.
func (r *OrderRepo) Decide(ctx context.Context, id int64, to domain.OrderStatus) error {
	return transition(ctx, r.db, "orders", id, string(to), string(domain.OrderPending))
}

func (r *OrderRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID)
	return n, storeErr(err, "count orders")
}

// Revenue sums the snapshot price of approved orders. Integer quantities
// multiply the price; pack-size quantities are priced per pack. Orders with a
// zero price snapshot are counted separately and not guessed at.
func (r *OrderRepo) Revenue(ctx context.Context) (decimal.Decimal, int, error) {
	var rows []struct {
		Price    decimal.Decimal `db:"price"`
		Quantity string          `db:"quantity"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT price, quantity FROM orders WHERE status = 'Approved'`); err != nil {
		return decimal.Zero, 0, storeErr(err, "load revenue")
	}
	total := decimal.Zero
	unpriced := 0
	for _, row := range rows {
		if row.Price.IsZero() {
			unpriced++
			continue
		}
		total = total.Add(row.Price.Mul(decimal.NewFromInt(int64(packCount(row.Quantity)))))
	}
	return total, unpriced, nil
}

func packCount(q string) int {
	n := 0
	for _, r := range q {
		if r < '0' || r > '9' {
			return 1
		}
		n = n*10 + int(r-'0')
		if n > 1_000_000 {
			return 1
		}
	}
	if n < 1 {
		return 1
	}
	return n
}
