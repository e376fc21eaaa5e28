package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"honeydesk/internal/domain"
)

type CustomerRepo struct{ db *sqlx.DB }

func NewCustomerRepo(db *sqlx.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerCols = `id, external_id, username, full_name, phone, email, region, customer_type, status, is_admin, created_at, updated_at`

// Create inserts c. With replace set, any existing record for the same
// external id is erased (with everything it owns) in the same transaction.
func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer, replace bool) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, storeErr(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	if replace {
		if err := eraseTx(ctx, tx, c.ExternalID); err != nil {
			return 0, err
		}
	}
	ts := now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO customers(external_id, username, full_name, phone, email, region, customer_type, status, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ExternalID, c.Username, c.FullName, c.Phone, c.Email, c.Region, c.CustomerType, c.Status, c.IsAdmin, ts, ts)
	if err != nil {
		return 0, storeErr(err, "insert customer")
	}
	id, _ := res.LastInsertId()
	if err := tx.Commit(); err != nil {
		return 0, storeErr(err, "commit customer")
	}
	c.ID, c.CreatedAt, c.UpdatedAt = id, ts, ts
	return id, nil
}

func (r *CustomerRepo) ByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	if err := r.db.GetContext(ctx, &c, `SELECT `+customerCols+` FROM customers WHERE id = ?`, id); err != nil {
		return nil, getErr(err, "customer")
	}
	return &c, nil
}

func (r *CustomerRepo) ByExternalID(ctx context.Context, externalID string) (*domain.Customer, error) {
	var c domain.Customer
	if err := r.db.GetContext(ctx, &c, `SELECT `+customerCols+` FROM customers WHERE external_id = ?`, externalID); err != nil {
		return nil, getErr(err, "customer")
	}
	return &c, nil
}

// ByUsername matches the display handle case-insensitively, without a leading "@".
func (r *CustomerRepo) ByUsername(ctx context.Context, username string) (*domain.Customer, error) {
	var c domain.Customer
	if err := r.db.GetContext(ctx, &c, `
		SELECT `+customerCols+` FROM customers
		WHERE LOWER(username) = LOWER(?)
		ORDER BY id DESC LIMIT 1`, trimAt(username)); err != nil {
		return nil, getErr(err, "customer")
	}
	return &c, nil
}

// ListRecent returns the newest customers first, optionally filtered by status.
func (r *CustomerRepo) ListRecent(ctx context.Context, status domain.CustomerStatus, limit int) ([]domain.Customer, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []domain.Customer
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+customerCols+` FROM customers
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, status, status, limit)
	return out, storeErr(err, "list customers")
}

// AdminExternalIDs lists the external ids of every admin that is not deleted.
func (r *CustomerRepo) AdminExternalIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `
		SELECT external_id FROM customers
		WHERE is_admin = 1 AND status <> 'Deleted'
		ORDER BY id`)
	return ids, storeErr(err, "list admins")
}

// UpdateStatus overwrites the status without a guard; used for admin user
// management.
func (r *CustomerRepo) UpdateStatus(ctx context.Context, id int64, status domain.CustomerStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE customers SET status = ?, updated_at = ? WHERE id = ?`, status, now(), id)
	if err != nil {
		return storeErr(err, "update customer")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("customer")
	}
	return nil
}

// Transition moves a customer out of one of the from statuses, or reports a conflict.
func (r *CustomerRepo) Transition(ctx context.Context, id int64, to domain.CustomerStatus, from ...domain.CustomerStatus) error {
	return transition(ctx, r.db, "customers", id, string(to), customerStrings(from)...)
}

func (r *CustomerRepo) SetAdmin(ctx context.Context, id int64, admin bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE customers SET is_admin = ?, updated_at = ? WHERE id = ?`, admin, now(), id)
	if err != nil {
		return storeErr(err, "update customer")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("customer")
	}
	return nil
}

// PromoteByUsername marks every record with the handle as an approved admin.
// It reports whether any row matched.
func (r *CustomerRepo) PromoteByUsername(ctx context.Context, username string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE customers SET is_admin = 1, status = 'Approved', updated_at = ?
		WHERE LOWER(username) = LOWER(?) AND status <> 'Deleted'`, now(), trimAt(username))
	if err != nil {
		return false, storeErr(err, "promote customer")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Erase permanently removes the customer and everything they own.
func (r *CustomerRepo) Erase(ctx context.Context, externalID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	if err := eraseTx(ctx, tx, externalID); err != nil {
		return err
	}
	return storeErr(tx.Commit(), "commit erase")
}

func eraseTx(ctx context.Context, tx *sqlx.Tx, externalID string) error {
	steps := []struct{ op, query string }{
		{"delete messages", `DELETE FROM messages WHERE ticket_id IN (SELECT id FROM tickets WHERE user_id = ?)`},
		{"delete tickets", `DELETE FROM tickets WHERE user_id = ?`},
		{"delete orders", `DELETE FROM orders WHERE user_id = ?`},
		{"delete feedback", `DELETE FROM feedback WHERE user_id = ?`},
		{"delete customer", `DELETE FROM customers WHERE external_id = ?`},
	}
	for _, s := range steps {
		if _, err := tx.ExecContext(ctx, s.query, externalID); err != nil {
			return storeErr(err, s.op)
		}
	}
	return nil
}

func (r *CustomerRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM customers WHERE status <> 'Deleted'`)
	return n, storeErr(err, "count customers")
}

func customerStrings(in []domain.CustomerStatus) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func trimAt(s string) string {
	for len(s) > 0 && s[0] == '@' {
		s = s[1:]
	}
	return s
}
