package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"honeydesk/internal/domain"
)

type TicketRepo struct{ db *sqlx.DB }

func NewTicketRepo(db *sqlx.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketCols = `id, user_id, category, subject, status, attachment_path, created_at, updated_at`

// Create inserts a Pending ticket together with its first message. attach, if
// set, stores the attachment once the ticket id is known.
func (r *TicketRepo) Create(ctx context.Context, t *domain.Ticket, body string, attach Attach) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, storeErr(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO tickets(user_id, category, subject, status, attachment_path, created_at, updated_at)
		VALUES (?, ?, ?, 'Pending', '', ?, ?)`,
		t.UserID, t.Category, t.Subject, ts, ts)
	if err != nil {
		return 0, storeErr(err, "insert ticket")
	}
	id, _ := res.LastInsertId()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages(ticket_id, sender, body, created_at) VALUES (?, 'user', ?, ?)`,
		id, body, ts); err != nil {
		return 0, storeErr(err, "insert message")
	}
	if attach != nil {
		path, err := attach(id)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE tickets SET attachment_path = ? WHERE id = ?`, path, id); err != nil {
			return 0, storeErr(err, "set attachment")
		}
		t.AttachmentPath = path
	}
	if err := tx.Commit(); err != nil {
		return 0, storeErr(err, "commit ticket")
	}
	t.ID, t.Status, t.CreatedAt, t.UpdatedAt = id, domain.TicketPending, ts, ts
	return id, nil
}

func (r *TicketRepo) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := r.db.GetContext(ctx, &t, `SELECT `+ticketCols+` FROM tickets WHERE id = ?`, id); err != nil {
		return nil, getErr(err, "ticket")
	}
	return &t, nil
}

// Active returns the user's active ticket, or NotFound when there is none.
func (r *TicketRepo) Active(ctx context.Context, userID string) (*domain.Ticket, error) {
	query, args, err := sqlx.In(`
		SELECT `+ticketCols+` FROM tickets
		WHERE user_id = ? AND status IN (?)
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, userID, activeStatuses())
	if err != nil {
		return nil, storeErr(err, "build query")
	}
	var t domain.Ticket
	if err := r.db.GetContext(ctx, &t, query, args...); err != nil {
		return nil, getErr(err, "active ticket")
	}
	return &t, nil
}

// CountActive is used to check the one-active-ticket rule.
func (r *TicketRepo) CountActive(ctx context.Context, userID string) (int, error) {
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM tickets WHERE user_id = ? AND status IN (?)`, userID, activeStatuses())
	if err != nil {
		return 0, storeErr(err, "build query")
	}
	var n int
	err = r.db.GetContext(ctx, &n, query, args...)
	return n, storeErr(err, "count tickets")
}

func (r *TicketRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []domain.Ticket
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+ticketCols+` FROM tickets
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	return out, storeErr(err, "list tickets")
}

// List returns recent tickets, optionally filtered by status.
func (r *TicketRepo) List(ctx context.Context, status domain.TicketStatus, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []domain.Ticket
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+ticketCols+` FROM tickets
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, status, status, limit)
	return out, storeErr(err, "list tickets")
}

// AppendMessage adds to the thread and bumps the ticket's updated_at.
func (r *TicketRepo) AppendMessage(ctx context.Context, ticketID int64, sender, body string) (*domain.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeErr(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	res, err := tx.ExecContext(ctx, `UPDATE tickets SET updated_at = ? WHERE id = ?`, ts, ticketID)
	if err != nil {
		return nil, storeErr(err, "touch ticket")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.NotFound("ticket")
	}
	res, err = tx.ExecContext(ctx, `INSERT INTO messages(ticket_id, sender, body, created_at) VALUES (?, ?, ?, ?)`,
		ticketID, sender, body, ts)
	if err != nil {
		return nil, storeErr(err, "insert message")
	}
	id, _ := res.LastInsertId()
	if err := tx.Commit(); err != nil {
		return nil, storeErr(err, "commit message")
	}
	return &domain.Message{ID: id, TicketID: ticketID, Sender: sender, Body: body, CreatedAt: ts}, nil
}

// Messages returns the thread oldest first.
func (r *TicketRepo) Messages(ctx context.Context, ticketID int64) ([]domain.Message, error) {
	var out []domain.Message
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, ticket_id, sender, body, created_at FROM messages
		WHERE ticket_id = ?
		ORDER BY created_at ASC, id ASC`, ticketID)
	return out, storeErr(err, "list messages")
}

// Transition moves a ticket out of one of the from statuses, or reports a conflict.
func (r *TicketRepo) Transition(ctx context.Context, id int64, to domain.TicketStatus, from ...domain.TicketStatus) error {
	in := make([]string, len(from))
	for i, s := range from {
		in[i] = string(s)
	}
	return transition(ctx, r.db, "tickets", id, string(to), in...)
}

func activeStatuses() []string {
	out := make([]string, len(domain.ActiveTicketStatuses))
	for i, s := range domain.ActiveTicketStatuses {
		out[i] = string(s)
	}
	return out
}

// Reopen moves a Closed ticket back to Open unless its owner already has
// another active ticket.
func (r *TicketRepo) Reopen(ctx context.Context, id int64) error {
	query, args, err := sqlx.In(`
		UPDATE tickets SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
		  AND NOT EXISTS (
			SELECT 1 FROM tickets other
			WHERE other.user_id = tickets.user_id AND other.id <> tickets.id AND other.status IN (?))`,
		string(domain.TicketOpen), now(), id, string(domain.TicketClosed), activeStatuses())
	if err != nil {
		return storeErr(err, "build update")
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return storeErr(err, "reopen ticket")
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	t, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.Status != domain.TicketClosed {
		return domain.Conflict("already " + string(t.Status) + ", decided by someone else")
	}
	other, err := r.Active(ctx, t.UserID)
	if err != nil {
		return err
	}
	return domain.Conflict(fmt.Sprintf("the customer already has active ticket #%d, reply there", other.ID))
}
