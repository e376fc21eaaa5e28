package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"honeydesk/internal/domain"
)

type FeedbackRepo struct{ db *sqlx.DB }

func NewFeedbackRepo(db *sqlx.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

const feedbackCols = `id, user_id, rating, comment, photo_path, status, created_at, updated_at`

func (r *FeedbackRepo) Create(ctx context.Context, f *domain.Feedback, attach Attach) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, storeErr(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO feedback(user_id, rating, comment, photo_path, status, created_at, updated_at)
		VALUES (?, ?, ?, '', 'Pending', ?, ?)`, f.UserID, f.Rating, f.Comment, ts, ts)
	if err != nil {
		return 0, storeErr(err, "insert feedback")
	}
	id, _ := res.LastInsertId()
	if attach != nil {
		path, err := attach(id)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE feedback SET photo_path = ? WHERE id = ?`, path, id); err != nil {
			return 0, storeErr(err, "set feedback photo")
		}
		f.PhotoPath = path
	}
	if err := tx.Commit(); err != nil {
		return 0, storeErr(err, "commit feedback")
	}
	f.ID, f.Status, f.CreatedAt, f.UpdatedAt = id, domain.FeedbackPending, ts, ts
	return id, nil
}

func (r *FeedbackRepo) Get(ctx context.Context, id int64) (*domain.Feedback, error) {
	var f domain.Feedback
	if err := r.db.GetContext(ctx, &f, `SELECT `+feedbackCols+` FROM feedback WHERE id = ?`, id); err != nil {
		return nil, getErr(err, "feedback")
	}
	return &f, nil
}

func (r *FeedbackRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Feedback, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []domain.Feedback
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+feedbackCols+` FROM feedback
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	return out, storeErr(err, "list feedback")
}

func (r *FeedbackRepo) List(ctx context.Context, status domain.FeedbackStatus, limit int) ([]domain.Feedback, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []domain.Feedback
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+feedbackCols+` FROM feedback
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, status, status, limit)
	return out, storeErr(err, "list feedback")
}

// Decide moves Pending feedback to Approved or Rejected exactly once.
func (r *FeedbackRepo) Decide(ctx context.Context, id int64, to domain.FeedbackStatus) error {
	return transition(ctx, r.db, "feedback", id, string(to), string(domain.FeedbackPending))
}
