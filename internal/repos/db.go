package repos

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"honeydesk/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// OpenDB opens the sqlite database and brings the schema up to date.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: keeps :memory: databases alive and serializes writers,
	// which is what the guarded status updates rely on.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(db *sqlx.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db.DB, "migrations")
}

// MigrationVersion reports the current schema version.
func MigrationVersion(db *sqlx.DB) (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db.DB)
}

const tsLayout = "2006-01-02 15:04:05.000000"

// now returns a fixed-width UTC timestamp so TEXT ordering matches time ordering.
func now() string { return time.Now().UTC().Format(tsLayout) }

func storeErr(err error, op string) error {
	if err == nil {
		return nil
	}
	return domain.Storage(err, op)
}

// getErr maps sql.ErrNoRows to a NotFound error for the named entity.
func getErr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(what)
	}
	return storeErr(err, "load "+what)
}

// transition runs a guarded status update and tells a lost race apart from
// a missing row.
func transition(ctx context.Context, db *sqlx.DB, table string, id int64, to string, from ...string) error {
	query, args, err := sqlx.In(
		`UPDATE `+table+` SET status = ?, updated_at = ? WHERE id = ? AND status IN (?)`,
		to, now(), id, from)
	if err != nil {
		return storeErr(err, "build update")
	}
	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return storeErr(err, "update "+table)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}
	var current string
	if err := db.GetContext(ctx, &current, `SELECT status FROM `+table+` WHERE id = ?`, id); err != nil {
		return getErr(err, singular(table))
	}
	return domain.Conflict("already " + current + ", decided by someone else")
}

func singular(table string) string {
	switch table {
	case "customers":
		return "customer"
	case "orders":
		return "order"
	case "tickets":
		return "ticket"
	case "products":
		return "product"
	}
	return table
}
