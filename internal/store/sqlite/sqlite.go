package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/zidnyyasrah/point-of-sale/internal/store/sqlstore"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout matches the text written by the timestamp column defaults, so
// bounds compare correctly as strings.
const timeLayout = "2006-01-02 15:04:05.000"

type dialect struct{}

// Open creates or opens the database file at path and applies the schema.
func Open(ctx context.Context, path string) (*sqlstore.Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection serializes writers and keeps per-connection pragmas stable.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := sqlstore.ApplySchema(ctx, db, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return sqlstore.New(db, dialect{}), nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	var enabled int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("verify foreign_keys: %w", err)
	}
	if enabled != 1 {
		return errors.New("sqlite foreign key enforcement is disabled")
	}
	return nil
}

func (dialect) Name() string { return "sqlite" }

func (dialect) Rebind(query string) string { return query }

func (dialect) TimeArg(t time.Time) any {
	return t.UTC().Format(timeLayout)
}

func (dialect) TxOptions() *sql.TxOptions { return nil }

func (dialect) Classify(err error) sqlstore.ErrorKind {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return sqlstore.KindOther
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return sqlstore.KindUnique
	case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
		return sqlstore.KindCheck
	case sqlite3.ErrConstraintForeignKey:
		return sqlstore.KindForeignKey
	}
	return sqlstore.KindOther
}
