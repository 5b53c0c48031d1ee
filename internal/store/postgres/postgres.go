package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/zidnyyasrah/point-of-sale/internal/store/sqlstore"
)

//go:embed schema.sql
var schemaSQL string

type dialect struct{}

func New(ctx context.Context, databaseURL string) (*sqlstore.Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := sqlstore.ApplySchema(ctx, db, schemaSQL); err != nil {
		_ = db.Close()
		return nil, err
	}

	return sqlstore.New(db, dialect{}), nil
}

func (dialect) Name() string { return "postgres" }

func (dialect) Rebind(query string) string { return sqlstore.RebindDollar(query) }

func (dialect) TimeArg(t time.Time) any { return t.UTC() }

func (dialect) TxOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelSerializable}
}

func (dialect) Classify(err error) sqlstore.ErrorKind {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return sqlstore.KindOther
	}
	switch pgErr.Code {
	case "23505":
		return sqlstore.KindUnique
	case "23514", "23502":
		return sqlstore.KindCheck
	case "23503":
		return sqlstore.KindForeignKey
	}
	return sqlstore.KindOther
}
