package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"
)

type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindUnique
	KindCheck
	KindForeignKey
)

// Dialect isolates what differs between the SQL backends. Queries in this
// package are written with ? placeholders and passed through Rebind.
type Dialect interface {
	Name() string
	Rebind(query string) string
	TimeArg(t time.Time) any
	Classify(err error) ErrorKind
	TxOptions() *sql.TxOptions
}

// RebindDollar rewrites ? placeholders to $1, $2, ... in order.
func RebindDollar(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// ApplySchema executes a schema script one statement at a time. Statements are
// separated by semicolons and must not contain semicolons themselves.
func ApplySchema(ctx context.Context, db *sql.DB, schema string) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.HasPrefix(stmt, "--") && !strings.Contains(stmt, "\n") {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
