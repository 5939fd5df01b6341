package database

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

// dialect captures the few differences between the two backends: the
// placeholder style and how a row is locked for the rest of a transaction.
// SQLite has no row locks; its connections open transactions with
// BEGIN IMMEDIATE so the whole write path is serialized instead.
type dialect struct {
	driver    string
	forUpdate string
}

func newDialect(driver string) (dialect, error) {
	switch driver {
	case "", driverSQLite:
		return dialect{driver: driverSQLite}, nil
	case driverPostgres:
		return dialect{driver: driverPostgres, forUpdate: " FOR UPDATE"}, nil
	}
	return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// dsn builds the connection string. For SQLite the path gets the pragmas
// the write path depends on.
func (d dialect) dsn(path string, busyTimeout time.Duration) string {
	if d.driver == driverPostgres {
		return path
	}
	return path + "?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000" +
		"&_foreign_keys=on&_txlock=immediate&_busy_timeout=" + strconv.FormatInt(busyTimeout.Milliseconds(), 10)
}

// rebind rewrites ? placeholders into $n for Postgres.
func (d dialect) rebind(query string) string {
	if d.driver != driverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// lock appends the row-lock clause to a SELECT.
func (d dialect) lock(query string) string {
	return d.rebind(query + d.forUpdate)
}

// isUniqueViolation reports a unique constraint failure from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
