// Package sqldb implements storage.Provider's data operations over
// database/sql. Queries are written with "?" placeholders and rebound for
// the dialect in use, so the SQLite and PostgreSQL stores share one
// implementation and differ only in connection and migration handling.
package sqldb

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
)

// Dialect describes the placeholder style of a driver.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// timeLayout is fixed-width UTC so stored timestamps sort as strings.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping verifies the connection is alive.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// rebind converts "?" placeholders to "$n" for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
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

func (s *Store) exec(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(s.rebind(query), args...)
}

func (s *Store) query(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(s.rebind(query), args...)
}

func (s *Store) queryRow(query string, args ...any) *sql.Row {
	return s.db.QueryRow(s.rebind(query), args...)
}

// execOne runs a statement that must touch exactly one row and reports
// notFound otherwise.
func (s *Store) execOne(notFound error, query string, args ...any) error {
	res, err := s.exec(query, args...)
	if err != nil {
		return err
	}
	return requireRow(res, notFound)
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) txExec(tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	return tx.Exec(s.rebind(query), args...)
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// mapNoRows turns sql.ErrNoRows into the application's not-found error.
func mapNoRows(err error, what string, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFoundf("%s %q", what, id)
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
