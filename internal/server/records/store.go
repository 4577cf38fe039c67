// Package records provides generic CRUD helpers over the profile tables.
// A Store knows nothing about business rules: it maps one Go type onto one
// table through a Table descriptor, logs every outcome and translates driver
// errors into the sentinels in package common.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/dmitrijs2005/mentorship/internal/common"
	"github.com/dmitrijs2005/mentorship/internal/dbx"
	"github.com/dmitrijs2005/mentorship/internal/logging"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Table maps T onto a table. Columns[0] is the primary key; Values and
// Targets must follow the order of Columns.
type Table[T any] struct {
	Name    string
	Columns []string
	OrderBy string
	Key     func(row *T) string
	Values  func(row *T) []any
	Targets func(row *T) []any
}

func (t Table[T]) hasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// Filter restricts List to rows where Column equals Value.
type Filter struct {
	Column string
	Value  any
}

// Patch holds column updates for Update. The primary key cannot be patched.
type Patch map[string]any

type Store[T any] struct {
	db      *sql.DB
	dialect dbx.Dialect
	table   Table[T]
	logger  logging.Logger
}

func NewStore[T any](db *sql.DB, dialect dbx.Dialect, table Table[T], logger logging.Logger) *Store[T] {
	return &Store[T]{
		db:      db,
		dialect: dialect,
		table:   table,
		logger:  logger.With("module", "records", "table", table.Name),
	}
}

// Insert probes the table and inserts row in one transaction, returning the
// row as stored.
func (s *Store[T]) Insert(ctx context.Context, row *T) (*T, error) {
	cols := strings.Join(s.table.Columns, ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		s.table.Name, cols, s.placeholders(1, len(s.table.Columns)), cols)

	inserted := new(T)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.probe(ctx, tx); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, query, s.table.Values(row)...).Scan(s.table.Targets(inserted)...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrorNoRowReturned
			}
			return mapError(err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "insert failed", "operation", "insert", "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "row inserted", "operation", "insert", "id", s.table.Key(inserted))
	return inserted, nil
}

func (s *Store[T]) Get(ctx context.Context, id string) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(s.table.Columns, ", "), s.table.Name, s.table.Columns[0], s.dialect.Placeholder(1))

	row := new(T)
	if err := s.db.QueryRowContext(ctx, query, id).Scan(s.table.Targets(row)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug(ctx, "row not found", "operation", "get", "id", id)
			return nil, common.ErrorNotFound
		}
		err = mapError(err)
		s.logger.Error(ctx, "get failed", "operation", "get", "id", id, "error", err)
		return nil, err
	}

	s.logger.Debug(ctx, "row fetched", "operation", "get", "id", id)
	return row, nil
}

// List returns rows matching all filters, ordered by the table's OrderBy
// column when set.
func (s *Store[T]) List(ctx context.Context, filters ...Filter) ([]*T, error) {
	var (
		where []string
		args  []any
	)
	for _, f := range filters {
		if !s.table.hasColumn(f.Column) {
			return nil, fmt.Errorf("%w: %s", common.ErrorUnknownColumn, f.Column)
		}
		args = append(args, f.Value)
		where = append(where, fmt.Sprintf("%s = %s", f.Column, s.dialect.Placeholder(len(args))))
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(s.table.Columns, ", "), s.table.Name)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if s.table.OrderBy != "" {
		query += " ORDER BY " + s.table.OrderBy
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		err = mapError(err)
		s.logger.Error(ctx, "list failed", "operation", "list", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		row := new(T)
		if err := rows.Scan(s.table.Targets(row)...); err != nil {
			s.logger.Error(ctx, "list scan failed", "operation", "list", "error", err)
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error(ctx, "list failed", "operation", "list", "error", err)
		return nil, fmt.Errorf("db error: %w", err)
	}

	s.logger.Debug(ctx, "rows listed", "operation", "list", "count", len(out))
	return out, nil
}

// Update applies patch to the row with the given id and returns the updated
// row. An empty patch returns the current row.
func (s *Store[T]) Update(ctx context.Context, id string, patch Patch) (*T, error) {
	if len(patch) == 0 {
		return s.Get(ctx, id)
	}

	keys := make([]string, 0, len(patch))
	for k := range patch {
		if k == s.table.Columns[0] || !s.table.hasColumn(k) {
			return nil, fmt.Errorf("%w: %s", common.ErrorUnknownColumn, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		sets = append(sets, fmt.Sprintf("%s = %s", k, s.dialect.Placeholder(i+1)))
		args = append(args, patch[k])
	}
	args = append(args, id)

	cols := strings.Join(s.table.Columns, ", ")
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s RETURNING %s",
		s.table.Name, strings.Join(sets, ", "), s.table.Columns[0], s.dialect.Placeholder(len(args)), cols)

	row := new(T)
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(s.table.Targets(row)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug(ctx, "row not found", "operation", "update", "id", id)
			return nil, common.ErrorNotFound
		}
		err = mapError(err)
		s.logger.Error(ctx, "update failed", "operation", "update", "id", id, "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "row updated", "operation", "update", "id", id, "columns", keys)
	return row, nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", s.table.Name, s.table.Columns[0], s.dialect.Placeholder(1))

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		err = mapError(err)
		s.logger.Error(ctx, "delete failed", "operation", "delete", "id", id, "error", err)
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		s.logger.Debug(ctx, "row not found", "operation", "delete", "id", id)
		return common.ErrorNotFound
	}

	s.logger.Info(ctx, "row deleted", "operation", "delete", "id", id)
	return nil
}

func (s *Store[T]) probe(ctx context.Context, tx dbx.DBTX) error {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", s.table.Name))
	if err != nil {
		return fmt.Errorf("table %s might not exist or is not accessible: %w", s.table.Name, err)
	}
	return rows.Close()
}

func (s *Store[T]) placeholders(from, n int) string {
	p := make([]string, n)
	for i := range p {
		p[i] = s.dialect.Placeholder(from + i)
	}
	return strings.Join(p, ", ")
}

// mapError translates unique-key violations from either driver.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %w", common.ErrorAlreadyExists, err)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")) {
			return fmt.Errorf("%w: %w", common.ErrorAlreadyExists, err)
		}
	}

	return fmt.Errorf("db error: %w", err)
}
