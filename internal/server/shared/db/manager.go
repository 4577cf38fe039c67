// Package db opens the profile database and hands out the typed stores
// built on top of it.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mentorship/internal/dbx"
	"github.com/dmitrijs2005/mentorship/internal/logging"
	"github.com/dmitrijs2005/mentorship/internal/server/models"
	"github.com/dmitrijs2005/mentorship/internal/server/records"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var runMigrations = records.RunMigrations

type RepositoryManager struct {
	db            *sql.DB
	dialect       dbx.Dialect
	students      *records.Store[models.Student]
	organizations *records.Store[models.Organization]
}

// NewRepositoryManager opens dsn with the given driver ("pgx" or "sqlite").
// Postgres connections use the simple protocol so they work behind
// transaction-mode poolers such as Supabase's.
func NewRepositoryManager(driver, dsn string, logger logging.Logger) (*RepositoryManager, error) {
	dialect, err := dbx.DialectFor(driver)
	if err != nil {
		return nil, err
	}

	var conn *sql.DB
	switch dialect {
	case dbx.Postgres:
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("db config error: %w", err)
		}
		cfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
		conn = stdlib.OpenDB(*cfg)
	default:
		conn, err = sql.Open(dialect.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}
		// SQLite serializes writers; one connection avoids SQLITE_BUSY.
		conn.SetMaxOpenConns(1)
	}

	return &RepositoryManager{
		db:            conn,
		dialect:       dialect,
		students:      records.NewStore(conn, dialect, records.Students, logger),
		organizations: records.NewStore(conn, dialect, records.Organizations, logger),
	}, nil
}

func (m *RepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *RepositoryManager) Dialect() dbx.Dialect {
	return m.dialect
}

func (m *RepositoryManager) Students() *records.Store[models.Student] {
	return m.students
}

func (m *RepositoryManager) Organizations() *records.Store[models.Organization] {
	return m.organizations
}

func (m *RepositoryManager) RunMigrations(ctx context.Context) error {
	if err := runMigrations(ctx, m.db, m.dialect); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (m *RepositoryManager) Close() error {
	return m.db.Close()
}
