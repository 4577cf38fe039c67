package records

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mentorship/internal/dbx"
	"github.com/dmitrijs2005/mentorship/internal/server/migrations"
	"github.com/pressly/goose/v3"
)

var (
	gooseUpContext  = goose.UpContext
	gooseSetDialect = goose.SetDialect
)

// RunMigrations applies the embedded migrations for the given dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := gooseSetDialect(dialect.GooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}
