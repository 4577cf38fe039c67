package dbx

import (
	"fmt"
	"strconv"
)

// Dialect describes how to talk to one database/sql driver: the driver name
// passed to sql.Open, the goose dialect used for migrations and the
// positional placeholder syntax.
type Dialect struct {
	Driver       string
	GooseDialect string
	numbered     string
}

var (
	// Postgres is used in production (Supabase or any Postgres via pgx).
	Postgres = Dialect{Driver: "pgx", GooseDialect: "pgx", numbered: "$"}

	// SQLite is used for local development and tests (modernc.org/sqlite).
	SQLite = Dialect{Driver: "sqlite", GooseDialect: "sqlite3", numbered: "?"}
)

// Placeholder returns the n-th (1-based) positional parameter marker.
func (d Dialect) Placeholder(n int) string {
	return d.numbered + strconv.Itoa(n)
}

// DialectFor resolves a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}
