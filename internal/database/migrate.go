package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Driver names accepted by Migrate.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Migrate creates the desks, users and reservations tables for the given
// driver.  Statements use IF NOT EXISTS so Migrate is safe to run on
// every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var file string
	switch driver {
	case DriverMySQL:
		file = "schema/mysql.sql"
	case DriverSQLite:
		file = "schema/sqlite.sql"
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	raw, err := schemaFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	for _, stmt := range splitStatements(string(raw)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// splitStatements splits a schema file on ';'.  "--" comments run to
// the end of the line and are skipped, so a ';' inside a comment never
// ends a statement.  Quoted literals are kept as written.
func splitStatements(src string) []string {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(cur.String()); stmt != "" {
			out = append(out, stmt)
		}
		cur.Reset()
	}
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case inQuote:
			if ch == '\'' {
				inQuote = false
			}
		case ch == '\'':
			inQuote = true
		case ch == '-' && i+1 < len(src) && src[i+1] == '-':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			cur.WriteByte('\n')
			continue
		case ch == ';':
			flush()
			continue
		}
		cur.WriteByte(ch)
	}
	flush()
	return out
}
