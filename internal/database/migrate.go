package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema_mysql.sql
var mysqlSchema string

//go:embed schema_sqlite.sql
var sqliteSchema string

// Migrate creates all tables and indexes that do not exist yet.  It is
// idempotent and safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	schema := mysqlSchema
	if driver == DriverSQLite {
		schema = sqliteSchema
	}
	for _, stmt := range splitStatements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w (statement: %.60s)", err, stmt)
		}
	}
	return nil
}

// splitStatements cuts a schema file on ';' line endings.  The MySQL
// driver rejects multi-statement Exec calls unless multiStatements is set.
func splitStatements(schema string) []string {
	var out []string
	var b strings.Builder
	for _, line := range strings.Split(schema, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			out = append(out, strings.TrimSpace(b.String()))
			b.Reset()
		}
	}
	if rest := strings.TrimSpace(b.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}
