package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Tables lists the schema's tables in dependency order.
var Tables = []string{"classes", "teachers", "subjects", "students", "marks", "fees", "attendance"}

// EnsureSchema creates the database and every table that does not exist yet.
// It never drops or alters existing tables, so it is safe on every start.
// A failure here means the store cannot be used at all.
func EnsureSchema(ctx context.Context, p *Provider) error {
	d := p.Dialect()
	name := p.DatabaseName()

	log.Info().Str("driver", d.Name()).Str("database", name).Msg("Ensuring database schema")

	if err := d.CreateDatabase(ctx, p, name); err != nil {
		return wrapError(d, "ensure schema", err)
	}

	conn, err := p.Connect(ctx, name)
	if err != nil {
		return wrapError(d, "ensure schema", err)
	}
	defer conn.Close()

	statements := splitSQLStatements(d.SchemaSQL())
	for i, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return wrapError(d, "ensure schema", fmt.Errorf("statement %d failed: %w", i+1, err))
		}
	}

	log.Info().Int("tables", len(statements)).Msg("Database schema ready")
	return nil
}

// splitSQLStatements splits a SQL string into individual statements.
// It handles comments and only returns non-empty statements.
func splitSQLStatements(sql string) []string {
	var statements []string
	var current strings.Builder

	lines := strings.SplitSeq(sql, "\n")
	for line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" && stmt != ";" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}

	return statements
}
