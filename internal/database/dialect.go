package database

import (
	"context"
	"fmt"
	"regexp"

	"github.com/schoolrecords/schoolrecords/internal/config"
)

// Dialect isolates the statements and error codes that differ between stores.
type Dialect interface {
	// Name is the config.Driver value the dialect serves.
	Name() string
	// DriverName is the database/sql driver to open.
	DriverName() string
	// DSN returns the connection string; an empty database selects no default database.
	DSN(cfg config.DatabaseConfig, database string) (string, error)
	// CreateDatabase makes sure the named database exists.
	CreateDatabase(ctx context.Context, p *Provider, name string) error
	// SchemaSQL is the semicolon-terminated DDL for all tables in dependency order.
	SchemaSQL() string
	// UpsertAttendanceSQL inserts (student_id, date, status) or replaces the status.
	UpsertAttendanceSQL() string
	// MaintenanceSQL refreshes planner statistics.
	MaintenanceSQL() []string
	// Classify maps a driver error to an error kind, or nil when unknown.
	Classify(err error) error
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// DialectFor returns the dialect registered for a config driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case config.DriverMySQL:
		return mysqlDialect{}, nil
	case config.DriverSQLite:
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func checkIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid database name %q", name)
	}
	return nil
}
