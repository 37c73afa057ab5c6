package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// AddClass inserts a class and returns its id.
func (r *Repository) AddClass(ctx context.Context, c NewClass) (int64, error) {
	const op = "add class"
	if err := checkText(op, "class name", c.Name, maxClassName, true); err != nil {
		return 0, err
	}
	if err := checkText(op, "section", c.Section, maxSection, false); err != nil {
		return 0, err
	}
	if err := checkText(op, "stream", c.Stream, maxStream, false); err != nil {
		return 0, err
	}

	var id int64
	err := r.withConn(ctx, op, func(conn *sql.Conn) error {
		var err error
		id, err = insert(ctx, conn, `
			INSERT INTO classes (class_name, section, stream)
			VALUES (?, ?, ?)
		`, c.Name, stringToNull(c.Section), stringToNull(c.Stream))
		if err != nil {
			return fmt.Errorf("failed to create class: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Debug().Int64("class_id", id).Str("name", c.Name).Msg("Class added")
	return id, nil
}

// ListClasses returns every class ordered by id.
func (r *Repository) ListClasses(ctx context.Context) ([]Class, error) {
	var classes []Class
	err := r.withConn(ctx, "list classes", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT class_id, class_name, section, stream
			FROM classes
			ORDER BY class_id
		`)
		if err != nil {
			return fmt.Errorf("failed to list classes: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c Class
			var section, stream sql.NullString
			if err := rows.Scan(&c.ID, &c.Name, &section, &stream); err != nil {
				return fmt.Errorf("failed to scan class: %w", err)
			}
			c.Section = nullStringValue(section)
			c.Stream = nullStringValue(stream)
			classes = append(classes, c)
		}
		return rows.Err()
	})
	return classes, err
}
