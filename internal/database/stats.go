package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Stats returns the dashboard counters.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.withConn(ctx, "stats", func(conn *sql.Conn) error {
		var due sql.NullInt64
		err := conn.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM students),
				(SELECT COUNT(*) FROM teachers),
				(SELECT COUNT(*) FROM classes),
				(SELECT COUNT(*) FROM subjects),
				(SELECT SUM(due_fee) FROM fees WHERE due_fee > 0)
		`).Scan(&s.Students, &s.Teachers, &s.Classes, &s.Subjects, &due)
		if err != nil {
			return fmt.Errorf("failed to count records: %w", err)
		}
		s.OutstandingDue = due.Int64
		return nil
	})
	return s, err
}
