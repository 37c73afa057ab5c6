package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Optimize refreshes the store's planner statistics.
func (r *Repository) Optimize(ctx context.Context) error {
	err := r.withConn(ctx, "optimize", func(conn *sql.Conn) error {
		for _, stmt := range r.provider.Dialect().MaintenanceSQL() {
			// ANALYZE TABLE answers with a result set; drain it either way.
			rows, err := conn.QueryContext(ctx, stmt)
			if err != nil {
				return fmt.Errorf("failed to optimize database: %w", err)
			}
			for rows.Next() {
			}
			if err := rows.Err(); err != nil {
				rows.Close()
				return fmt.Errorf("failed to optimize database: %w", err)
			}
			rows.Close()
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug().Msg("Database optimized")
	return nil
}
