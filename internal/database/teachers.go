package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// AddTeacher inserts a teacher and returns its id.
func (r *Repository) AddTeacher(ctx context.Context, t NewTeacher) (int64, error) {
	const op = "add teacher"
	if err := checkText(op, "teacher name", t.Name, maxPersonName, true); err != nil {
		return 0, err
	}
	if err := checkText(op, "subject specialization", t.Specialization, maxSpecialization, false); err != nil {
		return 0, err
	}
	if err := checkText(op, "email", t.Email, maxEmail, false); err != nil {
		return 0, err
	}

	var id int64
	err := r.withConn(ctx, op, func(conn *sql.Conn) error {
		var err error
		id, err = insert(ctx, conn, `
			INSERT INTO teachers (name, subject_specialization, email)
			VALUES (?, ?, ?)
		`, t.Name, stringToNull(t.Specialization), stringToNull(t.Email))
		if err != nil {
			return fmt.Errorf("failed to create teacher: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Debug().Int64("teacher_id", id).Msg("Teacher added")
	return id, nil
}

// ListTeachers returns every teacher ordered by id.
func (r *Repository) ListTeachers(ctx context.Context) ([]Teacher, error) {
	var teachers []Teacher
	err := r.withConn(ctx, "list teachers", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT teacher_id, name, subject_specialization, email
			FROM teachers
			ORDER BY teacher_id
		`)
		if err != nil {
			return fmt.Errorf("failed to list teachers: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var t Teacher
			var spec, email sql.NullString
			if err := rows.Scan(&t.ID, &t.Name, &spec, &email); err != nil {
				return fmt.Errorf("failed to scan teacher: %w", err)
			}
			t.Specialization = nullStringValue(spec)
			t.Email = nullStringValue(email)
			teachers = append(teachers, t)
		}
		return rows.Err()
	})
	return teachers, err
}
