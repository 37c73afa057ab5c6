package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// AddSubject inserts a subject, optionally taught by an existing teacher.
func (r *Repository) AddSubject(ctx context.Context, s NewSubject) (int64, error) {
	const op = "add subject"
	if err := checkText(op, "subject name", s.Name, maxSubjectName, true); err != nil {
		return 0, err
	}
	if err := checkOptionalID(op, "teacher", s.TeacherID); err != nil {
		return 0, err
	}

	var id int64
	err := r.withConn(ctx, op, func(conn *sql.Conn) error {
		var err error
		id, err = insert(ctx, conn, `
			INSERT INTO subjects (subject_name, teacher_id)
			VALUES (?, ?)
		`, s.Name, ptrToNullInt64(s.TeacherID))
		if err != nil {
			return fmt.Errorf("failed to create subject: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Debug().Int64("subject_id", id).Str("name", s.Name).Msg("Subject added")
	return id, nil
}

// ListSubjects returns every subject with its teacher's name, ordered by
// subject name.
func (r *Repository) ListSubjects(ctx context.Context) ([]Subject, error) {
	var subjects []Subject
	err := r.withConn(ctx, "list subjects", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT sub.subject_id, sub.subject_name, sub.teacher_id, t.name
			FROM subjects sub
			LEFT JOIN teachers t ON sub.teacher_id = t.teacher_id
			ORDER BY sub.subject_name, sub.subject_id
		`)
		if err != nil {
			return fmt.Errorf("failed to list subjects: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var s Subject
			var teacherID sql.NullInt64
			var teacherName sql.NullString
			if err := rows.Scan(&s.ID, &s.Name, &teacherID, &teacherName); err != nil {
				return fmt.Errorf("failed to scan subject: %w", err)
			}
			s.TeacherID = nullInt64ToPtr(teacherID)
			s.TeacherName = nullStringValue(teacherName)
			subjects = append(subjects, s)
		}
		return rows.Err()
	})
	return subjects, err
}
