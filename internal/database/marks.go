package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// AddMark records one exam result.
func (r *Repository) AddMark(ctx context.Context, m NewMark) (int64, error) {
	const op = "add mark"
	if err := checkID(op, "student", m.StudentID); err != nil {
		return 0, err
	}
	if err := checkID(op, "subject", m.SubjectID); err != nil {
		return 0, err
	}
	if err := checkText(op, "exam type", m.ExamType, maxExamType, true); err != nil {
		return 0, err
	}
	if m.Max <= 0 {
		return 0, invalidf(op, "max marks must be positive, got %d", m.Max)
	}
	if m.Obtained < 0 || m.Obtained > m.Max {
		return 0, invalidf(op, "marks obtained must be between 0 and %d, got %d", m.Max, m.Obtained)
	}

	var id int64
	err := r.withConn(ctx, op, func(conn *sql.Conn) error {
		var err error
		id, err = insert(ctx, conn, `
			INSERT INTO marks (student_id, subject_id, exam_type, marks_obtained, max_marks)
			VALUES (?, ?, ?, ?, ?)
		`, m.StudentID, m.SubjectID, m.ExamType, m.Obtained, m.Max)
		if err != nil {
			return fmt.Errorf("failed to create mark: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Debug().Int64("mark_id", id).Int64("student_id", m.StudentID).Msg("Mark added")
	return id, nil
}

// ListMarks returns marks newest first, joined with student, subject and
// class names.
func (r *Repository) ListMarks(ctx context.Context, filter MarkFilter) ([]Mark, error) {
	const op = "list marks"
	if err := checkOptionalID(op, "student", filter.StudentID); err != nil {
		return nil, err
	}
	if filter.Limit < 0 {
		return nil, invalidf(op, "limit must not be negative, got %d", filter.Limit)
	}

	var query strings.Builder
	query.WriteString(`
		SELECT m.mark_id, m.student_id, s.name, c.class_name, c.section,
			m.subject_id, sub.subject_name, m.exam_type, m.marks_obtained, m.max_marks
		FROM marks m
		JOIN students s ON m.student_id = s.student_id
		JOIN subjects sub ON m.subject_id = sub.subject_id
		LEFT JOIN classes c ON s.class_id = c.class_id
	`)
	var args []any
	if filter.StudentID != nil {
		query.WriteString(" WHERE m.student_id = ?")
		args = append(args, *filter.StudentID)
	}
	query.WriteString(" ORDER BY m.mark_id DESC")
	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	var marks []Mark
	err := r.withConn(ctx, op, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query.String(), args...)
		if err != nil {
			return fmt.Errorf("failed to list marks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var m Mark
			var className, section, examType sql.NullString
			var obtained, maxMarks sql.NullInt64
			if err := rows.Scan(&m.ID, &m.StudentID, &m.StudentName, &className, &section,
				&m.SubjectID, &m.SubjectName, &examType, &obtained, &maxMarks); err != nil {
				return fmt.Errorf("failed to scan mark: %w", err)
			}
			m.ClassLabel = classLabel(className, section)
			m.ExamType = nullStringValue(examType)
			m.Obtained = obtained.Int64
			m.Max = maxMarks.Int64
			marks = append(marks, m)
		}
		return rows.Err()
	})
	return marks, err
}
