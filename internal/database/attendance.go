package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// AttendanceHistoryLimit caps AttendanceByStudent.
const AttendanceHistoryLimit = 50

// MarkAttendance records the status of every entry on date. An existing row
// for the same student and date has its status replaced. The batch is applied
// in one transaction: if any entry fails, none are kept.
func (r *Repository) MarkAttendance(ctx context.Context, date Date, entries []AttendanceEntry) error {
	const op = "mark attendance"
	if date.IsZero() {
		return invalidf(op, "date is required")
	}
	for i, e := range entries {
		if err := checkID(op, fmt.Sprintf("entry %d student", i+1), e.StudentID); err != nil {
			return err
		}
		if !e.Status.Valid() {
			return invalidf(op, "entry %d: status must be Present or Absent, got %q", i+1, e.Status)
		}
	}
	if len(entries) == 0 {
		return nil
	}

	err := r.transaction(ctx, op, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, r.provider.Dialect().UpsertAttendanceSQL())
		if err != nil {
			return fmt.Errorf("failed to prepare attendance upsert: %w", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.StudentID, date, string(e.Status)); err != nil {
				return fmt.Errorf("failed to record attendance for student %d: %w", e.StudentID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug().Str("date", date.String()).Int("entries", len(entries)).Msg("Attendance marked")
	return nil
}

// AttendanceByStudent returns the most recent attendance rows, newest first,
// for one student or, when studentID is nil, for everyone.
func (r *Repository) AttendanceByStudent(ctx context.Context, studentID *int64) ([]AttendanceRecord, error) {
	const op = "view attendance by student"
	if err := checkOptionalID(op, "student", studentID); err != nil {
		return nil, err
	}

	var query strings.Builder
	query.WriteString(`
		SELECT a.attendance_id, a.date, a.student_id, s.name, a.status
		FROM attendance a
		JOIN students s ON a.student_id = s.student_id
	`)
	var args []any
	if studentID != nil {
		query.WriteString(" WHERE a.student_id = ?")
		args = append(args, *studentID)
	}
	query.WriteString(" ORDER BY a.date DESC, a.attendance_id DESC LIMIT ?")
	args = append(args, AttendanceHistoryLimit)

	var records []AttendanceRecord
	err := r.withConn(ctx, op, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query.String(), args...)
		if err != nil {
			return fmt.Errorf("failed to list attendance: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var rec AttendanceRecord
			var status sql.NullString
			if err := rows.Scan(&rec.ID, &rec.Date, &rec.StudentID, &rec.StudentName, &status); err != nil {
				return fmt.Errorf("failed to scan attendance: %w", err)
			}
			rec.Status = AttendanceStatus(nullStringValue(status))
			records = append(records, rec)
		}
		return rows.Err()
	})
	return records, err
}

// AttendanceByDate returns every student with their status on date, ordered
// by class name then student name. Students without a row get
// StatusNotRecorded.
func (r *Repository) AttendanceByDate(ctx context.Context, date Date) ([]DailyAttendance, error) {
	const op = "view attendance by date"
	if date.IsZero() {
		return nil, invalidf(op, "date is required")
	}

	var records []DailyAttendance
	err := r.withConn(ctx, op, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT s.student_id, s.name, c.class_name, c.section, a.status
			FROM students s
			LEFT JOIN classes c ON s.class_id = c.class_id
			LEFT JOIN attendance a ON a.student_id = s.student_id AND a.date = ?
			ORDER BY c.class_name, s.name, s.student_id
		`, date)
		if err != nil {
			return fmt.Errorf("failed to list attendance for %s: %w", date, err)
		}
		defer rows.Close()

		for rows.Next() {
			var rec DailyAttendance
			var className, section, status sql.NullString
			if err := rows.Scan(&rec.StudentID, &rec.StudentName, &className, &section, &status); err != nil {
				return fmt.Errorf("failed to scan attendance: %w", err)
			}
			rec.ClassLabel = classLabel(className, section)
			rec.Status = StatusNotRecorded
			if status.Valid && status.String != "" {
				rec.Status = AttendanceStatus(status.String)
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	return records, err
}
