package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// AddStudent inserts a student admitted today and returns the new id.
func (r *Repository) AddStudent(ctx context.Context, s NewStudent) (int64, error) {
	const op = "add student"
	if err := checkText(op, "student name", s.Name, maxPersonName, true); err != nil {
		return 0, err
	}
	if !s.Gender.Valid() {
		return 0, invalidf(op, "gender must be Male, Female, or Other, got %q", s.Gender)
	}
	if err := checkOptionalID(op, "class", s.ClassID); err != nil {
		return 0, err
	}

	admitted := r.today()

	var id int64
	err := r.withConn(ctx, op, func(conn *sql.Conn) error {
		var err error
		id, err = insert(ctx, conn, `
			INSERT INTO students (name, dob, gender, class_id, admission_date)
			VALUES (?, ?, ?, ?, ?)
		`, s.Name, s.DOB, string(s.Gender), ptrToNullInt64(s.ClassID), admitted)
		if err != nil {
			return fmt.Errorf("failed to create student: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Debug().Int64("student_id", id).Str("admitted", admitted.String()).Msg("Student added")
	return id, nil
}

// ListStudents returns every student with class details, ordered by id.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	var students []Student
	err := r.withConn(ctx, "list students", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT s.student_id, s.name, s.gender, s.dob, s.admission_date,
				s.class_id, c.class_name, c.section, c.stream
			FROM students s
			LEFT JOIN classes c ON s.class_id = c.class_id
			ORDER BY s.student_id
		`)
		if err != nil {
			return fmt.Errorf("failed to list students: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var st Student
			var gender, className, section, stream sql.NullString
			var classID sql.NullInt64
			if err := rows.Scan(&st.ID, &st.Name, &gender, &st.DOB, &st.AdmissionDate,
				&classID, &className, &section, &stream); err != nil {
				return fmt.Errorf("failed to scan student: %w", err)
			}
			st.Gender = Gender(nullStringValue(gender))
			st.ClassID = nullInt64ToPtr(classID)
			st.ClassName = orPlaceholder(className)
			st.Section = orPlaceholder(section)
			st.Stream = orPlaceholder(stream)
			students = append(students, st)
		}
		return rows.Err()
	})
	return students, err
}

// DeleteStudent removes a student together with its marks, attendance and
// fee rows. Either all of them go or none do.
func (r *Repository) DeleteStudent(ctx context.Context, studentID int64) error {
	const op = "delete student"
	if err := checkID(op, "student", studentID); err != nil {
		return err
	}

	removed := make(map[string]int64, 3)
	err := r.transaction(ctx, op, func(tx *sql.Tx) error {
		for _, table := range []string{"marks", "attendance", "fees"} {
			result, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE student_id = ?", studentID)
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", table, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to count deleted %s: %w", table, err)
			}
			removed[table] = n
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM students WHERE student_id = ?", studentID)
		if err != nil {
			return fmt.Errorf("failed to delete student: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count deleted students: %w", err)
		}
		if n == 0 {
			return notFoundf(op, "student %d does not exist", studentID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug().
		Int64("student_id", studentID).
		Int64("marks", removed["marks"]).
		Int64("attendance", removed["attendance"]).
		Int64("fees", removed["fees"]).
		Msg("Student deleted")
	return nil
}
