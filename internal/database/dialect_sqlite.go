package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/schoolrecords/schoolrecords/internal/config"
)

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return config.DriverSQLite }
func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) DSN(cfg config.DatabaseConfig, database string) (string, error) {
	if database == "" {
		return "", fmt.Errorf("sqlite has no server-level connection")
	}
	path := filepath.Join(cfg.DataDir, database+".db")
	// Immediate transactions take the write lock up front so concurrent
	// writers queue on the busy timeout instead of failing on lock upgrade.
	return fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate", path), nil
}

func (sqliteDialect) CreateDatabase(_ context.Context, p *Provider, name string) error {
	if err := checkIdentifier(name); err != nil {
		return err
	}
	dir := p.cfg.DataDir
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func (sqliteDialect) SchemaSQL() string {
	return `
		CREATE TABLE IF NOT EXISTS classes (
			class_id INTEGER PRIMARY KEY AUTOINCREMENT,
			class_name VARCHAR(10) NOT NULL,
			section VARCHAR(10),
			stream VARCHAR(20)
		);

		CREATE TABLE IF NOT EXISTS teachers (
			teacher_id INTEGER PRIMARY KEY AUTOINCREMENT,
			name VARCHAR(100) NOT NULL,
			subject_specialization VARCHAR(50),
			email VARCHAR(100)
		);

		CREATE TABLE IF NOT EXISTS subjects (
			subject_id INTEGER PRIMARY KEY AUTOINCREMENT,
			subject_name VARCHAR(50) NOT NULL,
			teacher_id INTEGER,
			FOREIGN KEY (teacher_id) REFERENCES teachers(teacher_id)
		);

		CREATE TABLE IF NOT EXISTS students (
			student_id INTEGER PRIMARY KEY AUTOINCREMENT,
			name VARCHAR(100) NOT NULL,
			dob DATE,
			gender TEXT CHECK (gender IN ('Male', 'Female', 'Other')),
			class_id INTEGER,
			admission_date DATE,
			FOREIGN KEY (class_id) REFERENCES classes(class_id)
		);

		CREATE TABLE IF NOT EXISTS marks (
			mark_id INTEGER PRIMARY KEY AUTOINCREMENT,
			student_id INTEGER,
			subject_id INTEGER,
			exam_type VARCHAR(20),
			marks_obtained INTEGER,
			max_marks INTEGER,
			FOREIGN KEY (student_id) REFERENCES students(student_id),
			FOREIGN KEY (subject_id) REFERENCES subjects(subject_id)
		);

		CREATE TABLE IF NOT EXISTS fees (
			fee_id INTEGER PRIMARY KEY AUTOINCREMENT,
			student_id INTEGER,
			total_fee INTEGER,
			paid_fee INTEGER,
			due_fee INTEGER,
			last_payment_date DATE,
			FOREIGN KEY (student_id) REFERENCES students(student_id)
		);

		CREATE TABLE IF NOT EXISTS attendance (
			attendance_id INTEGER PRIMARY KEY AUTOINCREMENT,
			student_id INTEGER,
			date DATE,
			status TEXT CHECK (status IN ('Present', 'Absent')),
			UNIQUE(student_id, date),
			FOREIGN KEY (student_id) REFERENCES students(student_id)
		);
	`
}

func (sqliteDialect) UpsertAttendanceSQL() string {
	return `
		INSERT INTO attendance (student_id, date, status)
		VALUES (?, ?, ?)
		ON CONFLICT(student_id, date) DO UPDATE SET status = excluded.status
	`
}

func (sqliteDialect) MaintenanceSQL() []string {
	return []string{"PRAGMA optimize"}
}

func (sqliteDialect) Classify(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return nil
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_MISMATCH, sqlite3.SQLITE_TOOBIG:
		return ErrConstraint
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN,
		sqlite3.SQLITE_READONLY, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_PERM, sqlite3.SQLITE_AUTH:
		return ErrUnavailable
	}
	return nil
}
