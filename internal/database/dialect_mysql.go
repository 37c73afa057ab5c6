package database

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"

	"github.com/schoolrecords/schoolrecords/internal/config"
)

const mysqlDefaultPort = "3306"

type mysqlDialect struct{}

func (mysqlDialect) Name() string       { return config.DriverMySQL }
func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) DSN(cfg config.DatabaseConfig, database string) (string, error) {
	addr := cfg.Host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, mysqlDefaultPort)
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = addr
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.DBName = database
	mc.Collation = config.Collation
	mc.Timeout = cfg.ConnectTimeout
	mc.ParseTime = true
	// RowsAffected reports matched rows, so a payment that lands on an
	// existing fee is never mistaken for a missing one.
	mc.ClientFoundRows = true
	return mc.FormatDSN(), nil
}

func (mysqlDialect) CreateDatabase(ctx context.Context, p *Provider, name string) error {
	if err := checkIdentifier(name); err != nil {
		return err
	}
	conn, err := p.Connect(ctx, "")
	if err != nil {
		return err
	}
	defer conn.Close()

	stmt := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET %s COLLATE %s", name, config.Charset, config.Collation)
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}

func (mysqlDialect) SchemaSQL() string {
	return `
		CREATE TABLE IF NOT EXISTS classes (
			class_id INT AUTO_INCREMENT PRIMARY KEY,
			class_name VARCHAR(10) NOT NULL,
			section VARCHAR(10),
			stream VARCHAR(20)
		);

		CREATE TABLE IF NOT EXISTS teachers (
			teacher_id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			subject_specialization VARCHAR(50),
			email VARCHAR(100)
		);

		CREATE TABLE IF NOT EXISTS subjects (
			subject_id INT AUTO_INCREMENT PRIMARY KEY,
			subject_name VARCHAR(50) NOT NULL,
			teacher_id INT,
			FOREIGN KEY (teacher_id) REFERENCES teachers(teacher_id)
		);

		CREATE TABLE IF NOT EXISTS students (
			student_id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			dob DATE,
			gender ENUM('Male','Female','Other'),
			class_id INT,
			admission_date DATE,
			FOREIGN KEY (class_id) REFERENCES classes(class_id)
		);

		CREATE TABLE IF NOT EXISTS marks (
			mark_id INT AUTO_INCREMENT PRIMARY KEY,
			student_id INT,
			subject_id INT,
			exam_type VARCHAR(20),
			marks_obtained INT,
			max_marks INT,
			FOREIGN KEY (student_id) REFERENCES students(student_id),
			FOREIGN KEY (subject_id) REFERENCES subjects(subject_id)
		);

		CREATE TABLE IF NOT EXISTS fees (
			fee_id INT AUTO_INCREMENT PRIMARY KEY,
			student_id INT,
			total_fee INT,
			paid_fee INT,
			due_fee INT,
			last_payment_date DATE,
			FOREIGN KEY (student_id) REFERENCES students(student_id)
		);

		CREATE TABLE IF NOT EXISTS attendance (
			attendance_id INT AUTO_INCREMENT PRIMARY KEY,
			student_id INT,
			date DATE,
			status ENUM('Present','Absent'),
			UNIQUE(student_id, date),
			FOREIGN KEY (student_id) REFERENCES students(student_id)
		);
	`
}

func (mysqlDialect) UpsertAttendanceSQL() string {
	return `
		INSERT INTO attendance (student_id, date, status)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE status = VALUES(status)
	`
}

func (mysqlDialect) MaintenanceSQL() []string {
	return []string{"ANALYZE TABLE classes, teachers, subjects, students, marks, fees, attendance"}
}

func (mysqlDialect) Classify(err error) error {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return ErrUnavailable
	}
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return nil
	}
	switch me.Number {
	case 1048, // column cannot be null
		1062, // duplicate entry
		1264, // out of range
		1265, // data truncated (enum)
		1292, // incorrect date value
		1364, // field has no default
		1366, // incorrect integer value
		1406, // data too long
		1451, // parent row referenced
		1452, // child row without parent
		3819: // check constraint
		return ErrConstraint
	case 1040, // too many connections
		1044, // access denied to database
		1045, // access denied for user
		1049, // unknown database
		1205, // lock wait timeout
		1213, // deadlock
		// client connection failures
		2002, 2003, 2006, 2013:
		return ErrUnavailable
	}
	return nil
}
