package database

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Gender values accepted by the students table.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Valid reports whether g is one of the stored enum values.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// ParseGender accepts any letter case.
func ParseGender(s string) (Gender, error) {
	for _, g := range []Gender{GenderMale, GenderFemale, GenderOther} {
		if strings.EqualFold(strings.TrimSpace(s), string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("gender must be Male, Female, or Other, got %q", s)
}

// AttendanceStatus values accepted by the attendance table.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusAbsent  AttendanceStatus = "Absent"

	// StatusNotRecorded is shown for students with no row on a given date.
	// It is never stored.
	StatusNotRecorded AttendanceStatus = "N/A"
)

func (s AttendanceStatus) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// ParseAttendanceStatus accepts "Present"/"Absent" in any case, or the
// register shorthand "P"/"A".
func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p", "present":
		return StatusPresent, nil
	case "a", "absent":
		return StatusAbsent, nil
	}
	return "", fmt.Errorf("attendance status must be Present or Absent, got %q", s)
}

// Column widths of the VARCHAR columns, checked before writing so both
// dialects reject oversize text the same way.
const (
	maxClassName      = 10
	maxSection        = 10
	maxStream         = 20
	maxPersonName     = 100
	maxSpecialization = 50
	maxEmail          = 100
	maxSubjectName    = 50
	maxExamType       = 20
)

type Class struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Section string `json:"section"`
	Stream  string `json:"stream"`
}

type NewClass struct {
	Name    string `json:"name"`
	Section string `json:"section"`
	Stream  string `json:"stream"`
}

type Teacher struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"subject_specialization"`
	Email          string `json:"email"`
}

type NewTeacher struct {
	Name           string `json:"name"`
	Specialization string `json:"subject_specialization"`
	Email          string `json:"email"`
}

type Subject struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	TeacherID   *int64 `json:"teacher_id"`
	TeacherName string `json:"teacher_name"`
}

type NewSubject struct {
	Name      string `json:"name"`
	TeacherID *int64 `json:"teacher_id"`
}

// Student is one row of the student listing. ClassName, Section and Stream
// hold Placeholder when the student has no class or the class lacks them.
type Student struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Gender        Gender `json:"gender"`
	DOB           Date   `json:"dob"`
	AdmissionDate Date   `json:"admission_date"`
	ClassID       *int64 `json:"class_id"`
	ClassName     string `json:"class_name"`
	Section       string `json:"section"`
	Stream        string `json:"stream"`
}

type NewStudent struct {
	Name    string `json:"name"`
	DOB     Date   `json:"dob"`
	Gender  Gender `json:"gender"`
	ClassID *int64 `json:"class_id"`
}

type Mark struct {
	ID          int64  `json:"id"`
	StudentID   int64  `json:"student_id"`
	StudentName string `json:"student_name"`
	ClassLabel  string `json:"class"`
	SubjectID   int64  `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	ExamType    string `json:"exam_type"`
	Obtained    int64  `json:"marks_obtained"`
	Max         int64  `json:"max_marks"`
}

type NewMark struct {
	StudentID int64  `json:"student_id"`
	SubjectID int64  `json:"subject_id"`
	ExamType  string `json:"exam_type"`
	Obtained  int64  `json:"marks_obtained"`
	Max       int64  `json:"max_marks"`
}

// MarkFilter narrows ListMarks. A nil StudentID lists every student; a zero
// Limit lists every row.
type MarkFilter struct {
	StudentID *int64
	Limit     int
}

type AttendanceEntry struct {
	StudentID int64            `json:"student_id"`
	Status    AttendanceStatus `json:"status"`
}

type AttendanceRecord struct {
	ID          int64            `json:"id"`
	Date        Date             `json:"date"`
	StudentID   int64            `json:"student_id"`
	StudentName string           `json:"student_name"`
	Status      AttendanceStatus `json:"status"`
}

// DailyAttendance is one student's standing on a given date.
type DailyAttendance struct {
	StudentID   int64            `json:"student_id"`
	StudentName string           `json:"student_name"`
	ClassLabel  string           `json:"class"`
	Status      AttendanceStatus `json:"status"`
}

type Fee struct {
	ID              int64  `json:"id"`
	StudentID       int64  `json:"student_id"`
	StudentName     string `json:"student_name"`
	Total           int64  `json:"total_fee"`
	Paid            int64  `json:"paid_fee"`
	Due             int64  `json:"due_fee"`
	LastPaymentDate Date   `json:"last_payment_date"`
}

type NewFee struct {
	StudentID int64 `json:"student_id"`
	Total     int64 `json:"total_fee"`
	Paid      int64 `json:"paid_fee"`
}

// Stats backs the dashboard counters.
type Stats struct {
	Students       int64 `json:"students"`
	Teachers       int64 `json:"teachers"`
	Classes        int64 `json:"classes"`
	Subjects       int64 `json:"subjects"`
	OutstandingDue int64 `json:"outstanding_due"`
}

func checkText(op, field, value string, maxLen int, required bool) error {
	if required && strings.TrimSpace(value) == "" {
		return invalidf(op, "%s is required", field)
	}
	if n := utf8.RuneCountInString(value); n > maxLen {
		return invalidf(op, "%s is %d characters, limit is %d", field, n, maxLen)
	}
	return nil
}

func checkID(op, field string, id int64) error {
	if id <= 0 {
		return invalidf(op, "%s must be a positive id, got %d", field, id)
	}
	return nil
}

func checkOptionalID(op, field string, id *int64) error {
	if id == nil {
		return nil
	}
	return checkID(op, field, *id)
}
