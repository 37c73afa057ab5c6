package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/schoolrecords/schoolrecords/internal/database"
)

// Source is the read side of the repository the workbook is built from.
type Source interface {
	ListStudents(ctx context.Context) ([]database.Student, error)
	ListClasses(ctx context.Context) ([]database.Class, error)
	ListTeachers(ctx context.Context) ([]database.Teacher, error)
	ListSubjects(ctx context.Context) ([]database.Subject, error)
	ListMarks(ctx context.Context, filter database.MarkFilter) ([]database.Mark, error)
	ListFees(ctx context.Context) ([]database.Fee, error)
}

// Sheet names, in workbook order.
const (
	SheetStudents = "Students"
	SheetClasses  = "Classes"
	SheetTeachers = "Teachers"
	SheetSubjects = "Subjects"
	SheetMarks    = "Marks"
	SheetFees     = "Fees"
)

// ContentType is the MIME type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var studentHeader = []string{"ID", "Name", "Gender", "DOB", "Admission Date", "Class ID", "Class", "Section", "Stream"}

type sheet struct {
	name   string
	header []string
	rows   [][]any
}

// Write builds the workbook from src and writes it to w as .xlsx.
func Write(ctx context.Context, src Source, w io.Writer) error {
	sheets, err := collect(ctx, src)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := render(f, sheets); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func collect(ctx context.Context, src Source) ([]sheet, error) {
	students, err := src.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	classes, err := src.ListClasses(ctx)
	if err != nil {
		return nil, err
	}
	teachers, err := src.ListTeachers(ctx)
	if err != nil {
		return nil, err
	}
	subjects, err := src.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	marks, err := src.ListMarks(ctx, database.MarkFilter{})
	if err != nil {
		return nil, err
	}
	fees, err := src.ListFees(ctx)
	if err != nil {
		return nil, err
	}

	s := sheet{name: SheetStudents, header: studentHeader}
	for _, st := range students {
		var classID any
		if st.ClassID != nil {
			classID = *st.ClassID
		}
		s.rows = append(s.rows, []any{st.ID, st.Name, string(st.Gender), st.DOB.String(), st.AdmissionDate.String(),
			classID, st.ClassName, st.Section, st.Stream})
	}

	c := sheet{name: SheetClasses, header: []string{"ID", "Class", "Section", "Stream"}}
	for _, cl := range classes {
		c.rows = append(c.rows, []any{cl.ID, cl.Name, cl.Section, cl.Stream})
	}

	t := sheet{name: SheetTeachers, header: []string{"ID", "Name", "Specialization", "Email"}}
	for _, te := range teachers {
		t.rows = append(t.rows, []any{te.ID, te.Name, te.Specialization, te.Email})
	}

	sub := sheet{name: SheetSubjects, header: []string{"ID", "Subject", "Teacher"}}
	for _, su := range subjects {
		sub.rows = append(sub.rows, []any{su.ID, su.Name, su.TeacherName})
	}

	m := sheet{name: SheetMarks, header: []string{"ID", "Student", "Class", "Subject", "Exam", "Obtained", "Max"}}
	for _, mk := range marks {
		m.rows = append(m.rows, []any{mk.ID, mk.StudentName, mk.ClassLabel, mk.SubjectName, mk.ExamType, mk.Obtained, mk.Max})
	}

	fe := sheet{name: SheetFees, header: []string{"ID", "Student", "Total", "Paid", "Due", "Last Payment"}}
	for _, fee := range fees {
		fe.rows = append(fe.rows, []any{fee.ID, fee.StudentName, fee.Total, fee.Paid, fee.Due, fee.LastPaymentDate.String()})
	}

	return []sheet{s, c, t, sub, m, fe}, nil
}

func render(f *excelize.File, sheets []sheet) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sh := range sheets {
		if i == 0 {
			// A new file starts with one default sheet.
			if err := f.SetSheetName(f.GetSheetName(0), sh.name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", sh.name, err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sh.name, err)
		}

		header := make([]any, len(sh.header))
		for j, h := range sh.header {
			header[j] = h
		}
		if err := f.SetSheetRow(sh.name, "A1", &header); err != nil {
			return fmt.Errorf("failed to write %s header: %w", sh.name, err)
		}
		last, err := excelize.CoordinatesToCellName(len(sh.header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sh.name, "A1", last, bold); err != nil {
			return fmt.Errorf("failed to style %s header: %w", sh.name, err)
		}

		for j, row := range sh.rows {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
				return fmt.Errorf("failed to write %s row %d: %w", sh.name, j+1, err)
			}
		}
	}

	f.SetActiveSheet(0)
	return nil
}
