package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/schoolrecords/schoolrecords/internal/database"
)

// ReadStudents parses student rows from the Students sheet of a workbook, or
// its first sheet when there is none. The header row must name at least
// "Name" and "Gender"; "DOB" and "Class ID" are optional. Any other column,
// such as the ones Write adds, is ignored. Blank rows are skipped, and the
// first invalid row fails the whole read.
func ReadStudents(r io.Reader) ([]database.NewStudent, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := SheetStudents
	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheetName)
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "gender"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("sheet %s has no %q column", sheetName, required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var students []database.NewStudent
	for n, row := range rows[1:] {
		line := n + 2
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}

		s := database.NewStudent{Name: cell(row, "name")}
		if s.Name == "" {
			return nil, fmt.Errorf("row %d: name is empty", line)
		}
		if s.Gender, err = database.ParseGender(cell(row, "gender")); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if v := cell(row, "dob"); v != "" {
			if s.DOB, err = database.ParseDate(v); err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
		}
		if v := cell(row, "class id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid class id %q", line, v)
			}
			s.ClassID = &id
		}
		students = append(students, s)
	}
	return students, nil
}
