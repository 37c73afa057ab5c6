package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddStudentListsWithClassDetails(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()
	f := seedFixture(t, r)

	students, err := r.ListStudents(ctx)
	require.NoError(t, err)
	require.Equal(t, []Student{{
		ID:            f.studentID,
		Name:          "Asha",
		Gender:        GenderFemale,
		DOB:           NewDate(2010, time.April, 1),
		AdmissionDate: DateOf(testNow),
		ClassID:       &f.classID,
		ClassName:     "10",
		Section:       "A",
		Stream:        Placeholder,
	}}, students)
}

func TestListStudentsWithoutClass(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()
	f := seedFixture(t, r)

	id, err := r.AddStudent(ctx, NewStudent{Name: "Ravi", Gender: GenderMale})
	require.NoError(t, err)
	require.Greater(t, id, f.studentID)

	students, err := r.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.Equal(t, f.studentID, students[0].ID, "ordered by id")

	ravi := students[1]
	require.Equal(t, "Ravi", ravi.Name)
	require.Nil(t, ravi.ClassID)
	require.True(t, ravi.DOB.IsZero())
	require.Equal(t, Placeholder, ravi.ClassName)
	require.Equal(t, Placeholder, ravi.Section)
	require.Equal(t, Placeholder, ravi.Stream)
}

func TestListStudentsEmpty(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)

	students, err := r.ListStudents(context.Background())
	require.NoError(t, err)
	require.Empty(t, students)
}

func TestAddStudentValidation(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	cases := map[string]NewStudent{
		"blank name":     {Name: "  ", Gender: GenderMale},
		"long name":      {Name: strings.Repeat("x", maxPersonName+1), Gender: GenderMale},
		"unknown gender": {Name: "Asha", Gender: "female"},
		"bad class id":   {Name: "Asha", Gender: GenderFemale, ClassID: ptr(int64(0))},
	}
	for name, s := range cases {
		_, err := r.AddStudent(ctx, s)
		require.ErrorIs(t, err, ErrInvalidInput, name)
	}
	require.Zero(t, countRows(t, r, `SELECT COUNT(*) FROM students`))
}

func TestAddStudentUnknownClass(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)

	_, err := r.AddStudent(context.Background(), NewStudent{Name: "Asha", Gender: GenderFemale, ClassID: ptr(int64(42))})
	require.ErrorIs(t, err, ErrConstraint)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, "add student", opErr.Op)
}

func TestDeleteStudentRemovesDependents(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()
	f := seedFixture(t, r)

	other, err := r.AddStudent(ctx, NewStudent{Name: "Ravi", Gender: GenderMale, ClassID: &f.classID})
	require.NoError(t, err)

	for _, id := range []int64{f.studentID, other} {
		_, err = r.AddMark(ctx, NewMark{StudentID: id, SubjectID: f.subjectID, ExamType: "Midterm", Obtained: 40, Max: 50})
		require.NoError(t, err)
		_, err = r.CreateFee(ctx, NewFee{StudentID: id, Total: 1000})
		require.NoError(t, err)
	}
	require.NoError(t, r.MarkAttendance(ctx, NewDate(2024, time.January, 10), []AttendanceEntry{
		{StudentID: f.studentID, Status: StatusPresent},
		{StudentID: other, Status: StatusAbsent},
	}))

	require.NoError(t, r.DeleteStudent(ctx, f.studentID))

	for _, table := range []string{"students", "marks", "attendance", "fees"} {
		require.Zero(t, countRows(t, r, `SELECT COUNT(*) FROM `+table+` WHERE student_id = ?`, f.studentID), table)
		require.Equal(t, 1, countRows(t, r, `SELECT COUNT(*) FROM `+table+` WHERE student_id = ?`, other), table)
	}

	marks, err := r.ListMarks(ctx, MarkFilter{})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	require.Equal(t, other, marks[0].StudentID)

	fees, err := r.ListFees(ctx)
	require.NoError(t, err)
	require.Len(t, fees, 1)
	require.Equal(t, other, fees[0].StudentID)

	daily, err := r.AttendanceByDate(ctx, NewDate(2024, time.January, 10))
	require.NoError(t, err)
	require.Len(t, daily, 1)
	require.Equal(t, other, daily[0].StudentID)
}

func TestDeleteStudentUnknown(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)

	err := r.DeleteStudent(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)

	err = r.DeleteStudent(context.Background(), -1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteStudentIsAllOrNothing(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()
	f := seedFixture(t, r)

	_, err := r.AddMark(ctx, NewMark{StudentID: f.studentID, SubjectID: f.subjectID, ExamType: "Final", Obtained: 70, Max: 100})
	require.NoError(t, err)
	_, err = r.CreateFee(ctx, NewFee{StudentID: f.studentID, Total: 500, Paid: 100})
	require.NoError(t, err)
	require.NoError(t, r.MarkAttendance(ctx, NewDate(2024, time.January, 10), []AttendanceEntry{
		{StudentID: f.studentID, Status: StatusPresent},
	}))

	// Fail the last step, after the dependent rows are already gone inside the transaction.
	rawExec(t, r, `
		CREATE TRIGGER block_student_delete BEFORE DELETE ON students
		BEGIN
			SELECT RAISE(ABORT, 'blocked');
		END
	`)

	err = r.DeleteStudent(ctx, f.studentID)
	require.ErrorIs(t, err, ErrConstraint)

	for _, table := range []string{"students", "marks", "attendance", "fees"} {
		require.Equal(t, 1, countRows(t, r, `SELECT COUNT(*) FROM `+table+` WHERE student_id = ?`, f.studentID), table)
	}
}
