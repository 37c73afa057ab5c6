package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarkAttendanceReplacesStatus(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()
	f := seedFixture(t, r)
	day := NewDate(2024, time.January, 10)

	require.NoError(t, r.MarkAttendance(ctx, day, []AttendanceEntry{{StudentID: f.studentID, Status: StatusPresent}}))
	require.NoError(t, r.MarkAttendance(ctx, day, []AttendanceEntry{{StudentID: f.studentID, Status: StatusAbsent}}))

	require.Equal(t, 1, countRows(t, r, `SELECT COUNT(*) FROM attendance WHERE student_id = ?`, f.studentID))

	records, err := r.AttendanceByStudent(ctx, &f.studentID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, day, records[0].Date)
	require.Equal(t, "Asha", records[0].StudentName)
	require.Equal(t, StatusAbsent, records[0].Status)
}

func TestMarkAttendanceBatchIsAtomic(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()
	f := seedFixture(t, r)
	day := NewDate(2024, time.January, 10)

	other, err := r.AddStudent(ctx, NewStudent{Name: "Ravi", Gender: GenderMale})
	require.NoError(t, err)
	require.NoError(t, r.MarkAttendance(ctx, day, []AttendanceEntry{{StudentID: f.studentID, Status: StatusPresent}}))

	err = r.MarkAttendance(ctx, day, []AttendanceEntry{
		{StudentID: f.studentID, Status: StatusAbsent},
		{StudentID: other, Status: StatusPresent},
		{StudentID: 999, Status: StatusPresent},
	})
	require.ErrorIs(t, err, ErrConstraint)

	daily, err := r.AttendanceByDate(ctx, day)
	require.NoError(t, err)
	statuses := map[int64]AttendanceStatus{}
	for _, d := range daily {
		statuses[d.StudentID] = d.Status
	}
	require.Equal(t, map[int64]AttendanceStatus{
		f.studentID: StatusPresent,
		other:       StatusNotRecorded,
	}, statuses)
}

func TestMarkAttendanceValidation(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()
	f := seedFixture(t, r)
	day := NewDate(2024, time.January, 10)

	err := r.MarkAttendance(ctx, Date{}, []AttendanceEntry{{StudentID: f.studentID, Status: StatusPresent}})
	require.ErrorIs(t, err, ErrInvalidInput)

	err = r.MarkAttendance(ctx, day, []AttendanceEntry{{StudentID: f.studentID, Status: StatusNotRecorded}})
	require.ErrorIs(t, err, ErrInvalidInput)

	err = r.MarkAttendance(ctx, day, []AttendanceEntry{
		{StudentID: f.studentID, Status: StatusPresent},
		{StudentID: 0, Status: StatusPresent},
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, r.MarkAttendance(ctx, day, nil))
	require.Zero(t, countRows(t, r, `SELECT COUNT(*) FROM attendance`))
}

func TestAttendanceByStudentCapsHistory(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()
	f := seedFixture(t, r)

	start := NewDate(2024, time.January, 1).Time()
	for i := range 60 {
		day := DateOf(start.AddDate(0, 0, i))
		status := StatusPresent
		if i%7 == 0 {
			status = StatusAbsent
		}
		require.NoError(t, r.MarkAttendance(ctx, day, []AttendanceEntry{{StudentID: f.studentID, Status: status}}))
	}

	records, err := r.AttendanceByStudent(ctx, &f.studentID)
	require.NoError(t, err)
	require.Len(t, records, AttendanceHistoryLimit)
	require.Equal(t, DateOf(start.AddDate(0, 0, 59)), records[0].Date)
	for i := 1; i < len(records); i++ {
		require.True(t, records[i].Date.Time().Before(records[i-1].Date.Time()), "newest first")
	}

	everyone, err := r.AttendanceByStudent(ctx, nil)
	require.NoError(t, err)
	require.Len(t, everyone, AttendanceHistoryLimit)

	none, err := r.AttendanceByStudent(ctx, ptr(int64(999)))
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestAttendanceByDateListsEveryStudent(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()
	f := seedFixture(t, r)
	day := NewDate(2024, time.January, 10)

	nine, err := r.AddClass(ctx, NewClass{Name: "9", Section: "C"})
	require.NoError(t, err)
	zara, err := r.AddStudent(ctx, NewStudent{Name: "Zara", Gender: GenderFemale, ClassID: &f.classID})
	require.NoError(t, err)
	bala, err := r.AddStudent(ctx, NewStudent{Name: "Bala", Gender: GenderMale, ClassID: &nine})
	require.NoError(t, err)
	drifter, err := r.AddStudent(ctx, NewStudent{Name: "Kiran", Gender: GenderOther})
	require.NoError(t, err)

	require.NoError(t, r.MarkAttendance(ctx, day, []AttendanceEntry{
		{StudentID: zara, Status: StatusAbsent},
		{StudentID: bala, Status: StatusPresent},
	}))
	require.NoError(t, r.MarkAttendance(ctx, NewDate(2024, time.January, 11), []AttendanceEntry{
		{StudentID: f.studentID, Status: StatusPresent},
	}))

	daily, err := r.AttendanceByDate(ctx, day)
	require.NoError(t, err)
	require.Equal(t, []DailyAttendance{
		// NULL class names sort first.
		{StudentID: drifter, StudentName: "Kiran", ClassLabel: Placeholder, Status: StatusNotRecorded},
		{StudentID: f.studentID, StudentName: "Asha", ClassLabel: "10A", Status: StatusNotRecorded},
		{StudentID: zara, StudentName: "Zara", ClassLabel: "10A", Status: StatusAbsent},
		{StudentID: bala, StudentName: "Bala", ClassLabel: "9C", Status: StatusPresent},
	}, daily)

	_, err = r.AttendanceByDate(ctx, Date{})
	require.ErrorIs(t, err, ErrInvalidInput)
}
