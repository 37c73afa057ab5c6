package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/schoolrecords/schoolrecords/internal/config"
)

var testNow = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)

func testConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		Driver:         config.DriverSQLite,
		Name:           "school",
		DataDir:        t.TempDir(),
		ConnectTimeout: 5 * time.Second,
		MaxOpenConns:   8,
	}
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()

	p, err := NewProvider(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, p.Close()) })

	require.NoError(t, EnsureSchema(context.Background(), p))
	return p
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	r := NewRepository(newTestProvider(t))
	r.now = func() time.Time { return testNow }
	return r
}

// rawExec runs a statement outside the repository, for seeding and sabotage.
func rawExec(t *testing.T, r *Repository, query string, args ...any) {
	t.Helper()
	ctx := context.Background()
	conn, err := r.provider.Connect(ctx, r.database)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.ExecContext(ctx, query, args...)
	require.NoError(t, err)
}

func countRows(t *testing.T, r *Repository, query string, args ...any) int {
	t.Helper()
	ctx := context.Background()
	conn, err := r.provider.Connect(ctx, r.database)
	require.NoError(t, err)
	defer conn.Close()

	var n int
	require.NoError(t, conn.QueryRowContext(ctx, query, args...).Scan(&n))
	return n
}

func ptr[T any](v T) *T {
	return &v
}

type fixture struct {
	classID   int64
	teacherID int64
	subjectID int64
	studentID int64
}

func seedFixture(t *testing.T, r *Repository) fixture {
	t.Helper()
	ctx := context.Background()

	var f fixture
	var err error
	f.classID, err = r.AddClass(ctx, NewClass{Name: "10", Section: "A"})
	require.NoError(t, err)
	f.teacherID, err = r.AddTeacher(ctx, NewTeacher{Name: "Mr. Rao", Specialization: "Maths", Email: "rao@school.test"})
	require.NoError(t, err)
	f.subjectID, err = r.AddSubject(ctx, NewSubject{Name: "Mathematics", TeacherID: &f.teacherID})
	require.NoError(t, err)
	f.studentID, err = r.AddStudent(ctx, NewStudent{
		Name:    "Asha",
		DOB:     NewDate(2010, time.April, 1),
		Gender:  GenderFemale,
		ClassID: &f.classID,
	})
	require.NoError(t, err)
	return f
}

func TestTransactionRollsBackOnError(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()

	err := r.transaction(ctx, "seed", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO classes (class_name) VALUES ('9')`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO classes (class_name) VALUES (NULL)`)
		return err
	})
	require.ErrorIs(t, err, ErrConstraint)
	require.Zero(t, countRows(t, r, `SELECT COUNT(*) FROM classes`))
}

func TestRepositoryReportsUnavailableStore(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.DataDir = cfg.DataDir + "/missing/nested"
	p, err := NewProvider(cfg)
	require.NoError(t, err)
	defer p.Close()

	// Schema never ran and the directory does not exist, so the file cannot open.
	_, err = NewRepository(p).ListStudents(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrConstraint)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
}

func TestStatsCountsRecords(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	ctx := context.Background()
	f := seedFixture(t, r)

	_, err := r.CreateFee(ctx, NewFee{StudentID: f.studentID, Total: 1000, Paid: 250})
	require.NoError(t, err)

	stats, err := r.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{Students: 1, Teachers: 1, Classes: 1, Subjects: 1, OutstandingDue: 750}, stats)
}

func TestOptimizeRuns(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)
	require.NoError(t, r.Optimize(context.Background()))
}
