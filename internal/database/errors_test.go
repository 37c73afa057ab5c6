package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/schoolrecords/schoolrecords/internal/config"
)

func TestMySQLClassify(t *testing.T) {
	t.Parallel()
	d := mysqlDialect{}

	cases := []struct {
		number uint16
		want   error
	}{
		{1062, ErrConstraint},
		{1452, ErrConstraint},
		{1406, ErrConstraint},
		{1265, ErrConstraint},
		{1045, ErrUnavailable},
		{1049, ErrUnavailable},
		{1213, ErrUnavailable},
		{1146, ErrStore},
	}
	for _, tc := range cases {
		err := fmt.Errorf("failed to create mark: %w", &mysql.MySQLError{Number: tc.number, Message: "boom"})
		wrapped := wrapError(d, "add mark", err)
		require.ErrorIs(t, wrapped, tc.want, "error %d", tc.number)
		require.Contains(t, wrapped.Error(), "boom")
	}

	require.ErrorIs(t, wrapError(d, "list", mysql.ErrInvalidConn), ErrUnavailable)
}

func TestConnectivityErrorsAreUnavailable(t *testing.T) {
	t.Parallel()

	for _, err := range []error{driver.ErrBadConn, context.DeadlineExceeded, context.Canceled} {
		require.ErrorIs(t, wrapError(sqliteDialect{}, "list", fmt.Errorf("query: %w", err)), ErrUnavailable)
	}
}

func TestWrapErrorKeepsExistingKind(t *testing.T) {
	t.Parallel()

	original := notFoundf("get fee", "fee %d does not exist", 7)
	require.Same(t, original, wrapError(mysqlDialect{}, "outer", original))
	require.Nil(t, wrapError(mysqlDialect{}, "noop", nil))

	var opErr *OpError
	require.ErrorAs(t, wrapError(nil, "x", errors.New("odd")), &opErr)
	require.Equal(t, ErrStore, opErr.Kind)
	require.Equal(t, "x: odd", opErr.Error())
}

func TestMySQLDSN(t *testing.T) {
	t.Parallel()
	cfg := config.DatabaseConfig{
		Driver:         config.DriverMySQL,
		Host:           "db.internal",
		User:           "root",
		Password:       "s3cret",
		ConnectTimeout: 7 * time.Second,
	}

	dsn, err := mysqlDialect{}.DSN(cfg, "school")
	require.NoError(t, err)

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "db.internal:3306", parsed.Addr)
	require.Equal(t, "root", parsed.User)
	require.Equal(t, "s3cret", parsed.Passwd)
	require.Equal(t, "school", parsed.DBName)
	require.Equal(t, config.Collation, parsed.Collation)
	require.Equal(t, 7*time.Second, parsed.Timeout)
	require.True(t, parsed.ClientFoundRows)
	require.True(t, parsed.ParseTime)

	cfg.Host = "127.0.0.1:3307"
	dsn, err = mysqlDialect{}.DSN(cfg, "")
	require.NoError(t, err)
	parsed, err = mysql.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:3307", parsed.Addr)
	require.Empty(t, parsed.DBName)
}

func TestDialectFor(t *testing.T) {
	t.Parallel()

	d, err := DialectFor(config.DriverSQLite)
	require.NoError(t, err)
	require.Equal(t, config.DriverSQLite, d.Name())

	_, err = DialectFor("postgres")
	require.Error(t, err)

	require.NoError(t, checkIdentifier("school_2024"))
	require.Error(t, checkIdentifier("school; DROP"))
	require.Error(t, checkIdentifier(""))
}
