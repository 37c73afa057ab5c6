package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(MapGetter{})
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.Equal(t, "school", cfg.Database.Name)
	require.Equal(t, DriverMySQL, cfg.Database.Driver)
	require.Equal(t, "@daily", cfg.Maintenance.Schedule)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Parallel()

	cfg, err := Load(MapGetter{
		"DB_DRIVER":            "sqlite",
		"DB_HOST":              "db.internal:3307",
		"DB_USER":              "registrar",
		"DB_PASS":              "s3cret",
		"DB_NAME":              "school_test",
		"DB_DATA_DIR":          "/var/lib/school",
		"DB_CONNECT_TIMEOUT":   "3s",
		"DB_MAX_OPEN_CONNS":    "4",
		"LOG_LEVEL":            "debug",
		"LOG_COMPRESS":         "false",
		"HTTP_PORT":            "9090",
		"MAINTENANCE_SCHEDULE": "",
	})
	require.NoError(t, err)

	require.Equal(t, DriverSQLite, cfg.Database.Driver)
	require.Equal(t, "db.internal:3307", cfg.Database.Host)
	require.Equal(t, "registrar", cfg.Database.User)
	require.Equal(t, "s3cret", cfg.Database.Password)
	require.Equal(t, 3*time.Second, cfg.Database.ConnectTimeout)
	require.Equal(t, 4, cfg.Database.MaxOpenConns)
	require.Equal(t, "/var/lib/school/school_test.db", cfg.Database.SQLitePath())
	require.Equal(t, "debug", cfg.Logging.Level)
	require.False(t, cfg.Logging.Compress)
	require.Equal(t, 9090, cfg.HTTP.Port)
	require.Empty(t, cfg.Maintenance.Schedule, "an explicitly empty schedule disables maintenance")
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Parallel()

	cfg, err := Load(MapGetter{"DB_MAX_OPEN_CONNS": "many", "DB_CONNECT_TIMEOUT": "soon"})
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Database.MaxOpenConns)
	require.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	cases := map[string]MapGetter{
		"driver":      {"DB_DRIVER": "postgres"},
		"db name":     {"DB_NAME": "school; DROP DATABASE x"},
		"port":        {"HTTP_PORT": "70000"},
		"conns":       {"DB_MAX_OPEN_CONNS": "0"},
		"dial budget": {"DB_CONNECT_TIMEOUT": "-1s"},
		"bind":        {"HTTP_BIND": "localhost"},
		"subnet":      {"HTTP_ALLOW_SUBNET": "192.168.1.0"},
		"webhook":     {"NOTIFY_WEBHOOK_URL": "hooks.example.com/school"},
		"discord":     {"NOTIFY_DISCORD_URL": "ftp://discord.example.com/api/webhooks/1/abc"},
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(src)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestAllowedNet(t *testing.T) {
	t.Parallel()

	cfg, err := Load(MapGetter{"HTTP_ALLOW_SUBNET": "10.0.0.0/8", "HTTP_BIND": "127.0.0.1"})
	require.NoError(t, err)
	require.Equal(t, "10.0.0.0/8", cfg.HTTP.AllowedNet().String())
	require.Nil(t, DefaultConfig().HTTP.AllowedNet())
}

func TestNotifySettings(t *testing.T) {
	t.Parallel()

	cfg, err := Load(MapGetter{
		"NOTIFY_WEBHOOK_URL": "https://hooks.example.com/school",
		"NOTIFY_EVENTS":      " payment_recorded, ,student_added ",
	})
	require.NoError(t, err)
	require.True(t, cfg.Notify.Enabled())
	require.Equal(t, []string{"payment_recorded", "student_added"}, cfg.Notify.Events)

	require.False(t, DefaultConfig().Notify.Enabled())
}
