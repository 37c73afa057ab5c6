package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	// Collation is the Unicode-capable collation every MySQL connection uses.
	Collation = "utf8mb4_unicode_ci"
	// Charset matches Collation.
	Charset = "utf8mb4"

	defaultDriver          = DriverMySQL
	defaultHost            = "localhost"
	defaultUser            = "root"
	defaultDatabaseName    = "school"
	defaultDataDir         = "."
	defaultConnectTimeout  = 10 * time.Second
	defaultMaxOpenConns    = 10
	defaultLogLevel        = "info"
	defaultLogFile         = "schoolrecords.log"
	defaultLogMaxSizeMB    = 50
	defaultLogMaxBackups   = 5
	defaultLogMaxAgeDays   = 30
	defaultLogCompress     = true
	defaultHTTPPort        = 8080
	defaultHTTPTimeout     = 60 * time.Second
	defaultMaintenanceCron = "@daily"
)

var ErrInvalidConfig = errors.New("invalid config")

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// Config is built once at startup and passed to every component that needs it.
type Config struct {
	Database    DatabaseConfig
	Logging     LoggingConfig
	HTTP        HTTPConfig
	Maintenance MaintenanceConfig
	Notify      NotifyConfig
}

// DatabaseConfig holds the store connection settings.
type DatabaseConfig struct {
	Driver         string
	Host           string
	User           string
	Password       string
	Name           string
	DataDir        string
	ConnectTimeout time.Duration
	MaxOpenConns   int
}

// SQLitePath is the database file used by the sqlite driver.
func (c DatabaseConfig) SQLitePath() string {
	return filepath.Join(c.DataDir, c.Name+".db")
}

type LoggingConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type HTTPConfig struct {
	Bind    string
	Port    int
	Timeout time.Duration
	// AllowSubnet is a CIDR the direct peer must belong to; empty allows all.
	AllowSubnet string
}

// AllowedNet returns the parsed AllowSubnet, or nil when unrestricted.
func (c HTTPConfig) AllowedNet() *net.IPNet {
	if c.AllowSubnet == "" {
		return nil
	}
	_, n, err := net.ParseCIDR(c.AllowSubnet)
	if err != nil {
		return nil
	}
	return n
}

type MaintenanceConfig struct {
	// Schedule is a cron spec; empty disables scheduled maintenance.
	Schedule string
}

// NotifyConfig selects where record events are forwarded while serving.
// Both URLs empty disables notifications.
type NotifyConfig struct {
	WebhookURL      string
	WebhookBody     string
	DiscordURL      string
	DiscordUsername string
	// Events limits which event types are sent; empty sends all.
	Events []string
}

// Enabled reports whether any notification target is configured.
func (c NotifyConfig) Enabled() bool {
	return c.WebhookURL != "" || c.DiscordURL != ""
}

// DefaultConfig returns the configuration used when no environment is set.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:         defaultDriver,
			Host:           defaultHost,
			User:           defaultUser,
			Name:           defaultDatabaseName,
			DataDir:        defaultDataDir,
			ConnectTimeout: defaultConnectTimeout,
			MaxOpenConns:   defaultMaxOpenConns,
		},
		Logging: LoggingConfig{
			Level:      defaultLogLevel,
			File:       defaultLogFile,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
			Compress:   defaultLogCompress,
		},
		HTTP: HTTPConfig{
			Port:    defaultHTTPPort,
			Timeout: defaultHTTPTimeout,
		},
		Maintenance: MaintenanceConfig{
			Schedule: defaultMaintenanceCron,
		},
	}
}

// Load builds a Config from the given source, falling back to defaults.
func Load(src Getter) (Config, error) {
	l := NewLoader(src)
	def := DefaultConfig()

	cfg := Config{
		Database: DatabaseConfig{
			Driver:         l.String("DB_DRIVER", def.Database.Driver),
			Host:           l.String("DB_HOST", def.Database.Host),
			User:           l.String("DB_USER", def.Database.User),
			Password:       l.String("DB_PASS", ""),
			Name:           l.String("DB_NAME", def.Database.Name),
			DataDir:        l.String("DB_DATA_DIR", def.Database.DataDir),
			ConnectTimeout: l.Duration("DB_CONNECT_TIMEOUT", def.Database.ConnectTimeout),
			MaxOpenConns:   l.Int("DB_MAX_OPEN_CONNS", def.Database.MaxOpenConns),
		},
		Logging: LoggingConfig{
			Level:      l.String("LOG_LEVEL", def.Logging.Level),
			File:       l.String("LOG_FILE", def.Logging.File),
			MaxSizeMB:  l.Int("LOG_MAX_SIZE_MB", def.Logging.MaxSizeMB),
			MaxBackups: l.Int("LOG_MAX_BACKUPS", def.Logging.MaxBackups),
			MaxAgeDays: l.Int("LOG_MAX_AGE_DAYS", def.Logging.MaxAgeDays),
			Compress:   l.Bool("LOG_COMPRESS", def.Logging.Compress),
		},
		HTTP: HTTPConfig{
			Bind:        l.String("HTTP_BIND", ""),
			Port:        l.Int("HTTP_PORT", def.HTTP.Port),
			Timeout:     l.Duration("HTTP_TIMEOUT", def.HTTP.Timeout),
			AllowSubnet: l.String("HTTP_ALLOW_SUBNET", ""),
		},
		Maintenance: def.Maintenance,
		Notify: NotifyConfig{
			WebhookURL:      l.String("NOTIFY_WEBHOOK_URL", ""),
			WebhookBody:     l.String("NOTIFY_WEBHOOK_BODY", ""),
			DiscordURL:      l.String("NOTIFY_DISCORD_URL", ""),
			DiscordUsername: l.String("NOTIFY_DISCORD_USERNAME", ""),
			Events:          splitList(l.String("NOTIFY_EVENTS", "")),
		},
	}
	if schedule, ok := l.Raw("MAINTENANCE_SCHEDULE"); ok {
		cfg.Maintenance.Schedule = schedule
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late or unsafely.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("%w: DB_DRIVER must be %q or %q, got %q", ErrInvalidConfig, DriverMySQL, DriverSQLite, c.Database.Driver)
	}
	// The database name ends up as an identifier in CREATE DATABASE.
	if !identifierPattern.MatchString(c.Database.Name) {
		return fmt.Errorf("%w: DB_NAME %q must contain only letters, digits, and underscores", ErrInvalidConfig, c.Database.Name)
	}
	if c.Database.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: DB_CONNECT_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("%w: DB_MAX_OPEN_CONNS must be positive", ErrInvalidConfig)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("%w: HTTP_PORT out of range: %d", ErrInvalidConfig, c.HTTP.Port)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("%w: HTTP_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.HTTP.Bind != "" && net.ParseIP(c.HTTP.Bind) == nil {
		return fmt.Errorf("%w: invalid HTTP_BIND address: %s", ErrInvalidConfig, c.HTTP.Bind)
	}
	if c.HTTP.AllowSubnet != "" {
		if _, _, err := net.ParseCIDR(c.HTTP.AllowSubnet); err != nil {
			return fmt.Errorf("%w: invalid HTTP_ALLOW_SUBNET CIDR: %s", ErrInvalidConfig, c.HTTP.AllowSubnet)
		}
	}
	for key, raw := range map[string]string{
		"NOTIFY_WEBHOOK_URL": c.Notify.WebhookURL,
		"NOTIFY_DISCORD_URL": c.Notify.DiscordURL,
	} {
		if raw != "" && !isHTTPURL(raw) {
			return fmt.Errorf("%w: %s must be an http(s) URL", ErrInvalidConfig, key)
		}
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// splitList parses a comma-separated setting, dropping blank items.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
