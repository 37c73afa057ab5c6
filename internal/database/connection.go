package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/schoolrecords/schoolrecords/internal/config"
)

// Provider hands out store connections configured from an explicit
// DatabaseConfig. Each call to Connect yields a connection the caller must
// Close; the pools behind it are an implementation detail.
type Provider struct {
	cfg     config.DatabaseConfig
	dialect Dialect
	mu      sync.Mutex
	pools   map[string]*sql.DB
}

// NewProvider validates the driver and returns a provider. No connection is
// opened until Connect is called.
func NewProvider(cfg config.DatabaseConfig) (*Provider, error) {
	d, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 1
	}
	return &Provider{
		cfg:     cfg,
		dialect: d,
		pools:   make(map[string]*sql.DB),
	}, nil
}

// Dialect returns the store dialect.
func (p *Provider) Dialect() Dialect {
	return p.dialect
}

// DatabaseName returns the configured database name.
func (p *Provider) DatabaseName() string {
	return p.cfg.Name
}

// Connect returns a live connection to the named database. An empty name
// selects the server without a default database.
func (p *Provider) Connect(ctx context.Context, database string) (*sql.Conn, error) {
	db, err := p.pool(database)
	if err != nil {
		return nil, &OpError{Op: "connect", Kind: ErrUnavailable, Err: err}
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, wrapError(p.dialect, "connect", err)
	}
	return conn, nil
}

// Ping checks that the configured database answers.
func (p *Provider) Ping(ctx context.Context) error {
	conn, err := p.Connect(ctx, p.cfg.Name)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		return wrapError(p.dialect, "ping", err)
	}
	return nil
}

func (p *Provider) pool(database string) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if db, ok := p.pools[database]; ok {
		return db, nil
	}

	dsn, err := p.dialect.DSN(p.cfg, database)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(p.dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(p.cfg.MaxOpenConns)
	db.SetMaxIdleConns(max(p.cfg.MaxOpenConns/2, 1))
	db.SetConnMaxIdleTime(5 * time.Minute)

	log.Debug().
		Str("driver", p.dialect.Name()).
		Str("database", database).
		Msg("Database pool opened")

	p.pools[database] = db
	return db, nil
}

// Close releases every pool the provider opened.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for name, db := range p.pools {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", name, err))
		}
		delete(p.pools, name)
	}
	return errors.Join(errs...)
}
