package db

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by pools, connections and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Source hands out the process-wide connection pool.
type Source interface {
	Pool(ctx context.Context) (*pgxpool.Pool, error)
}

type PoolConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
	// SimpleProtocol disables server-side prepared statements, which
	// transaction-mode poolers (pgbouncer, Supabase) do not support.
	SimpleProtocol bool
}

func parseConfig(cfg PoolConfig) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pcfg.MinConns = cfg.MinConns
	if cfg.SimpleProtocol {
		pcfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	return pcfg, nil
}

// NewPool opens a pool and verifies it with a ping. Used by CLI commands
// that need the database immediately.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	pcfg, err := parseConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Lazy is a Source that creates its pool on first use. No connection is
// attempted until the first query, so the server starts without a
// reachable database.
type Lazy struct {
	cfg PoolConfig

	mu   sync.Mutex
	pool *pgxpool.Pool
}

func NewLazy(cfg PoolConfig) *Lazy {
	return &Lazy{cfg: cfg}
}

func (l *Lazy) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pool != nil {
		return l.pool, nil
	}
	if l.cfg.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	pcfg, err := parseConfig(l.cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	l.pool = pool
	return pool, nil
}

// Ping runs a trivial query through the pool, creating it if needed.
func (l *Lazy) Ping(ctx context.Context) error {
	pool, err := l.Pool(ctx)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, "SELECT 1")
	return err
}

// Close releases the pool if it was ever created.
func (l *Lazy) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pool != nil {
		l.pool.Close()
		l.pool = nil
	}
}

// Initialized reports whether the pool has been created yet.
func (l *Lazy) Initialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool != nil
}

type staticSource struct {
	pool *pgxpool.Pool
}

// StaticSource wraps an already-open pool.
func StaticSource(pool *pgxpool.Pool) Source {
	return staticSource{pool: pool}
}

func (s staticSource) Pool(context.Context) (*pgxpool.Pool, error) {
	if s.pool == nil {
		return nil, errors.New("database pool is not configured")
	}
	return s.pool, nil
}
