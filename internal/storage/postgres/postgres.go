// Package postgres provides PostgreSQL persistence using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/msw2004727/FB-sub000/internal/config"
)

// Pool wraps a pgx connection pool with the lifecycle and health hooks the
// server binary needs.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to PostgreSQL with the configured pool limits and
// verifies the connection with a ping before returning.
//
// Postcondition: Returns a Pool ready for queries, or a non-nil error with
// no pool left open.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Pool{pool: pool}, nil
}

// Health reports whether the database answers a ping within the timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases all pool resources. The pool is unusable afterwards.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for use by repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

// Watchdog is a lifecycle service that pings the database on an interval
// and closes the pool on shutdown. Ping failures are logged, not fatal;
// the pool re-establishes connections on its own once the database is back.
type Watchdog struct {
	pool     *Pool
	interval time.Duration
	logger   *zap.Logger
	done     chan struct{}
}

// Watchdog builds the health-check service for this pool.
//
// Precondition: interval must be positive; logger must be non-nil.
func (p *Pool) Watchdog(interval time.Duration, logger *zap.Logger) *Watchdog {
	return &Watchdog{
		pool:     p,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start pings until Stop is called. It always returns nil; an unreachable
// database is a degraded state, not a server-fatal one.
func (w *Watchdog) Start() error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return nil
		case <-ticker.C:
			if err := w.pool.Health(context.Background(), 5*time.Second); err != nil {
				w.logger.Warn("database health check failed", zap.Error(err))
			}
		}
	}
}

// Stop ends the ping loop and closes the pool.
func (w *Watchdog) Stop() {
	close(w.done)
	w.pool.Close()
}
