// Package postgres archives replay runs in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/fightcore/internal/config"
)

// Pool is the replay archive's connection pool. Every ping it issues is
// bounded by the configured health timeout.
type Pool struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  *zap.Logger
}

// NewPool connects to the archive database described by cfg.
//
// Precondition: cfg passed config validation; HealthTimeout > 0.
// Postcondition: Returns a Pool that answered a ping within
// cfg.HealthTimeout, or a non-nil error. A nil logger is replaced with a
// no-op.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	p := &Pool{
		pool:    pool,
		timeout: cfg.HealthTimeout,
		logger:  logger.With(zap.String("db", cfg.Name), zap.String("host", cfg.Host)),
	}
	if err := p.Health(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	p.logger.Info("replay archive connected", zap.Int32("max_conns", cfg.MaxConns))
	return p, nil
}

// Health pings the archive within the configured timeout.
//
// Precondition: The pool must not be closed.
// Postcondition: Returns nil if the database answered in time.
func (p *Pool) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	start := time.Now()
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("replay archive unreachable within %s: %w", p.timeout, err)
	}
	p.logger.Debug("replay archive healthy", zap.Duration("latency", time.Since(start)))
	return nil
}

// Replays returns a repository over this pool.
func (p *Pool) Replays() *ReplayRepository {
	return NewReplayRepository(p.pool)
}

// Close releases all pool resources.
//
// Postcondition: The pool is no longer usable after calling Close.
func (p *Pool) Close() {
	p.pool.Close()
	p.logger.Debug("replay archive closed")
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
