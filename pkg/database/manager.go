package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when no healthy connection could be established.
var ErrUnavailable = errors.New("database unavailable")

// Provider hands out a live database handle.
type Provider interface {
	Conn(ctx context.Context) (*sqlx.DB, error)
}

// OpenFunc opens a new pool for cfg.
type OpenFunc func(ctx context.Context, cfg Config) (*sqlx.DB, error)

type Option func(*Manager)

// WithOpener replaces Open, mainly for tests.
func WithOpener(fn OpenFunc) Option {
	return func(m *Manager) { m.open = fn }
}

// Manager lazily opens a pool and probes it before every reuse. A handle
// whose probe fails is closed and replaced.
type Manager struct {
	cfg    Config
	logger *zap.SugaredLogger
	open   OpenFunc

	// sem is a one-slot lock; waiting on it honours the caller's context.
	sem chan struct{}
	db  *sqlx.DB
}

func NewManager(cfg Config, logger *zap.SugaredLogger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	m := &Manager{cfg: cfg, logger: logger, open: Open, sem: make(chan struct{}, 1)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Conn returns the shared handle, reconnecting when the liveness probe fails.
// Waiting for another caller's reconnect is bounded by ctx.
func (m *Manager) Conn(ctx context.Context) (*sqlx.DB, error) {
	if err := m.lock(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer m.unlock()

	if m.db != nil {
		err := m.ping(ctx, m.db)
		if err == nil {
			m.logger.Debugw("db connection ping successful")
			return m.db, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			// the caller gave up; the handle is not known to be stale
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctxErr)
		}
		m.logger.Warnw("db ping failed, reconnecting", "err", err)
		if err := m.db.Close(); err != nil {
			m.logger.Warnw("error closing stale db connection", "err", err)
		}
		m.db = nil
	}

	m.logger.Infow("connecting to database", "config", m.cfg)

	attempts := m.cfg.ConnectRetries
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := m.open(ctx, m.cfg)
		if err == nil {
			m.db = db
			m.logger.Infow("connected to database", "database", m.cfg.Name, "host", m.cfg.Host, "attempt", attempt)
			return db, nil
		}
		lastErr = err
		m.logger.Warnw("db connect attempt failed", "attempt", attempt, "max", attempts, "err", err)
		if attempt == attempts {
			break
		}
		if err := sleepCtx(ctx, m.cfg.RetryDelay); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}
	m.logger.Errorw("db connection error", "err", lastErr)
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

// Close releases the pool, if any.
func (m *Manager) Close() error {
	m.sem <- struct{}{}
	defer m.unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	if err != nil {
		m.logger.Errorw("close error", "err", err)
		return err
	}
	m.logger.Infow("connection closed")
	return nil
}

func (m *Manager) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) unlock() { <-m.sem }

// ping is bounded by Timeout only, so a caller leaving early cannot make a
// healthy handle look dead.
func (m *Manager) ping(ctx context.Context, db *sqlx.DB) error {
	pingCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeoutOrDefault(m.cfg.Timeout))
	defer cancel()
	return db.PingContext(pingCtx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
