package sfmcp

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/snowflakedb/gosnowflake"
)

// Phase is the connection gate's lifecycle state, exposed for observability.
type Phase int32

const (
	// PhaseUninitialized means no connection attempt has been made yet.
	PhaseUninitialized Phase = iota
	// PhaseConnecting means a connection attempt is in flight.
	PhaseConnecting
	// PhaseReady means a session is established and reusable.
	PhaseReady
	// PhaseFailed means the last attempt failed. The gate retries on the
	// next Get — FAILED is not terminal.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseConnecting:
		return "connecting"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is the subset of *sql.DB the engine uses. *sql.DB satisfies it
// directly; tests substitute a mock.
type Session interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	PingContext(ctx context.Context) error
	Close() error
}

// SessionOpener establishes a Session. Open is called at most once per
// gate attempt; the gate serializes attempts.
type SessionOpener interface {
	Open(ctx context.Context) (Session, error)
}

type liveSession struct {
	Session
	openedAt time.Time
}

// Gate lazily establishes the Snowflake session on first use and hands the
// same session to every caller until it expires or fails. Concurrent callers
// during establishment block on a single connection attempt; steady-state
// callers take a lock-free fast path.
type Gate struct {
	opener      SessionOpener
	maxLifetime time.Duration
	logger      zerolog.Logger

	mu      sync.Mutex
	phase   Phase
	current atomic.Pointer[liveSession]
}

// NewGate creates a Gate. maxLifetime of 0 disables session expiry.
func NewGate(opener SessionOpener, maxLifetime time.Duration, logger zerolog.Logger) *Gate {
	return &Gate{opener: opener, maxLifetime: maxLifetime, logger: logger}
}

// Get returns the established session, connecting first if necessary.
// A failed attempt returns *ConnectionError and leaves the gate retryable.
func (g *Gate) Get(ctx context.Context) (Session, error) {
	if s := g.current.Load(); s != nil && !g.expired(s) {
		return s.Session, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Re-check under the lock: another caller may have connected while we
	// were waiting.
	if s := g.current.Load(); s != nil && !g.expired(s) {
		return s.Session, nil
	}

	if old := g.current.Swap(nil); old != nil {
		// database/sql drains in-flight queries on Close, so callers that
		// grabbed the old handle before the swap finish normally.
		g.logger.Info().
			Dur("session_age", time.Since(old.openedAt)).
			Msg("session exceeded max lifetime, re-establishing")
		if err := old.Close(); err != nil {
			g.logger.Warn().Err(err).Msg("failed to close expired session")
		}
	}

	g.phase = PhaseConnecting
	sess, err := g.opener.Open(ctx)
	if err != nil {
		g.phase = PhaseFailed
		g.logger.Error().Err(err).Msg("session establishment failed")
		return nil, &ConnectionError{Err: err}
	}

	g.current.Store(&liveSession{Session: sess, openedAt: time.Now()})
	g.phase = PhaseReady
	g.logger.Info().Msg("Snowflake session established")
	return sess, nil
}

func (g *Gate) expired(s *liveSession) bool {
	return g.maxLifetime > 0 && time.Since(s.openedAt) >= g.maxLifetime
}

// Phase returns the gate's current lifecycle phase.
func (g *Gate) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Close tears down the current session, if any, and resets the gate.
func (g *Gate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.phase = PhaseUninitialized
	if s := g.current.Swap(nil); s != nil {
		return s.Close()
	}
	return nil
}

// dsnOpener opens sessions through database/sql with the gosnowflake driver.
type dsnOpener struct {
	dsn      string
	maxConns int
}

// NewDSNOpener returns a SessionOpener backed by the given Snowflake DSN.
// maxConns caps the handle's connection pool; it should match the engine's
// max_concurrent setting.
func NewDSNOpener(dsn string, maxConns int) SessionOpener {
	return &dsnOpener{dsn: dsn, maxConns: maxConns}
}

func (o *dsnOpener) Open(ctx context.Context) (Session, error) {
	db, err := sql.Open("snowflake", o.dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(o.maxConns)
	db.SetMaxIdleConns(o.maxConns)

	// sql.Open does not dial. Ping so establishment failures (bad
	// credentials, unreachable account) surface here, where the gate
	// records them, instead of on the first statement.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// BuildDSN constructs a gosnowflake DSN from connection config plus the
// separately-supplied password.
func BuildDSN(conn ConnectionConfig, password string) (string, error) {
	cfg := &gosnowflake.Config{
		Account:   conn.Account,
		User:      conn.User,
		Password:  password,
		Role:      conn.Role,
		Warehouse: conn.Warehouse,
		Database:  conn.Database,
		Schema:    conn.Schema,
		Host:      conn.Host,
	}
	return gosnowflake.DSN(cfg)
}
