// Package session owns the connection to the X server and keeps it usable
// across hours of uptime. The connection is torn down and rebuilt on a
// schedule (age or operation count) and immediately when corruption is
// detected, so callers always operate against a handle that is at worst a
// few minutes old.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/verge/internal/x11"
)

// Config holds the lifecycle thresholds.
type Config struct {
	// Display names the X display to dial; empty means $DISPLAY.
	Display string
	// MaxAge recreates the connection once it is older than this,
	// regardless of how much it has been used.
	MaxAge time.Duration
	// MaxOps recreates the connection after this many operations.
	MaxOps int
	// Grace suppresses forced syncs for this long after a recreation; a
	// fresh connection is already synchronized by construction.
	Grace time.Duration
	// OpTimeout is the sanity bound on a single operation. An op that takes
	// longer is treated as a corruption signal for the next acquisition.
	OpTimeout time.Duration
}

// Stats is a point-in-time view of the session for status reporting.
type Stats struct {
	Epoch     uint64
	Ops       int
	Age       time.Duration
	Corrupted bool
}

// Manager guards exactly one live X connection. All operations must come
// from a single scheduling goroutine; the mutex only exists to keep status
// reads from racing a recreation, and is never held across an operation.
type Manager struct {
	log *slog.Logger
	cfg Config

	mu          sync.Mutex
	conn        *x11.Conn
	epoch       uint64
	ops         int
	createdAt   time.Time
	recreatedAt time.Time
	corrupted   bool
	reason      string
	depth       int

	// Injection points for tests; production uses the x11 package.
	dialFn  func() (*x11.Conn, error)
	closeFn func(*x11.Conn)
	syncFn  func(*x11.Conn) error
	now     func() time.Time
}

// New creates a manager. The connection is dialed lazily on first use or
// via Open.
func New(cfg Config, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		log:     log,
		cfg:     cfg,
		closeFn: func(c *x11.Conn) { c.Close() },
		syncFn:  func(c *x11.Conn) error { return c.Sync() },
		now:     time.Now,
	}
	// Reading the display through m.cfg lets Apply redirect future dials.
	m.dialFn = func() (*x11.Conn, error) { return x11.DialDisplay(m.cfg.Display) }
	return m
}

// Apply swaps in new limits. The live connection keeps running; a changed
// display only matters at the next recreation.
func (m *Manager) Apply(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

// Open dials the first connection eagerly so startup fails fast when no X
// server is reachable.
func (m *Manager) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureLocked()
}

// Close tears down the current connection.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		m.closeFn(m.conn)
		m.conn = nil
	}
}

// Do runs fn against a usable connection, recreating it first if the
// lifecycle policy or a pending corruption flag demands it.
func (m *Manager) Do(fn func(*x11.Conn) error) error {
	return m.do(fn, false)
}

// DoSynced is Do with a forced server round-trip before fn, so the queries
// inside fn observe the latest external state. The sync is skipped during
// the post-recreation grace period.
func (m *Manager) DoSynced(fn func(*x11.Conn) error) error {
	return m.do(fn, true)
}

func (m *Manager) do(fn func(*x11.Conn) error, synced bool) error {
	m.mu.Lock()

	// A nested call from inside an operation reuses the live handle as-is.
	// Recreating mid-operation is exactly the reentrancy hazard the manager
	// exists to prevent; corruption observed here is only flagged and acted
	// on at the next top-level acquisition.
	if m.depth > 0 {
		conn := m.conn
		m.ops++
		m.depth++
		m.mu.Unlock()
		defer m.exit()
		return m.run(conn, fn)
	}

	if err := m.ensureLocked(); err != nil {
		m.mu.Unlock()
		return err
	}
	conn := m.conn
	m.ops++
	m.depth = 1
	inGrace := m.now().Sub(m.recreatedAt) < m.cfg.Grace
	m.mu.Unlock()
	defer m.exit()

	if synced && !inGrace {
		if err := m.syncFn(conn); err != nil {
			m.MarkCorrupted("sync failed")
			return fmt.Errorf("session sync: %w", err)
		}
	}

	return m.run(conn, fn)
}

func (m *Manager) run(conn *x11.Conn, fn func(*x11.Conn) error) error {
	start := m.now()
	err := fn(conn)
	if elapsed := m.now().Sub(start); m.cfg.OpTimeout > 0 && elapsed > m.cfg.OpTimeout {
		m.MarkCorrupted(fmt.Sprintf("operation took %s", elapsed.Round(time.Millisecond)))
	}
	return err
}

func (m *Manager) exit() {
	m.mu.Lock()
	m.depth--
	m.mu.Unlock()
}

// Probe checks connection health with a bare server round-trip and flags
// corruption on failure. Together with the op sanity bound and explicit
// marks this is the closed set of conditions that force a recreation.
func (m *Manager) Probe() {
	err := m.Do(func(c *x11.Conn) error { return m.syncFn(c) })
	if err != nil {
		m.MarkCorrupted("probe failed")
	}
}

// MarkCorrupted flags the current connection for recreation at the next
// acquisition. Safe to call from within an operation.
func (m *Manager) MarkCorrupted(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.corrupted {
		m.log.Warn("session marked corrupted", "reason", reason, "epoch", m.epoch)
	}
	m.corrupted = true
	m.reason = reason
}

// Maintain applies the age policy without running an operation, so an idle
// session still gets recreated on schedule.
func (m *Manager) Maintain() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil || m.depth > 0 {
		return
	}
	if m.corrupted || (m.cfg.MaxAge > 0 && m.now().Sub(m.createdAt) >= m.cfg.MaxAge) {
		if err := m.recreateLocked(); err != nil {
			m.log.Error("session recreation failed", "error", err)
		}
	}
}

// Epoch returns the generation counter, incremented on every recreation.
// Values derived from an older epoch must be discarded by their owners.
func (m *Manager) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// Stats returns a snapshot for the status surface.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{
		Epoch:     m.epoch,
		Ops:       m.ops,
		Corrupted: m.corrupted,
	}
	if m.conn != nil {
		s.Age = m.now().Sub(m.createdAt)
	}
	return s
}

// ensureLocked recreates the connection when any lifecycle condition is due.
// Caller holds mu.
func (m *Manager) ensureLocked() error {
	switch {
	case m.conn == nil:
		return m.recreateLocked()
	case m.corrupted:
		return m.recreateLocked()
	case m.cfg.MaxAge > 0 && m.now().Sub(m.createdAt) >= m.cfg.MaxAge:
		return m.recreateLocked()
	case m.cfg.MaxOps > 0 && m.ops >= m.cfg.MaxOps:
		return m.recreateLocked()
	}
	return nil
}

// recreateLocked tears down the old connection and dials a new one. Caller
// holds mu; the lock spans only teardown and dial, never an operation.
func (m *Manager) recreateLocked() error {
	reason := m.pendingReasonLocked()

	if m.conn != nil {
		m.closeFn(m.conn)
		m.conn = nil
	}

	conn, err := m.dialFn()
	if err != nil {
		return fmt.Errorf("session dial: %w", err)
	}

	m.conn = conn
	m.epoch++
	m.ops = 0
	m.corrupted = false
	m.reason = ""
	now := m.now()
	m.createdAt = now
	m.recreatedAt = now

	m.log.Info("session created", "epoch", m.epoch, "reason", reason)
	return nil
}

func (m *Manager) pendingReasonLocked() string {
	switch {
	case m.conn == nil:
		return "initial connect"
	case m.corrupted:
		return "corrupted: " + m.reason
	case m.cfg.MaxAge > 0 && m.now().Sub(m.createdAt) >= m.cfg.MaxAge:
		return "max age reached"
	default:
		return "op count reached"
	}
}
