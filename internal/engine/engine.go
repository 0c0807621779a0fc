// Package engine runs the daemon's scheduling loop. One goroutine owns the
// X session and every component that touches it; IPC and MCP handlers reach
// the loop only through Call, so no component needs its own locking.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/1broseidon/verge/internal/config"
	"github.com/1broseidon/verge/internal/preview"
	"github.com/1broseidon/verge/internal/registry"
	"github.com/1broseidon/verge/internal/session"
	"github.com/1broseidon/verge/internal/trigger"
	"github.com/1broseidon/verge/internal/visibility"
	"github.com/1broseidon/verge/internal/x11"
)

// ErrBusy is returned when the loop cannot take a call within the bounded
// wait. Clients should retry; a wedged loop must not hang them.
var ErrBusy = errors.New("engine busy")

var callTimeout = 2 * time.Second

const workQueueSize = 8

type call struct {
	fn   func() error
	done chan error
}

// Status is a point-in-time engine snapshot for status reporting.
type Status struct {
	State        string
	Edge         string
	Ready        bool
	SnoozedUntil time.Time
	Windows      int
	Previews     int
	Monitors     int
	Placement    x11.Rect
	Monitor      int
	Session      session.Stats
	Uptime       time.Duration
}

// Engine wires the session, registry, preview cache, edge detector and
// visibility machine together and schedules all their work. Methods other
// than Run and Call must only execute on the loop goroutine.
type Engine struct {
	log *slog.Logger
	cfg *config.Config

	session  *session.Manager
	registry *registry.Registry
	cache    *preview.Cache
	detector *trigger.Detector
	machine  *visibility.Machine

	monitors []x11.Monitor
	// placed is the switcher rect of the current show; it doubles as the
	// hotbox basis while the switcher is visible.
	placed   x11.Rect
	placedOn int
	started  time.Time

	poll    *time.Ticker
	refresh *time.Ticker
	work    chan func()
	calls   chan call

	now func() time.Time
}

// New wires the components from cfg. No X connection is dialed here; Run
// does that so construction stays cheap.
func New(cfg *config.Config, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	edge, err := trigger.ParseEdge(cfg.Trigger.Edge)
	if err != nil {
		return nil, fmt.Errorf("trigger config: %w", err)
	}

	e := &Engine{
		log:   log,
		cfg:   cfg,
		work:  make(chan func(), workQueueSize),
		calls: make(chan call),
		now:   time.Now,
	}
	e.session = session.New(session.Config{
		Display:   cfg.Display,
		MaxAge:    cfg.Session.MaxAge(),
		MaxOps:    cfg.Session.MaxOps,
		Grace:     cfg.Session.Grace(),
		OpTimeout: cfg.Session.OpTimeout(),
	}, log)
	e.registry = registry.New(e.session, registry.Config{
		MRU:      cfg.Windows.MRUOrder,
		Exclude:  cfg.Windows.ExcludeClasses,
		IconSize: cfg.Windows.IconSizePx,
	}, log)
	e.cache = preview.New(e.captureWindow, cfg.Preview.MaxEntries, log)
	e.detector = trigger.NewDetector(edge, cfg.Trigger.ThresholdPx)
	e.machine = visibility.New(visibility.Config{
		Cooldown:  cfg.Switcher.Cooldown(),
		HideDelay: cfg.Switcher.HideDelay(),
	}, log)
	if cfg.Switcher.FullscreenGuard {
		e.machine.SetGuard(e.registry.IsFullscreenActive)
	}
	return e, nil
}

// Run dials X, primes the caches and drives the loop until ctx is
// cancelled. It returns nil on a clean shutdown.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.session.Open(); err != nil {
		return fmt.Errorf("open X session: %w", err)
	}
	defer e.session.Close()

	e.started = e.now()
	e.startup()

	e.poll = time.NewTicker(e.cfg.Trigger.PollInterval())
	defer e.poll.Stop()
	e.refresh = time.NewTicker(e.cfg.Preview.RefreshInterval())
	defer e.refresh.Stop()

	e.log.Info("engine started",
		"edge", e.detector.Edge().String(),
		"poll_interval", e.cfg.Trigger.PollInterval(),
		"refresh_interval", e.cfg.Preview.RefreshInterval())

	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopped")
			return nil
		case <-e.poll.C:
			e.protect("poll", e.pollTick)
		case <-e.refresh.C:
			e.protect("refresh", e.refreshTick)
		case fn := <-e.work:
			e.protect("work", fn)
		case c := <-e.calls:
			c.done <- e.invoke(c.fn)
		}
	}
}

// Call runs fn on the loop goroutine and returns its error. This is the
// only entry point for other goroutines; both the handoff and the wait for
// completion are bounded by callTimeout.
func (e *Engine) Call(fn func() error) error {
	c := call{fn: fn, done: make(chan error, 1)}
	select {
	case e.calls <- c:
	case <-time.After(callTimeout):
		return ErrBusy
	}
	select {
	case err := <-c.done:
		return err
	case <-time.After(callTimeout):
		return ErrBusy
	}
}

// protect runs one loop task, recovering panics so a bad tick cannot take
// the daemon down.
func (e *Engine) protect(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("engine panic recovered", "in", name, "error", r)
		}
	}()
	fn()
}

func (e *Engine) invoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("engine call panic recovered", "error", r)
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return fn()
}

// startup primes monitors, the registry and the preview cache so the first
// show never renders empty, then opens the trigger gate.
func (e *Engine) startup() {
	e.refreshMonitors()
	records, err := e.registry.Refresh(true)
	if err != nil {
		e.log.Warn("initial window refresh failed", "error", err)
	} else {
		e.cache.RefreshAll(recordIDs(records))
	}
	e.machine.SetReady()
}

// pollTick is the high-frequency pass: expire deadlines, sample the
// pointer, then evaluate either the trigger (hidden) or the leave
// condition (visible).
func (e *Engine) pollTick() {
	now := e.now()
	for _, ev := range e.machine.Tick(now) {
		e.log.Debug("visibility event", "event", ev.String())
	}

	x, y, err := e.pointerPosition()
	if err != nil {
		e.log.Debug("pointer query failed", "error", err)
		e.session.Probe()
		return
	}
	mon, ok := x11.MonitorAt(e.monitors, x, y)
	if !ok {
		return
	}

	switch e.machine.State(now) {
	case visibility.Hidden:
		if !e.detector.AtEdge(x, y, mon) {
			return
		}
		if seq, ok := e.machine.HandleTrigger(now); ok {
			e.deferPrepare(seq, mon)
		}
	case visibility.Visible:
		if e.withinSwitcher(x, y, mon) {
			e.machine.CancelHide()
		} else {
			e.machine.RequestHide(now)
		}
	}
}

// deferPrepare queues the heavy half of a show. The queue is bounded and
// drained by the same loop, so a full queue rolls the show back instead of
// deadlocking.
func (e *Engine) deferPrepare(seq uint64, mon x11.Monitor) {
	select {
	case e.work <- func() { _ = e.prepareShow(seq, mon) }:
	default:
		e.log.Warn("work queue full, canceling show")
		e.machine.Dismiss(e.now())
	}
}

// prepareShow refreshes the registry, captures previews for windows that
// have none, computes placement and completes the show. A dismiss landing
// first bumps the sequence and the completion is discarded.
func (e *Engine) prepareShow(seq uint64, mon x11.Monitor) error {
	if seq != e.machine.Seq() {
		return nil
	}
	records, err := e.registry.Refresh(true)
	if err != nil {
		e.log.Warn("show aborted", "error", err)
		e.machine.Dismiss(e.now())
		return err
	}
	for _, rec := range records {
		if _, ok := e.cache.Get(rec.ID); ok {
			continue
		}
		if err := e.cache.Capture(rec.ID); err != nil {
			e.log.Debug("preview capture failed", "window", rec.ID, "error", err)
		}
	}
	e.placed = placement(mon, e.detector.Edge(),
		e.cfg.Switcher.GridRows, e.cfg.Switcher.GridCols,
		e.cfg.Preview.ThumbWidthPx, len(records))
	e.placedOn = mon.Index
	e.machine.LayoutDone(seq, e.now())
	return nil
}

// refreshTick is the background maintenance pass. It never runs while the
// switcher is up or being laid out: refreshing under a live show would
// reorder entries out from under the UI.
func (e *Engine) refreshTick() {
	switch e.machine.State(e.now()) {
	case visibility.Showing, visibility.Visible:
		return
	}
	e.session.Maintain()
	e.refreshMonitors()
	records, err := e.registry.Refresh(false)
	if err != nil {
		e.log.Warn("window refresh failed", "error", err)
		return
	}
	e.cache.RefreshAll(recordIDs(records))
}

func (e *Engine) refreshMonitors() {
	var ms []x11.Monitor
	err := e.session.Do(func(c *x11.Conn) error {
		var err error
		ms, err = c.Monitors()
		return err
	})
	if err != nil {
		e.log.Debug("monitor enumeration failed", "error", err)
		return
	}
	e.monitors = ms
	e.registry.SetMonitors(ms)
}

func (e *Engine) pointerPosition() (int, int, error) {
	var x, y int
	err := e.session.Do(func(c *x11.Conn) error {
		var err error
		x, y, err = c.Pointer()
		return err
	})
	return x, y, err
}

// withinSwitcher reports whether the pointer should keep the switcher
// open: still on the triggering edge, or inside the hotbox grown around
// the switcher rect.
func (e *Engine) withinSwitcher(x, y int, mon x11.Monitor) bool {
	if e.detector.AtEdge(x, y, mon) {
		return true
	}
	return trigger.InZone(x, y, e.placed, e.cfg.Switcher.HotboxBufferPx)
}

// captureWindow is the preview.CaptureFunc: one screenshot scaled to the
// configured thumbnail width, taken over the managed session.
func (e *Engine) captureWindow(id x11.WindowID) (image.Image, error) {
	var img image.Image
	err := e.session.Do(func(c *x11.Conn) error {
		var err error
		img, err = c.CaptureWindow(id, e.cfg.Preview.ThumbWidthPx)
		return err
	})
	return img, err
}

// Status reports the engine snapshot.
func (e *Engine) Status() Status {
	now := e.now()
	st := Status{
		State:        e.machine.State(now).String(),
		Edge:         e.detector.Edge().String(),
		Ready:        e.machine.Ready(),
		SnoozedUntil: e.machine.SnoozedUntil(now),
		Windows:      e.registry.Count(),
		Previews:     e.cache.Len(),
		Monitors:     len(e.monitors),
		Placement:    e.placed,
		Monitor:      e.placedOn,
		Session:      e.session.Stats(),
	}
	if !e.started.IsZero() {
		st.Uptime = now.Sub(e.started)
	}
	return st
}

// Windows returns the current registry snapshot.
func (e *Engine) Windows() []registry.Record {
	return e.registry.Snapshot()
}

// Monitors returns the most recently enumerated monitor set.
func (e *Engine) Monitors() []x11.Monitor {
	return e.monitors
}

// HasPreview reports whether a preview image is cached for id.
func (e *Engine) HasPreview(id x11.WindowID) bool {
	_, ok := e.cache.Get(id)
	return ok
}

// Show forces the switcher up, bypassing cooldown, snooze and the guard.
// The show lands on the monitor under the pointer, falling back to the
// first known monitor. Already visible is not an error.
func (e *Engine) Show() error {
	seq, ok := e.machine.ForceShow(e.now())
	if !ok {
		return nil
	}
	if err := e.prepareShow(seq, e.currentMonitor()); err != nil {
		return fmt.Errorf("show failed: %w", err)
	}
	return nil
}

func (e *Engine) currentMonitor() x11.Monitor {
	if x, y, err := e.pointerPosition(); err == nil {
		if mon, ok := x11.MonitorAt(e.monitors, x, y); ok {
			return mon
		}
	}
	if len(e.monitors) > 0 {
		return e.monitors[0]
	}
	return x11.Monitor{}
}

// Hide requests a hide through the normal delay path; immediate dismisses
// without the delay, which is the escape-key path.
func (e *Engine) Hide(immediate bool) {
	now := e.now()
	if immediate {
		e.machine.Dismiss(now)
		return
	}
	e.machine.RequestHide(now)
}

// Snooze suppresses triggers for d, dismissing any live show first. A
// non-positive d uses the configured default. Returns the deadline.
func (e *Engine) Snooze(d time.Duration) time.Time {
	now := e.now()
	if d <= 0 {
		d = e.cfg.Switcher.SnoozeFor()
	}
	e.machine.Dismiss(now)
	e.machine.Snooze(d, now)
	return now.Add(d)
}

// Activate raises and focuses the window, switching desktops if needed,
// then stamps it most-recently-used and hides the switcher.
func (e *Engine) Activate(id x11.WindowID) error {
	rec, ok := e.registry.Lookup(id)
	if !ok {
		return fmt.Errorf("window %d not tracked", id)
	}
	err := e.session.Do(func(c *x11.Conn) error {
		return c.Activate(rec.ID, rec.Desktop)
	})
	if err != nil {
		if x11.IsWindowGone(err) {
			return fmt.Errorf("window %d is gone", id)
		}
		return fmt.Errorf("activate window %d: %w", id, err)
	}
	e.registry.RecordActivation(id, e.now())
	e.machine.Dismiss(e.now())
	return nil
}

// Apply swaps in a reloaded configuration. Tickers reset, the detector is
// rebuilt and every component re-tunes; the session keeps its live
// connection, picking up new limits at the next recreation check.
func (e *Engine) Apply(cfg *config.Config) error {
	edge, err := trigger.ParseEdge(cfg.Trigger.Edge)
	if err != nil {
		return fmt.Errorf("trigger config: %w", err)
	}
	e.cfg = cfg

	e.detector = trigger.NewDetector(edge, cfg.Trigger.ThresholdPx)
	e.session.Apply(session.Config{
		Display:   cfg.Display,
		MaxAge:    cfg.Session.MaxAge(),
		MaxOps:    cfg.Session.MaxOps,
		Grace:     cfg.Session.Grace(),
		OpTimeout: cfg.Session.OpTimeout(),
	})
	e.registry.Apply(registry.Config{
		MRU:      cfg.Windows.MRUOrder,
		Exclude:  cfg.Windows.ExcludeClasses,
		IconSize: cfg.Windows.IconSizePx,
	})
	e.cache.SetLimit(cfg.Preview.MaxEntries)
	e.machine.Apply(visibility.Config{
		Cooldown:  cfg.Switcher.Cooldown(),
		HideDelay: cfg.Switcher.HideDelay(),
	})
	if cfg.Switcher.FullscreenGuard {
		e.machine.SetGuard(e.registry.IsFullscreenActive)
	} else {
		e.machine.SetGuard(nil)
	}
	if e.poll != nil {
		e.poll.Reset(cfg.Trigger.PollInterval())
	}
	if e.refresh != nil {
		e.refresh.Reset(cfg.Preview.RefreshInterval())
	}

	e.log.Info("configuration applied", "edge", cfg.Trigger.Edge)
	return nil
}

func recordIDs(records []registry.Record) []x11.WindowID {
	ids := make([]x11.WindowID, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return ids
}
