// Package registry maintains the window inventory the switcher presents:
// filtered, optionally MRU-ordered snapshots of every user window, rebuilt
// from the X server on each refresh. Records are immutable values; handles
// to the server never outlive the operation that produced them.
package registry

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"time"

	"github.com/1broseidon/verge/internal/x11"
)

// ErrUnavailable wraps session-level enumeration failures. Callers keep
// serving their previous snapshot when they see it.
var ErrUnavailable = errors.New("window registry unavailable")

// Session is the slice of the session manager the registry needs.
type Session interface {
	Do(fn func(*x11.Conn) error) error
	DoSynced(fn func(*x11.Conn) error) error
}

// Record is a point-in-time snapshot of one user window.
type Record struct {
	ID         x11.WindowID
	Title      string
	Class      string
	Desktop    int
	Sticky     bool
	Geometry   x11.Rect
	Monitor    int
	Minimized  bool
	Fullscreen bool
	Icon       image.Image
	CapturedAt time.Time
}

// Config carries the registry tunables.
type Config struct {
	// MRU orders snapshots by last activation instead of enumeration order.
	MRU bool
	// Exclude extends the built-in class exclusion set.
	Exclude []string
	// IconSize is the target icon edge in pixels; 0 disables icon fetching.
	IconSize int
}

// Registry builds and serves window snapshots. It is owned by the engine's
// scheduling goroutine; no method is safe for concurrent use.
type Registry struct {
	log      *slog.Logger
	session  Session
	mru      bool
	filter   *ClassFilter
	iconSize int

	snapshot  []Record
	activated map[x11.WindowID]time.Time
	monitors  []x11.Monitor

	listFn   func(*x11.Conn) ([]x11.WindowID, error)
	infoFn   func(*x11.Conn, x11.WindowID) (x11.WindowInfo, error)
	iconFn   func(*x11.Conn, x11.WindowID, int) image.Image
	activeFn func(*x11.Conn) (x11.WindowID, error)
	now      func() time.Time
}

// New creates a registry bound to the given session.
func New(sess Session, cfg Config, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:       log,
		session:   sess,
		mru:       cfg.MRU,
		filter:    NewClassFilter(cfg.Exclude),
		iconSize:  cfg.IconSize,
		activated: make(map[x11.WindowID]time.Time),
		listFn:    func(c *x11.Conn) ([]x11.WindowID, error) { return c.ClientList() },
		infoFn:    func(c *x11.Conn, id x11.WindowID) (x11.WindowInfo, error) { return c.WindowInfo(id) },
		iconFn:    func(c *x11.Conn, id x11.WindowID, size int) image.Image { return c.WindowIcon(id, size) },
		activeFn:  func(c *x11.Conn) (x11.WindowID, error) { return c.ActiveWindow() },
		now:       time.Now,
	}
}

// Apply swaps the tunables for a live reload.
func (r *Registry) Apply(cfg Config) {
	r.mru = cfg.MRU
	r.filter = NewClassFilter(cfg.Exclude)
	r.iconSize = cfg.IconSize
}

// SetMonitors updates the monitor list used to tag records with the monitor
// index their center falls on. The engine refreshes it alongside the
// registry.
func (r *Registry) SetMonitors(ms []x11.Monitor) {
	r.monitors = ms
}

// Refresh rebuilds the snapshot from the server. With force it issues a
// server sync first so just-changed external state is observed. Enumeration
// failure returns ErrUnavailable and leaves the previous snapshot in place;
// individual window failures only skip that window.
func (r *Registry) Refresh(force bool) ([]Record, error) {
	do := r.session.Do
	if force {
		do = r.session.DoSynced
	}

	var records []Record
	err := do(func(c *x11.Conn) error {
		ids, err := r.listFn(c)
		if err != nil {
			return fmt.Errorf("client list: %w", err)
		}
		prev := make(map[x11.WindowID]Record, len(r.snapshot))
		for _, rec := range r.snapshot {
			prev[rec.ID] = rec
		}
		taken := r.now()
		records = make([]Record, 0, len(ids))
		for _, id := range ids {
			info, err := r.infoFn(c, id)
			if err != nil {
				r.log.Debug("window skipped", "id", id, "error", err)
				continue
			}
			if !r.isUserWindow(info) {
				continue
			}
			records = append(records, r.record(c, info, prev, taken))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	r.pruneActivations(records)
	r.order(records)
	r.snapshot = records
	return records, nil
}

func (r *Registry) record(c *x11.Conn, info x11.WindowInfo, prev map[x11.WindowID]Record, taken time.Time) Record {
	rec := Record{
		ID:         info.ID,
		Title:      info.Title,
		Class:      info.Class,
		Desktop:    info.Desktop,
		Sticky:     info.Desktop < 0,
		Geometry:   info.Rect,
		Monitor:    x11.MonitorFor(r.monitors, info.Rect),
		Minimized:  info.Minimized,
		Fullscreen: info.Fullscreen,
		CapturedAt: taken,
	}
	// Icons rarely change; reuse the previous fetch instead of re-parsing
	// _NET_WM_ICON every cycle.
	if old, ok := prev[info.ID]; ok && old.Icon != nil {
		rec.Icon = old.Icon
	} else if r.iconSize > 0 {
		rec.Icon = r.iconFn(c, info.ID, r.iconSize)
	}
	return rec
}

// isUserWindow applies the filter chain: window type, skip-taskbar state,
// class exclusions.
func (r *Registry) isUserWindow(info x11.WindowInfo) bool {
	if !info.Normal {
		return false
	}
	if info.SkipTaskbar {
		return false
	}
	if r.filter.Excluded(info.Class) {
		return false
	}
	return true
}

// Lookup re-queries a single window. Absence and per-window query failures
// both report false; a vanished window is routine, not an error.
func (r *Registry) Lookup(id x11.WindowID) (Record, bool) {
	var (
		rec   Record
		found bool
	)
	err := r.session.Do(func(c *x11.Conn) error {
		info, err := r.infoFn(c, id)
		if err != nil {
			return nil
		}
		if !r.isUserWindow(info) {
			return nil
		}
		prev := make(map[x11.WindowID]Record, 1)
		if old, ok := r.cached(id); ok {
			prev[id] = old
		}
		rec = r.record(c, info, prev, r.now())
		found = true
		return nil
	})
	if err != nil {
		return Record{}, false
	}
	return rec, found
}

func (r *Registry) cached(id x11.WindowID) (Record, bool) {
	for _, rec := range r.snapshot {
		if rec.ID == id {
			return rec, true
		}
	}
	return Record{}, false
}

// RecordActivation stamps id with an activation time for MRU ordering and
// re-orders the current snapshot so the next read reflects it.
func (r *Registry) RecordActivation(id x11.WindowID, t time.Time) {
	r.activated[id] = t
	r.order(r.snapshot)
}

// IsFullscreenActive reports whether the currently focused window is
// fullscreen. Query failures report false; the guard is advisory.
func (r *Registry) IsFullscreenActive() bool {
	var fullscreen bool
	err := r.session.Do(func(c *x11.Conn) error {
		id, err := r.activeFn(c)
		if err != nil || id == 0 {
			return nil
		}
		info, err := r.infoFn(c, id)
		if err != nil {
			return nil
		}
		fullscreen = info.Fullscreen
		return nil
	})
	if err != nil {
		return false
	}
	return fullscreen
}

// Snapshot returns the last successful refresh result. It survives failed
// refreshes so readers always have a (possibly stale) inventory.
func (r *Registry) Snapshot() []Record {
	return r.snapshot
}

// Count returns the size of the current snapshot.
func (r *Registry) Count() int {
	return len(r.snapshot)
}

// pruneActivations drops MRU entries for windows no longer present, keeping
// the map bounded by the live window population.
func (r *Registry) pruneActivations(records []Record) {
	live := make(map[x11.WindowID]struct{}, len(records))
	for _, rec := range records {
		live[rec.ID] = struct{}{}
	}
	for id := range r.activated {
		if _, ok := live[id]; !ok {
			delete(r.activated, id)
		}
	}
}

// order sorts records most-recently-activated first when MRU is enabled.
// Windows never activated sort after all stamped ones; ties and the
// non-MRU mode keep enumeration order. The sort is stable so equal keys
// never reshuffle between refreshes.
func (r *Registry) order(records []Record) {
	if !r.mru {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		ti, iok := r.activated[records[i].ID]
		tj, jok := r.activated[records[j].ID]
		if iok && jok {
			return ti.After(tj)
		}
		return iok && !jok
	})
}
