// Package preview holds the bounded two-tier screenshot cache backing the
// switcher thumbnails. Each window keeps a Current image and the one before
// it as Fallback, so a window that stops being capturable (minimized,
// covered) still presents its last good frame.
package preview

import (
	"image"
	"log/slog"
	"time"

	"github.com/1broseidon/verge/internal/x11"
)

// CaptureFunc produces a thumbnail-sized image for a window. The engine
// wires the X11 capturer; failures are expected for minimized windows.
type CaptureFunc func(id x11.WindowID) (image.Image, error)

type entry struct {
	current    image.Image
	fallback   image.Image
	capturedAt time.Time
	missed     int
}

// Cache is owned by the engine's scheduling goroutine; no method is safe
// for concurrent use.
type Cache struct {
	log     *slog.Logger
	capture CaptureFunc
	limit   int

	entries map[x11.WindowID]*entry
	// order tracks logical-entry insertion for FIFO eviction. Re-captures
	// do not move an entry; eviction pressure lands on the oldest insert,
	// stale entries first.
	order []x11.WindowID

	now func() time.Time
}

// New creates a cache holding at most limit logical entries.
func New(capture CaptureFunc, limit int, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		log:     log,
		capture: capture,
		limit:   limit,
		entries: make(map[x11.WindowID]*entry),
		now:     time.Now,
	}
}

// Capture grabs a fresh image for id. On success the previous Current
// drops to Fallback and the new image takes its place. On failure both
// tiers stay exactly as they were and the error is returned for logging.
func (c *Cache) Capture(id x11.WindowID) error {
	img, err := c.capture(id)
	if err != nil {
		return err
	}

	e := c.entries[id]
	if e == nil {
		if c.limit > 0 && len(c.order) >= c.limit {
			c.evictOne()
		}
		e = &entry{}
		c.entries[id] = e
		c.order = append(c.order, id)
	}
	if e.current != nil {
		e.fallback = e.current
	}
	e.current = img
	e.capturedAt = c.now()
	e.missed = 0
	return nil
}

// Get returns the freshest image held for id: Current, else Fallback.
func (c *Cache) Get(id x11.WindowID) (image.Image, bool) {
	e := c.entries[id]
	if e == nil {
		return nil, false
	}
	if e.current != nil {
		return e.current, true
	}
	if e.fallback != nil {
		return e.fallback, true
	}
	return nil, false
}

// CapturedAt returns when the Current image for id was taken.
func (c *Cache) CapturedAt(id x11.WindowID) (time.Time, bool) {
	e := c.entries[id]
	if e == nil {
		return time.Time{}, false
	}
	return e.capturedAt, true
}

// Sweep reconciles the cache against the live window population. An entry
// missing from live on two consecutive sweeps is deleted; reappearing
// resets the strike. One absence is tolerated because enumeration and
// close races are routine.
func (c *Cache) Sweep(live []x11.WindowID) {
	set := make(map[x11.WindowID]struct{}, len(live))
	for _, id := range live {
		set[id] = struct{}{}
	}
	for id, e := range c.entries {
		if _, ok := set[id]; ok {
			e.missed = 0
			continue
		}
		e.missed++
		if e.missed > 1 {
			c.remove(id)
		}
	}
}

// RefreshAll sweeps against ids and re-captures each one. Per-window
// failures never abort the pass.
func (c *Cache) RefreshAll(ids []x11.WindowID) {
	c.Sweep(ids)
	for _, id := range ids {
		if err := c.Capture(id); err != nil {
			c.log.Debug("capture failed", "id", id, "error", err)
		}
	}
}

// Len returns the number of logical entries.
func (c *Cache) Len() int {
	return len(c.order)
}

// SetLimit changes the entry bound, evicting immediately when shrinking.
func (c *Cache) SetLimit(limit int) {
	c.limit = limit
	for c.limit > 0 && len(c.order) > c.limit {
		c.evictOne()
	}
}

// evictOne removes the best eviction candidate: the oldest-inserted stale
// entry if any, otherwise the oldest-inserted entry.
func (c *Cache) evictOne() {
	if len(c.order) == 0 {
		return
	}
	victim := c.order[0]
	for _, id := range c.order {
		if c.entries[id].missed > 0 {
			victim = id
			break
		}
	}
	c.remove(victim)
}

func (c *Cache) remove(id x11.WindowID) {
	delete(c.entries, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
