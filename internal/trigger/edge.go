// Package trigger holds the pure pointer-geometry checks behind the edge
// trigger: is the pointer pressed against the configured screen edge, and
// is it still inside the switcher's hot zone. The engine samples the
// pointer and feeds these; nothing here talks to the server.
package trigger

import (
	"fmt"
	"strings"

	"github.com/1broseidon/verge/internal/x11"
)

// Edge identifies a screen edge.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeBottom
	EdgeLeft
	EdgeRight
)

func (e Edge) String() string {
	switch e {
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	default:
		return "unknown"
	}
}

// ParseEdge reads an edge name. The compass names used by earlier configs
// are accepted as aliases.
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top", "north":
		return EdgeTop, nil
	case "bottom", "south":
		return EdgeBottom, nil
	case "left", "west":
		return EdgeLeft, nil
	case "right", "east":
		return EdgeRight, nil
	default:
		return EdgeTop, fmt.Errorf("unknown edge %q", s)
	}
}

// Detector evaluates pointer positions against one edge of whichever
// monitor the pointer is on.
type Detector struct {
	edge      Edge
	threshold int
}

// NewDetector builds a detector for edge with an inclusive threshold in
// pixels.
func NewDetector(edge Edge, threshold int) *Detector {
	return &Detector{edge: edge, threshold: threshold}
}

// Edge returns the configured edge.
func (d *Detector) Edge() Edge {
	return d.edge
}

// AtEdge reports whether the pointer at (x, y) is within the threshold of
// the configured edge of m. The caller resolves m as the monitor containing
// the pointer, so each monitor contributes its own trigger zone and the
// threshold is measured against that monitor's bounds, not the combined
// desktop. Both bounds are inclusive.
func (d *Detector) AtEdge(x, y int, m x11.Monitor) bool {
	switch d.edge {
	case EdgeTop:
		return y <= m.Y+d.threshold
	case EdgeBottom:
		return y >= m.Y+m.Height-d.threshold
	case EdgeLeft:
		return x <= m.X+d.threshold
	case EdgeRight:
		return x >= m.X+m.Width-d.threshold
	default:
		return false
	}
}

// InZone reports whether (x, y) lies inside r grown by buffer pixels on
// every side, bounds inclusive. Used for leave detection: the pointer may
// wander a little past the switcher without hiding it.
func InZone(x, y int, r x11.Rect, buffer int) bool {
	return x >= r.X-buffer && x <= r.X+r.Width+buffer &&
		y >= r.Y-buffer && y <= r.Y+r.Height+buffer
}
