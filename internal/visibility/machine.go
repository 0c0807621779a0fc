// Package visibility decides when the switcher may appear and when it must
// go away. The machine is pure state plus deadline arithmetic on a caller
// supplied clock; it owns no timers and no goroutines, which keeps every
// timing property table-testable.
package visibility

import (
	"log/slog"
	"time"
)

// State is the externally visible lifecycle position.
type State int

const (
	Hidden State = iota
	Showing
	Visible
	// CoolingDown is Hidden with the post-show suppression window still
	// open; triggers are ignored until it expires.
	CoolingDown
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Showing:
		return "showing"
	case Visible:
		return "visible"
	case CoolingDown:
		return "cooling-down"
	default:
		return "unknown"
	}
}

// Event is a deadline-driven transition the engine reacts to.
type Event int

const (
	// EventHidden fires when a delayed hide elapses.
	EventHidden Event = iota
	// EventCooldownOver fires when the trigger suppression window ends.
	EventCooldownOver
	// EventSnoozeOver fires when a snooze deadline passes.
	EventSnoozeOver
)

func (e Event) String() string {
	switch e {
	case EventHidden:
		return "hidden"
	case EventCooldownOver:
		return "cooldown-over"
	case EventSnoozeOver:
		return "snooze-over"
	default:
		return "unknown"
	}
}

// Guard is consulted before a show; returning true blocks it. The engine
// wires the fullscreen check here when the guard is enabled.
type Guard func() bool

// Config carries the machine tunables.
type Config struct {
	// Cooldown suppresses re-triggering after every show, so a pointer
	// resting on the edge produces one switcher, not a flicker loop.
	Cooldown time.Duration
	// HideDelay postpones a leave-triggered hide; zero hides on the next
	// tick. The dismiss path always bypasses it.
	HideDelay time.Duration
}

// Machine tracks the switcher lifecycle. Owned by the engine's scheduling
// goroutine; not safe for concurrent use.
type Machine struct {
	log *slog.Logger
	cfg Config

	state State
	// seq is the show generation. Layout completions carry the seq they
	// were started for; anything stale is discarded.
	seq uint64

	cooldownUntil time.Time
	hideAt        time.Time
	snoozedUntil  time.Time

	guard Guard
	ready bool
}

// New creates a machine in Hidden with the startup gate closed. Triggers
// are honored only after SetReady.
func New(cfg Config, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	return &Machine{log: log, cfg: cfg}
}

// Apply swaps the tunables for a live reload. In-flight deadlines keep the
// durations they were armed with.
func (m *Machine) Apply(cfg Config) {
	m.cfg = cfg
}

// SetGuard installs the pre-show guard; nil removes it.
func (m *Machine) SetGuard(g Guard) {
	m.guard = g
}

// SetReady opens the startup gate once the first refresh and capture pass
// completed, so the first show is never empty.
func (m *Machine) SetReady() {
	m.ready = true
}

// Ready reports whether the startup gate is open.
func (m *Machine) Ready() bool {
	return m.ready
}

// State reports the public state at now: Hidden with a live cooldown reads
// as CoolingDown.
func (m *Machine) State(now time.Time) State {
	if m.state == Hidden && m.cooling(now) {
		return CoolingDown
	}
	return m.state
}

// Seq returns the current show generation.
func (m *Machine) Seq() uint64 {
	return m.seq
}

// SnoozedUntil returns the active snooze deadline, zero when none.
func (m *Machine) SnoozedUntil(now time.Time) time.Time {
	if now.Before(m.snoozedUntil) {
		return m.snoozedUntil
	}
	return time.Time{}
}

func (m *Machine) cooling(now time.Time) bool {
	return !m.cooldownUntil.IsZero() && now.Before(m.cooldownUntil)
}

// HandleTrigger reports whether an edge trigger at now starts a show. On
// acceptance the machine moves to Showing, arms the cooldown and returns
// the new show sequence; the engine must answer with LayoutDone carrying
// that sequence. Triggers are refused while not Hidden, cooling down,
// snoozed, before startup completes, or when the guard blocks.
func (m *Machine) HandleTrigger(now time.Time) (uint64, bool) {
	if !m.ready || m.state != Hidden {
		return 0, false
	}
	if m.cooling(now) || now.Before(m.snoozedUntil) {
		return 0, false
	}
	if m.guard != nil && m.guard() {
		m.log.Debug("trigger blocked by guard")
		return 0, false
	}

	m.state = Showing
	m.seq++
	if m.cfg.Cooldown > 0 {
		m.cooldownUntil = now.Add(m.cfg.Cooldown)
	}
	m.log.Info("switcher showing", "seq", m.seq)
	return m.seq, true
}

// ForceShow starts a show on explicit request, bypassing cooldown, snooze
// and the guard. Only the Hidden requirement and the startup gate stand;
// forcing a show over a live one is a no-op.
func (m *Machine) ForceShow(now time.Time) (uint64, bool) {
	if !m.ready || m.state != Hidden {
		return 0, false
	}
	m.state = Showing
	m.seq++
	if m.cfg.Cooldown > 0 {
		m.cooldownUntil = now.Add(m.cfg.Cooldown)
	}
	m.log.Info("switcher showing", "seq", m.seq, "forced", true)
	return m.seq, true
}

// LayoutDone completes the show started with seq. A stale sequence means
// the show was canceled while the layout ran; the completion is dropped.
func (m *Machine) LayoutDone(seq uint64, now time.Time) bool {
	if m.state != Showing || seq != m.seq {
		m.log.Debug("stale layout completion discarded", "seq", seq, "current", m.seq)
		return false
	}
	m.state = Visible
	m.log.Info("switcher visible", "seq", seq)
	return true
}

// RequestHide starts the orderly hide path. Visible arms the hide delay;
// Showing cancels the in-flight show outright.
func (m *Machine) RequestHide(now time.Time) {
	switch m.state {
	case Visible:
		if m.cfg.HideDelay <= 0 {
			m.hide("hidden")
			return
		}
		if m.hideAt.IsZero() {
			m.hideAt = now.Add(m.cfg.HideDelay)
			m.log.Debug("hide armed", "at", m.hideAt)
		}
	case Showing:
		m.seq++
		m.hide("show canceled")
	}
}

// Dismiss hides immediately from any state, bypassing the hide delay. This
// is the escape-key path.
func (m *Machine) Dismiss(now time.Time) {
	if m.state == Hidden {
		return
	}
	m.seq++
	m.hide("dismissed")
}

// CancelHide disarms a pending delayed hide; the pointer came back before
// the delay ran out.
func (m *Machine) CancelHide() {
	if !m.hideAt.IsZero() {
		m.hideAt = time.Time{}
		m.log.Debug("hide canceled")
	}
}

// Snooze suppresses triggers until now+d. The visibility state is not
// touched; the engine hides a visible switcher through the normal path.
func (m *Machine) Snooze(d time.Duration, now time.Time) {
	m.snoozedUntil = now.Add(d)
	m.log.Info("snoozed", "until", m.snoozedUntil)
}

// Tick fires every due deadline and returns the resulting events in the
// order they were processed.
func (m *Machine) Tick(now time.Time) []Event {
	var events []Event

	if m.state == Visible && !m.hideAt.IsZero() && !now.Before(m.hideAt) {
		m.hide("hidden after delay")
		events = append(events, EventHidden)
	}
	if !m.cooldownUntil.IsZero() && !now.Before(m.cooldownUntil) {
		m.cooldownUntil = time.Time{}
		events = append(events, EventCooldownOver)
	}
	if !m.snoozedUntil.IsZero() && !now.Before(m.snoozedUntil) {
		m.snoozedUntil = time.Time{}
		events = append(events, EventSnoozeOver)
		m.log.Info("snooze expired")
	}
	return events
}

func (m *Machine) hide(msg string) {
	m.state = Hidden
	m.hideAt = time.Time{}
	m.log.Info("switcher " + msg)
}
