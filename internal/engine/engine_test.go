package engine

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/1broseidon/verge/internal/config"
	"github.com/1broseidon/verge/internal/trigger"
	"github.com/1broseidon/verge/internal/visibility"
	"github.com/1broseidon/verge/internal/x11"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, mutate func(*config.Config)) *Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	e, err := New(cfg, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.now = func() time.Time { return t0 }
	return e
}

// showLive drives the machine to Visible without touching X.
func showLive(t *testing.T, e *Engine) {
	t.Helper()
	e.machine.SetReady()
	seq, ok := e.machine.ForceShow(t0)
	if !ok {
		t.Fatal("ForceShow refused")
	}
	if !e.machine.LayoutDone(seq, t0) {
		t.Fatal("LayoutDone discarded")
	}
}

func TestNewRejectsUnknownEdge(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Trigger.Edge = "diagonal"
	if _, err := New(cfg, discardLogger()); err == nil {
		t.Fatal("expected error for unknown edge")
	}
}

func TestCallWithoutRunningLoop(t *testing.T) {
	e := newTestEngine(t, nil)

	old := callTimeout
	callTimeout = 20 * time.Millisecond
	defer func() { callTimeout = old }()

	if err := e.Call(func() error { return nil }); err != ErrBusy {
		t.Fatalf("Call = %v, want ErrBusy", err)
	}
}

func TestStatusBeforeStartup(t *testing.T) {
	e := newTestEngine(t, nil)
	st := e.Status()
	if st.State != "hidden" {
		t.Errorf("State = %q, want hidden", st.State)
	}
	if st.Edge != "top" {
		t.Errorf("Edge = %q, want top", st.Edge)
	}
	if st.Ready {
		t.Error("Ready before startup")
	}
	if st.Windows != 0 || st.Previews != 0 || st.Monitors != 0 {
		t.Errorf("unexpected counts: %+v", st)
	}
	if st.Uptime != 0 {
		t.Errorf("Uptime = %v before Run", st.Uptime)
	}
}

func TestHideImmediateDismissesLiveShow(t *testing.T) {
	e := newTestEngine(t, nil)
	showLive(t, e)

	e.Hide(true)
	if got := e.machine.State(t0.Add(time.Hour)); got != visibility.Hidden {
		t.Fatalf("state = %v, want Hidden", got)
	}
}

func TestHideDelayedWaitsForDeadline(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) { c.Switcher.HideDelayMS = 300 })
	showLive(t, e)

	e.Hide(false)
	if got := e.machine.State(t0.Add(100 * time.Millisecond)); got != visibility.Visible {
		t.Fatalf("state before deadline = %v, want Visible", got)
	}
	e.machine.Tick(t0.Add(400 * time.Millisecond))
	if got := e.machine.State(t0.Add(time.Hour)); got != visibility.Hidden {
		t.Fatalf("state after deadline = %v, want Hidden", got)
	}
}

func TestSnoozeUsesConfiguredDefault(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) { c.Switcher.SnoozeForSeconds = 60 })
	e.machine.SetReady()

	until := e.Snooze(0)
	if want := t0.Add(60 * time.Second); !until.Equal(want) {
		t.Fatalf("deadline = %v, want %v", until, want)
	}
	if _, ok := e.machine.HandleTrigger(t0.Add(time.Second)); ok {
		t.Fatal("trigger accepted during snooze")
	}
	if _, ok := e.machine.HandleTrigger(t0.Add(61 * time.Second)); !ok {
		t.Fatal("trigger refused after snooze expired")
	}
}

func TestSnoozeExplicitDuration(t *testing.T) {
	e := newTestEngine(t, nil)
	until := e.Snooze(5 * time.Minute)
	if want := t0.Add(5 * time.Minute); !until.Equal(want) {
		t.Fatalf("deadline = %v, want %v", until, want)
	}
}

func TestSnoozeDismissesLiveShow(t *testing.T) {
	e := newTestEngine(t, nil)
	showLive(t, e)

	e.Snooze(time.Minute)
	if got := e.machine.State(t0.Add(2 * time.Minute)); got != visibility.Hidden {
		t.Fatalf("state = %v, want Hidden", got)
	}
}

func TestApplySwapsDetectorAndTunables(t *testing.T) {
	e := newTestEngine(t, nil)

	cfg := config.DefaultConfig()
	cfg.Trigger.Edge = "bottom"
	cfg.Trigger.ThresholdPx = 3
	cfg.Preview.MaxEntries = 10
	if err := e.Apply(cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := e.detector.Edge(); got != trigger.EdgeBottom {
		t.Errorf("edge = %v, want bottom", got)
	}
	if e.cfg.Preview.MaxEntries != 10 {
		t.Errorf("MaxEntries = %d, want 10", e.cfg.Preview.MaxEntries)
	}
}

func TestApplyRejectsUnknownEdgeKeepingOld(t *testing.T) {
	e := newTestEngine(t, nil)

	cfg := config.DefaultConfig()
	cfg.Trigger.Edge = "sideways"
	if err := e.Apply(cfg); err == nil {
		t.Fatal("expected error for unknown edge")
	}
	if got := e.detector.Edge(); got != trigger.EdgeTop {
		t.Errorf("edge = %v, want top after rejected apply", got)
	}
}

func TestDeferPrepareRollsBackWhenQueueFull(t *testing.T) {
	e := newTestEngine(t, nil)
	e.machine.SetReady()
	for i := 0; i < workQueueSize; i++ {
		e.work <- func() {}
	}

	seq, ok := e.machine.HandleTrigger(t0)
	if !ok {
		t.Fatal("trigger refused")
	}
	e.deferPrepare(seq, x11.Monitor{Width: 1920, Height: 1080})
	if got := e.machine.State(t0.Add(time.Hour)); got != visibility.Hidden {
		t.Fatalf("state = %v, want Hidden after rollback", got)
	}
}
