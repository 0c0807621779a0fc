package ipc

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/verge/internal/engine"
	"github.com/1broseidon/verge/internal/registry"
	"github.com/1broseidon/verge/internal/session"
	"github.com/1broseidon/verge/internal/x11"
)

// fakeEngine runs Call closures inline, standing in for the loop goroutine
// the daemon provides. Handlers run on connection goroutines, so recorded
// calls are read back through mutex-guarded accessors.
type fakeEngine struct {
	mu sync.Mutex

	status      engine.Status
	windows     []registry.Record
	monitors    []x11.Monitor
	previews    map[x11.WindowID]bool
	showErr     error
	activateErr error

	activated []x11.WindowID
	hides     []bool
	snoozes   []time.Duration
}

func (f *fakeEngine) Call(fn func() error) error { return fn() }

func (f *fakeEngine) Status() engine.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeEngine) Windows() []registry.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows
}

func (f *fakeEngine) Monitors() []x11.Monitor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.monitors
}

func (f *fakeEngine) Show() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.showErr
}

func (f *fakeEngine) Hide(immediate bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hides = append(f.hides, immediate)
}

func (f *fakeEngine) Snooze(d time.Duration) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snoozes = append(f.snoozes, d)
	return time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
}

func (f *fakeEngine) Activate(id x11.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activateErr != nil {
		return f.activateErr
	}
	f.activated = append(f.activated, id)
	return nil
}

func (f *fakeEngine) HasPreview(id x11.WindowID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.previews[id]
}

func (f *fakeEngine) recordedHides() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.hides...)
}

func (f *fakeEngine) recordedSnoozes() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.snoozes...)
}

func (f *fakeEngine) recordedActivations() []x11.WindowID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]x11.WindowID(nil), f.activated...)
}

// startServer brings up a server on an isolated socket and returns a
// client wired to it.
func startServer(t *testing.T, eng Engine, reload func() error) *Client {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("VERGE_SOCKET", "")

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(eng, reload, log)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)

	return NewClient()
}

func TestGetStatusRoundTrip(t *testing.T) {
	fake := &fakeEngine{
		status: engine.Status{
			State:     "visible",
			Edge:      "top",
			Ready:     true,
			Windows:   2,
			Previews:  1,
			Monitors:  1,
			Placement: x11.Rect{X: 100, Y: 0, Width: 800, Height: 200},
			Monitor:   0,
			Session:   session.Stats{Epoch: 3, Ops: 42, Age: 90 * time.Second},
			Uptime:    5 * time.Minute,
		},
	}
	client := startServer(t, fake, nil)

	st, err := client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.State != "visible" || st.Edge != "top" || !st.Ready {
		t.Errorf("unexpected status: %+v", st)
	}
	if st.WindowCount != 2 || st.PreviewCount != 1 || st.MonitorCount != 1 {
		t.Errorf("unexpected counts: %+v", st)
	}
	if st.SessionEpoch != 3 || st.SessionOps != 42 || st.SessionAgeSeconds != 90 {
		t.Errorf("unexpected session stats: %+v", st)
	}
	if st.UptimeSeconds != 300 {
		t.Errorf("UptimeSeconds = %d, want 300", st.UptimeSeconds)
	}
	if !st.DaemonRunning {
		t.Error("DaemonRunning not set")
	}
	if st.SnoozedUntil != "" {
		t.Errorf("SnoozedUntil = %q, want empty", st.SnoozedUntil)
	}
	if st.Placement == nil {
		t.Fatal("Placement missing")
	}
	if st.Placement.X != 100 || st.Placement.Width != 800 {
		t.Errorf("unexpected placement: %+v", st.Placement)
	}
}

func TestGetWindowsRoundTrip(t *testing.T) {
	fake := &fakeEngine{
		windows: []registry.Record{
			{ID: 42, Title: "Editor", Class: "code", Desktop: 1, Monitor: 0},
			{ID: 77, Title: "Browser", Class: "firefox", Desktop: -1, Sticky: true, Monitor: 1},
		},
		previews: map[x11.WindowID]bool{42: true},
	}
	client := startServer(t, fake, nil)

	data, err := client.GetWindows()
	if err != nil {
		t.Fatalf("GetWindows: %v", err)
	}
	if len(data.Windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(data.Windows))
	}
	first := data.Windows[0]
	if first.ID != 42 || first.Title != "Editor" || !first.HasPreview {
		t.Errorf("unexpected first window: %+v", first)
	}
	second := data.Windows[1]
	if !second.Sticky || second.HasPreview {
		t.Errorf("unexpected second window: %+v", second)
	}
}

func TestGetMonitorsRoundTrip(t *testing.T) {
	fake := &fakeEngine{
		monitors: []x11.Monitor{
			{Index: 0, Name: "DP-1", X: 0, Y: 0, Width: 1920, Height: 1080},
			{Index: 1, Name: "HDMI-1", X: 1920, Y: 0, Width: 2560, Height: 1440},
		},
	}
	client := startServer(t, fake, nil)

	data, err := client.GetMonitors()
	if err != nil {
		t.Fatalf("GetMonitors: %v", err)
	}
	if len(data.Monitors) != 2 {
		t.Fatalf("got %d monitors, want 2", len(data.Monitors))
	}
	if data.Monitors[1].Name != "HDMI-1" || data.Monitors[1].X != 1920 {
		t.Errorf("unexpected monitor: %+v", data.Monitors[1])
	}
}

func TestHideRoutesImmediateFlag(t *testing.T) {
	fake := &fakeEngine{}
	client := startServer(t, fake, nil)

	if err := client.Hide(true); err != nil {
		t.Fatalf("Hide(true): %v", err)
	}
	if err := client.Hide(false); err != nil {
		t.Fatalf("Hide(false): %v", err)
	}

	hides := fake.recordedHides()
	if len(hides) != 2 || !hides[0] || hides[1] {
		t.Fatalf("recorded hides = %v, want [true false]", hides)
	}
}

func TestSnoozeReturnsDeadline(t *testing.T) {
	fake := &fakeEngine{}
	client := startServer(t, fake, nil)

	data, err := client.Snooze(90)
	if err != nil {
		t.Fatalf("Snooze: %v", err)
	}
	if data.Until != "2025-06-01T12:30:00Z" {
		t.Errorf("Until = %q", data.Until)
	}

	snoozes := fake.recordedSnoozes()
	if len(snoozes) != 1 || snoozes[0] != 90*time.Second {
		t.Fatalf("recorded snoozes = %v, want [90s]", snoozes)
	}
}

func TestActivateRoundTrip(t *testing.T) {
	fake := &fakeEngine{}
	client := startServer(t, fake, nil)

	if err := client.Activate(42); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	activated := fake.recordedActivations()
	if len(activated) != 1 || activated[0] != 42 {
		t.Fatalf("recorded activations = %v, want [42]", activated)
	}
}

func TestActivateRequiresWindowID(t *testing.T) {
	client := startServer(t, &fakeEngine{}, nil)

	err := client.Activate(0)
	if err == nil {
		t.Fatal("expected error for zero window id")
	}
	if !strings.Contains(err.Error(), "window_id is required") {
		t.Errorf("error = %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	client := startServer(t, &fakeEngine{}, nil)

	_, err := client.sendRequest(&Request{Command: "NOPE"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "Unknown command") {
		t.Errorf("error = %v", err)
	}
}

func TestReloadInvokesCallback(t *testing.T) {
	called := 0
	client := startServer(t, &fakeEngine{}, func() error {
		called++
		return nil
	})

	if err := client.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if called != 1 {
		t.Fatalf("reload called %d times, want 1", called)
	}
}

func TestReloadWithoutCallback(t *testing.T) {
	client := startServer(t, &fakeEngine{}, nil)

	err := client.Reload()
	if err == nil {
		t.Fatal("expected error when reload is not wired")
	}
	if !strings.Contains(err.Error(), "reload not supported") {
		t.Errorf("error = %v", err)
	}
}

func TestPingWithoutDaemon(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("VERGE_SOCKET", "")

	client := NewClient()
	if err := client.Ping(); err == nil {
		t.Fatal("expected error with no daemon listening")
	}
}
