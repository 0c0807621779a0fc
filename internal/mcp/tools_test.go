package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/1broseidon/verge/internal/ipc"
)

type fakeClient struct {
	status  *ipc.StatusData
	windows *ipc.WindowsData
	snooze  *ipc.SnoozeData
	err     error

	activated []uint32
	hides     []bool
	snoozes   []int
	shows     int
}

func (f *fakeClient) GetStatus() (*ipc.StatusData, error) {
	return f.status, f.err
}

func (f *fakeClient) GetWindows() (*ipc.WindowsData, error) {
	return f.windows, f.err
}

func (f *fakeClient) Show() error {
	f.shows++
	return f.err
}

func (f *fakeClient) Hide(now bool) error {
	f.hides = append(f.hides, now)
	return f.err
}

func (f *fakeClient) Snooze(forSeconds int) (*ipc.SnoozeData, error) {
	f.snoozes = append(f.snoozes, forSeconds)
	return f.snooze, f.err
}

func (f *fakeClient) Activate(windowID uint32) error {
	if f.err != nil {
		return f.err
	}
	f.activated = append(f.activated, windowID)
	return nil
}

func newTestServer(fake *fakeClient) *Server {
	return NewServer(fake, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListWindows(t *testing.T) {
	fake := &fakeClient{
		windows: &ipc.WindowsData{Windows: []ipc.WindowInfo{
			{ID: 42, Title: "Editor", Class: "code", HasPreview: true},
			{ID: 77, Title: "Browser", Class: "firefox"},
		}},
	}
	s := newTestServer(fake)

	_, out, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{})
	if err != nil {
		t.Fatalf("handleListWindows: %v", err)
	}
	if out.Count != 2 || len(out.Windows) != 2 {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out.Windows[0].ID != 42 || !out.Windows[0].HasPreview {
		t.Errorf("unexpected first window: %+v", out.Windows[0])
	}
}

func TestActivateWindowRequiresID(t *testing.T) {
	s := newTestServer(&fakeClient{})

	_, _, err := s.handleActivateWindow(context.Background(), nil, ActivateWindowInput{})
	if err == nil {
		t.Fatal("expected error for missing window_id")
	}
	if !strings.Contains(err.Error(), "window_id is required") {
		t.Errorf("error = %v", err)
	}
}

func TestActivateWindow(t *testing.T) {
	fake := &fakeClient{}
	s := newTestServer(fake)

	_, out, err := s.handleActivateWindow(context.Background(), nil, ActivateWindowInput{WindowID: 42})
	if err != nil {
		t.Fatalf("handleActivateWindow: %v", err)
	}
	if !out.Activated || out.WindowID != 42 {
		t.Errorf("unexpected output: %+v", out)
	}
	if len(fake.activated) != 1 || fake.activated[0] != 42 {
		t.Errorf("client saw %v, want [42]", fake.activated)
	}
}

func TestActivateWindowPropagatesDaemonError(t *testing.T) {
	fake := &fakeClient{err: errors.New("daemon error: window 42 is gone")}
	s := newTestServer(fake)

	_, _, err := s.handleActivateWindow(context.Background(), nil, ActivateWindowInput{WindowID: 42})
	if err == nil {
		t.Fatal("expected propagated error")
	}
	if !strings.Contains(err.Error(), "window 42 is gone") {
		t.Errorf("error = %v", err)
	}
}

func TestSwitcherStatus(t *testing.T) {
	fake := &fakeClient{
		status: &ipc.StatusData{
			State:         "cooling-down",
			Edge:          "top",
			Ready:         true,
			WindowCount:   5,
			PreviewCount:  5,
			MonitorCount:  2,
			SessionEpoch:  7,
			UptimeSeconds: 3600,
			Placement:     &ipc.PlacementInfo{Monitor: 1, X: 100, Width: 800, Height: 200},
		},
	}
	s := newTestServer(fake)

	_, out, err := s.handleSwitcherStatus(context.Background(), nil, SwitcherStatusInput{})
	if err != nil {
		t.Fatalf("handleSwitcherStatus: %v", err)
	}
	if out.State != "cooling-down" || out.SessionEpoch != 7 || out.WindowCount != 5 {
		t.Errorf("unexpected output: %+v", out)
	}
	if out.Placement == nil || out.Placement.Monitor != 1 {
		t.Errorf("placement not carried: %+v", out.Placement)
	}
}

func TestShowSwitcher(t *testing.T) {
	fake := &fakeClient{}
	s := newTestServer(fake)

	_, out, err := s.handleShowSwitcher(context.Background(), nil, ShowSwitcherInput{})
	if err != nil {
		t.Fatalf("handleShowSwitcher: %v", err)
	}
	if !out.Shown || fake.shows != 1 {
		t.Errorf("shown = %v, shows = %d", out.Shown, fake.shows)
	}
}

func TestHideSwitcherPassesNow(t *testing.T) {
	fake := &fakeClient{}
	s := newTestServer(fake)

	if _, _, err := s.handleHideSwitcher(context.Background(), nil, HideSwitcherInput{Now: true}); err != nil {
		t.Fatalf("handleHideSwitcher: %v", err)
	}
	if len(fake.hides) != 1 || !fake.hides[0] {
		t.Errorf("client saw hides %v, want [true]", fake.hides)
	}
}

func TestSnoozeSwitcher(t *testing.T) {
	fake := &fakeClient{snooze: &ipc.SnoozeData{Until: "2025-06-01T12:30:00Z"}}
	s := newTestServer(fake)

	_, out, err := s.handleSnoozeSwitcher(context.Background(), nil, SnoozeSwitcherInput{ForSeconds: 90})
	if err != nil {
		t.Fatalf("handleSnoozeSwitcher: %v", err)
	}
	if out.Until != "2025-06-01T12:30:00Z" {
		t.Errorf("Until = %q", out.Until)
	}
	if len(fake.snoozes) != 1 || fake.snoozes[0] != 90 {
		t.Errorf("client saw snoozes %v, want [90]", fake.snoozes)
	}
}

func TestSnoozeSwitcherRejectsNegative(t *testing.T) {
	s := newTestServer(&fakeClient{})

	_, _, err := s.handleSnoozeSwitcher(context.Background(), nil, SnoozeSwitcherInput{ForSeconds: -1})
	if err == nil {
		t.Fatal("expected error for negative duration")
	}
}
