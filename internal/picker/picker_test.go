package picker

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/verge/internal/ipc"
)

type fakeClient struct {
	windows     []ipc.WindowInfo
	activateErr error
	listErr     error
	activated   []uint32
}

func (f *fakeClient) GetWindows() (*ipc.WindowsData, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &ipc.WindowsData{Windows: f.windows}, nil
}

func (f *fakeClient) Activate(windowID uint32) error {
	if f.activateErr != nil {
		return f.activateErr
	}
	f.activated = append(f.activated, windowID)
	return nil
}

func testWindows() []ipc.WindowInfo {
	return []ipc.WindowInfo{
		{ID: 42, Title: "Editor", Class: "code", Desktop: 0},
		{ID: 77, Title: "Browser", Class: "firefox", Desktop: 1},
		{ID: 99, Title: "Terminal", Class: "kitty", Desktop: 0},
	}
}

// newTestModel sizes the model so the list widget has a real viewport.
func newTestModel(t *testing.T, client Client, windows []ipc.WindowInfo) model {
	t.Helper()
	m := newModel(client, windows)
	return update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T, want model", next)
	}
	return nm
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEnterActivatesSelectedWindow(t *testing.T) {
	fake := &fakeClient{windows: testWindows()}
	m := newTestModel(t, fake, fake.windows)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(fake.activated) != 1 || fake.activated[0] != 42 {
		t.Fatalf("activated = %v, want the first (selected) window 42", fake.activated)
	}
	if cmd == nil {
		t.Fatal("expected a quit command after activation")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("cmd produced %T, want tea.QuitMsg", cmd())
	}
	if _, ok := next.(model); !ok {
		t.Fatalf("Update returned %T, want model", next)
	}
}

func TestActivationErrorKeepsPickerOpen(t *testing.T) {
	fake := &fakeClient{
		windows:     testWindows(),
		activateErr: errors.New("daemon error: window 42 is gone"),
	}
	m := newTestModel(t, fake, fake.windows)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(fake.activated) != 0 {
		t.Fatalf("activated = %v, want none", fake.activated)
	}
	if m.statusText != "error: daemon error: window 42 is gone" {
		t.Fatalf("statusText = %q", m.statusText)
	}
}

func TestQuitKeys(t *testing.T) {
	for _, msg := range []tea.KeyMsg{
		key("q"),
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		fake := &fakeClient{windows: testWindows()}
		m := newTestModel(t, fake, fake.windows)

		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("%v: expected quit command", msg)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%v: cmd produced %T, want tea.QuitMsg", msg, cmd())
		}
	}
}

func TestFilteringCapturesKeys(t *testing.T) {
	fake := &fakeClient{windows: testWindows()}
	m := newTestModel(t, fake, fake.windows)

	m = update(t, m, key("/"))
	if !m.list.SettingFilter() {
		t.Fatal("expected the list to be in filtering mode after /")
	}

	// While typing a filter, q must go to the input, not quit the picker.
	next, cmd := m.Update(key("q"))
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("q during filtering must not quit")
		}
	}
	m = next.(model)
	if !m.list.SettingFilter() {
		t.Fatal("expected filtering to continue")
	}
}

func TestRefreshPreservesSelection(t *testing.T) {
	fake := &fakeClient{windows: testWindows()}
	m := newTestModel(t, fake, fake.windows)

	m.list.Select(1)
	if got := m.selectedID(); got != 77 {
		t.Fatalf("selectedID = %d, want 77", got)
	}

	// The daemon reordered the list; the selection should follow the window.
	fake.windows = []ipc.WindowInfo{
		{ID: 77, Title: "Browser", Class: "firefox", Desktop: 1},
		{ID: 42, Title: "Editor", Class: "code", Desktop: 0},
		{ID: 99, Title: "Terminal", Class: "kitty", Desktop: 0},
	}
	m = update(t, m, key("r"))

	if got := m.selectedID(); got != 77 {
		t.Fatalf("selectedID after refresh = %d, want 77", got)
	}
	if len(m.list.Items()) != 3 {
		t.Fatalf("items = %d, want 3", len(m.list.Items()))
	}
	if m.statusText != "3 windows" {
		t.Fatalf("statusText = %q, want %q", m.statusText, "3 windows")
	}
}

func TestRefreshErrorReportsStatus(t *testing.T) {
	fake := &fakeClient{windows: testWindows()}
	m := newTestModel(t, fake, fake.windows)

	fake.listErr = errors.New("dial unix: no such file or directory")
	m = update(t, m, key("r"))

	if m.statusText != "error: dial unix: no such file or directory" {
		t.Fatalf("statusText = %q", m.statusText)
	}
	if len(m.list.Items()) != 3 {
		t.Fatalf("items = %d, want the stale 3 kept", len(m.list.Items()))
	}
}

func TestItemTextFallbacks(t *testing.T) {
	it := windowItem{info: ipc.WindowInfo{ID: 7, Class: "mpv", Desktop: -1, Sticky: true}}
	if got := it.Title(); got != "(untitled)" {
		t.Fatalf("Title = %q, want %q", got, "(untitled)")
	}
	if got := it.Description(); got != "mpv  all desktops  0x00000007" {
		t.Fatalf("Description = %q", got)
	}
	if got := it.FilterValue(); got != " mpv" {
		t.Fatalf("FilterValue = %q", got)
	}
}
