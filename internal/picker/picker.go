// Package picker is an interactive terminal window picker: the daemon's
// window list in a filterable full-screen list, Enter activates. It covers
// sessions where the edge-triggered switcher UI is not running.
package picker

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/verge/internal/ipc"
)

// Client is the slice of the IPC client the picker needs.
type Client interface {
	GetWindows() (*ipc.WindowsData, error)
	Activate(windowID uint32) error
}

// Run fetches the window list and hands the terminal to the picker UI.
// It returns once a window was activated or the user quit.
func Run(client Client) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("pick requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	data, err := client.GetWindows()
	if err != nil {
		return err
	}

	p := tea.NewProgram(newModel(client, data.Windows), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// windowItem adapts one window record to the list widget.
type windowItem struct {
	info ipc.WindowInfo
}

func (i windowItem) Title() string {
	if i.info.Title == "" {
		return "(untitled)"
	}
	return i.info.Title
}

func (i windowItem) Description() string {
	desk := fmt.Sprintf("desktop %d", i.info.Desktop)
	if i.info.Sticky {
		desk = "all desktops"
	}
	extra := ""
	if i.info.Minimized {
		extra = "  minimized"
	} else if i.info.Fullscreen {
		extra = "  fullscreen"
	}
	return fmt.Sprintf("%s  %s  0x%08x%s", i.info.Class, desk, i.info.ID, extra)
}

func (i windowItem) FilterValue() string {
	return i.info.Title + " " + i.info.Class
}

// statusMsg is sent after an action completes.
type statusMsg struct {
	text string
}

// clearStatusMsg clears the status message after a delay.
type clearStatusMsg struct{}

type model struct {
	client Client
	list   list.Model

	statusText string

	width  int
	height int
}

func newModel(client Client, windows []ipc.WindowInfo) model {
	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)

	l := list.New(buildItems(windows), delegate, 0, 0)
	l.Title = "verge windows"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()

	return model{client: client, list: l}
}

func buildItems(windows []ipc.WindowInfo) []list.Item {
	items := make([]list.Item, 0, len(windows))
	for _, w := range windows {
		items = append(items, windowItem{info: w})
	}
	return items
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := msg.Height - 1
		if listHeight < 1 {
			listHeight = 1
		}
		m.list.SetSize(msg.Width, listHeight)
		return m, nil

	case statusMsg:
		m.statusText = msg.text
		return m, clearAfter()

	case clearStatusMsg:
		m.statusText = ""
		return m, nil

	case tea.KeyMsg:
		// The filter input owns the keyboard while it is being typed into.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			return m.activateSelected()
		case "r":
			return m.refresh()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func clearAfter() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m model) activateSelected() (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(windowItem)
	if !ok {
		return m, nil
	}
	if err := m.client.Activate(item.info.ID); err != nil {
		m.statusText = fmt.Sprintf("error: %v", err)
		return m, clearAfter()
	}
	return m, tea.Quit
}

func (m model) refresh() (tea.Model, tea.Cmd) {
	data, err := m.client.GetWindows()
	if err != nil {
		m.statusText = fmt.Sprintf("error: %v", err)
		return m, clearAfter()
	}

	selected := m.selectedID()
	m.list.SetItems(buildItems(data.Windows))
	if selected != 0 {
		for i, it := range m.list.Items() {
			if w, ok := it.(windowItem); ok && w.info.ID == selected {
				m.list.Select(i)
				break
			}
		}
	}
	m.statusText = fmt.Sprintf("%d windows", len(data.Windows))
	return m, clearAfter()
}

func (m model) selectedID() uint32 {
	item, ok := m.list.SelectedItem().(windowItem)
	if !ok {
		return 0
	}
	return item.info.ID
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	left := ""
	if m.statusText != "" {
		left = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Render(m.statusText)
	}
	right := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("enter:activate  /:filter  r:refresh  q:quit")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right

	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), bar)
}
