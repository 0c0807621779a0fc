// Package mcp exposes the daemon's control plane as MCP tools over stdio,
// so agents drive the switcher exactly like the CLI does: every tool is a
// thin typed wrapper over the IPC client.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/verge/internal/ipc"
)

const (
	ServerName    = "verge"
	ServerVersion = "0.1.0"
)

// Client is the slice of the IPC client the tools use.
type Client interface {
	GetStatus() (*ipc.StatusData, error)
	GetWindows() (*ipc.WindowsData, error)
	Show() error
	Hide(now bool) error
	Snooze(forSeconds int) (*ipc.SnoozeData, error)
	Activate(windowID uint32) error
}

// Server is the MCP server for the verge daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	client    Client
	log       *slog.Logger
}

// NewServer creates an MCP server backed by the given IPC client.
func NewServer(client Client, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		client: client,
		log:    log,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the windows tracked by the verge daemon in current switcher order (most recently used first when MRU ordering is enabled). Includes title, class, desktop, monitor and whether a preview is cached.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "activate_window",
		Description: "Raise and focus a tracked window by its X11 window ID, switching desktops if needed. The switcher hides afterwards and the window becomes the most recently used.",
	}, s.handleActivateWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "switcher_status",
		Description: "Get the daemon's current state: visibility, trigger edge, snooze deadline, window/preview/monitor counts, X session statistics and the switcher placement rect of the most recent show.",
	}, s.handleSwitcherStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "show_switcher",
		Description: "Force the switcher to appear on the monitor under the pointer, bypassing the edge trigger, cooldown, snooze and fullscreen guard.",
	}, s.handleShowSwitcher)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "hide_switcher",
		Description: "Hide the switcher. By default the configured hide delay applies; set now to dismiss immediately.",
	}, s.handleHideSwitcher)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "snooze_switcher",
		Description: "Suppress edge triggering for a while, hiding any visible switcher first. Uses the daemon's configured default duration unless for_seconds is given. Returns the deadline.",
	}, s.handleSnoozeSwitcher)
}
