package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/verge/internal/engine"
	"github.com/1broseidon/verge/internal/registry"
	"github.com/1broseidon/verge/internal/runtimepath"
	"github.com/1broseidon/verge/internal/x11"
)

// Engine is the slice of the engine the control plane drives. Handlers run
// on connection goroutines; every method except Call must only be invoked
// from inside a Call closure.
type Engine interface {
	Call(fn func() error) error
	Status() engine.Status
	Windows() []registry.Record
	Monitors() []x11.Monitor
	Show() error
	Hide(immediate bool)
	Snooze(d time.Duration) time.Time
	Activate(id x11.WindowID) error
	HasPreview(id x11.WindowID) bool
}

// Server answers control requests on the daemon's unix socket
type Server struct {
	log        *slog.Logger
	socketPath string
	listener   net.Listener
	engine     Engine
	// reload is wired by the daemon; RELOAD reports its error to the
	// client so a broken config edit is visible at the CLI.
	reload func() error

	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer resolves the socket path and binds the server to the engine.
// Start must be called before clients can connect.
func NewServer(eng Engine, reload func() error, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Clear a stale socket left by a previous daemon run
	os.Remove(socketPath)

	return &Server{
		log:        log,
		socketPath: socketPath,
		engine:     eng,
		reload:     reload,
	}, nil
}

// Start binds the unix socket and begins serving requests
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Owner-only: the socket accepts activation and reload commands
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.log.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

// acceptLoop serves connections until the listener closes
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.log.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection reads one request line and writes one response line
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.log.Warn("failed to marshal response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.log.Warn("failed to send response", "error", err)
	}
}

// handleCommand dispatches a parsed request to its handler
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetWindows:
		return s.handleGetWindows()
	case CommandGetMonitors:
		return s.handleGetMonitors()
	case CommandShow:
		return s.handleShow()
	case CommandHide:
		return s.handleHide(req.Payload)
	case CommandSnooze:
		return s.handleSnooze(req.Payload)
	case CommandActivate:
		return s.handleActivate(req.Payload)
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleGetStatus reports visibility, session, and cache counters
func (s *Server) handleGetStatus() *Response {
	var st engine.Status
	if err := s.engine.Call(func() error {
		st = s.engine.Status()
		return nil
	}); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get status: %v", err))
	}

	status := StatusData{
		State:             st.State,
		Edge:              st.Edge,
		Ready:             st.Ready,
		WindowCount:       st.Windows,
		PreviewCount:      st.Previews,
		MonitorCount:      st.Monitors,
		SessionEpoch:      st.Session.Epoch,
		SessionOps:        st.Session.Ops,
		SessionAgeSeconds: int64(st.Session.Age.Seconds()),
		UptimeSeconds:     int64(st.Uptime.Seconds()),
		DaemonRunning:     true,
	}
	if !st.SnoozedUntil.IsZero() {
		status.SnoozedUntil = st.SnoozedUntil.Format(time.RFC3339)
	}
	if st.Placement.Width > 0 {
		status.Placement = &PlacementInfo{
			Monitor: st.Monitor,
			X:       st.Placement.X,
			Y:       st.Placement.Y,
			Width:   st.Placement.Width,
			Height:  st.Placement.Height,
		}
	}

	resp, _ := NewOKResponse(status)
	return resp
}

// handleGetWindows returns the tracked window snapshot
func (s *Server) handleGetWindows() *Response {
	var infos []WindowInfo
	if err := s.engine.Call(func() error {
		for _, rec := range s.engine.Windows() {
			infos = append(infos, WindowInfo{
				ID:         uint32(rec.ID),
				Title:      rec.Title,
				Class:      rec.Class,
				Desktop:    rec.Desktop,
				Sticky:     rec.Sticky,
				Monitor:    rec.Monitor,
				Minimized:  rec.Minimized,
				Fullscreen: rec.Fullscreen,
				HasPreview: s.engine.HasPreview(rec.ID),
			})
		}
		return nil
	}); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get windows: %v", err))
	}

	resp, _ := NewOKResponse(WindowsData{Windows: infos})
	return resp
}

// handleGetMonitors lists the monitor geometry from the engine's last scan
func (s *Server) handleGetMonitors() *Response {
	var monitors []x11.Monitor
	if err := s.engine.Call(func() error {
		monitors = s.engine.Monitors()
		return nil
	}); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get monitors: %v", err))
	}

	monitorInfos := make([]MonitorInfo, len(monitors))
	for i, m := range monitors {
		monitorInfos[i] = MonitorInfo{
			ID:     m.Index,
			Name:   m.Name,
			X:      m.X,
			Y:      m.Y,
			Width:  m.Width,
			Height: m.Height,
		}
	}

	resp, _ := NewOKResponse(MonitorsData{Monitors: monitorInfos})
	return resp
}

// handleShow forces the switcher up
func (s *Server) handleShow() *Response {
	if err := s.engine.Call(func() error { return s.engine.Show() }); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to show: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

// handleHide hides the switcher, immediately when now is set
func (s *Server) handleHide(payload json.RawMessage) *Response {
	var p HidePayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid hide payload: %v", err))
		}
	}

	if err := s.engine.Call(func() error {
		s.engine.Hide(p.Now)
		return nil
	}); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to hide: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

// handleSnooze suppresses edge triggering for a while
func (s *Server) handleSnooze(payload json.RawMessage) *Response {
	var p SnoozePayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid snooze payload: %v", err))
		}
	}

	var until time.Time
	if err := s.engine.Call(func() error {
		until = s.engine.Snooze(time.Duration(p.ForSeconds) * time.Second)
		return nil
	}); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to snooze: %v", err))
	}

	resp, _ := NewOKResponse(SnoozeData{Until: until.Format(time.RFC3339)})
	return resp
}

// handleActivate raises and focuses a tracked window
func (s *Server) handleActivate(payload json.RawMessage) *Response {
	var p ActivatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid activate payload: %v", err))
	}
	if p.WindowID == 0 {
		return NewErrorResponse("window_id is required")
	}

	if err := s.engine.Call(func() error {
		return s.engine.Activate(x11.WindowID(p.WindowID))
	}); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to activate: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

// handleReload re-reads the config file through the daemon's reload hook
func (s *Server) handleReload() *Response {
	s.log.Info("IPC: received RELOAD command")

	if s.reload == nil {
		return NewErrorResponse("reload not supported")
	}
	if err := s.reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

// sendError writes an ERROR envelope for requests that never reach a handler
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop closes the listener and removes the socket
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
