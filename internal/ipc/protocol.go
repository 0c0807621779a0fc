package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandGetWindows  CommandType = "GET_WINDOWS"
	CommandGetMonitors CommandType = "GET_MONITORS"
	CommandShow        CommandType = "SHOW"
	CommandHide        CommandType = "HIDE"
	CommandSnooze      CommandType = "SNOOZE"
	CommandActivate    CommandType = "ACTIVATE"
	CommandReload      CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	State             string         `json:"state"`
	Edge              string         `json:"edge"`
	Ready             bool           `json:"ready"`
	SnoozedUntil      string         `json:"snoozed_until,omitempty"`
	WindowCount       int            `json:"window_count"`
	PreviewCount      int            `json:"preview_count"`
	MonitorCount      int            `json:"monitor_count"`
	Placement         *PlacementInfo `json:"placement,omitempty"`
	SessionEpoch      uint64         `json:"session_epoch"`
	SessionOps        int            `json:"session_ops"`
	SessionAgeSeconds int64          `json:"session_age_seconds"`
	UptimeSeconds     int64          `json:"uptime_seconds"`
	DaemonRunning     bool           `json:"daemon_running"`
}

// PlacementInfo is the switcher rect of the most recent show.
type PlacementInfo struct {
	Monitor int `json:"monitor"`
	X       int `json:"x"`
	Y       int `json:"y"`
	Width   int `json:"width"`
	Height  int `json:"height"`
}

// WindowInfo represents one tracked window in GET_WINDOWS
type WindowInfo struct {
	ID         uint32 `json:"id"`
	Title      string `json:"title"`
	Class      string `json:"class"`
	Desktop    int    `json:"desktop"`
	Sticky     bool   `json:"sticky,omitempty"`
	Monitor    int    `json:"monitor"`
	Minimized  bool   `json:"minimized,omitempty"`
	Fullscreen bool   `json:"fullscreen,omitempty"`
	HasPreview bool   `json:"has_preview"`
}

// WindowsData represents the data returned by GET_WINDOWS
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// HidePayload represents the payload for HIDE command. Now skips the
// configured hide delay, which is the escape-key dismiss path.
type HidePayload struct {
	Now bool `json:"now,omitempty"`
}

// SnoozePayload represents the payload for SNOOZE command. A zero
// ForSeconds uses the daemon's configured default.
type SnoozePayload struct {
	ForSeconds int `json:"for_seconds,omitempty"`
}

// SnoozeData represents the data returned by SNOOZE
type SnoozeData struct {
	Until string `json:"until"`
}

// ActivatePayload represents the payload for ACTIVATE command
type ActivatePayload struct {
	WindowID uint32 `json:"window_id"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
