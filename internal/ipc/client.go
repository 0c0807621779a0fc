package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/verge/internal/runtimepath"
)

// Client talks to the daemon control socket, one request per connection
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient builds a client for the default socket location
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Resolution failures surface later as dial errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest performs one request/response round trip
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// GetStatus reports visibility state and session health
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// GetWindows retrieves the tracked window snapshot
func (c *Client) GetWindows() (*WindowsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetWindows})
	if err != nil {
		return nil, err
	}

	var windows WindowsData
	if err := json.Unmarshal(resp.Data, &windows); err != nil {
		return nil, fmt.Errorf("failed to parse windows data: %w", err)
	}

	return &windows, nil
}

// GetMonitors lists the monitors the daemon tracks
func (c *Client) GetMonitors() (*MonitorsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetMonitors})
	if err != nil {
		return nil, err
	}

	var monitors MonitorsData
	if err := json.Unmarshal(resp.Data, &monitors); err != nil {
		return nil, fmt.Errorf("failed to parse monitors data: %w", err)
	}

	return &monitors, nil
}

// Show forces the switcher to appear
func (c *Client) Show() error {
	_, err := c.sendRequest(&Request{Command: CommandShow})
	return err
}

// Hide hides the switcher. With now set the configured hide delay is
// skipped.
func (c *Client) Hide(now bool) error {
	payload, err := json.Marshal(HidePayload{Now: now})
	if err != nil {
		return fmt.Errorf("failed to marshal hide payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandHide, Payload: payload})
	return err
}

// Snooze suppresses edge triggering for forSeconds (0 uses the daemon's
// configured default) and returns the deadline.
func (c *Client) Snooze(forSeconds int) (*SnoozeData, error) {
	payload, err := json.Marshal(SnoozePayload{ForSeconds: forSeconds})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snooze payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: CommandSnooze, Payload: payload})
	if err != nil {
		return nil, err
	}

	var data SnoozeData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse snooze data: %w", err)
	}

	return &data, nil
}

// Activate raises and focuses a tracked window
func (c *Client) Activate(windowID uint32) error {
	payload, err := json.Marshal(ActivatePayload{WindowID: windowID})
	if err != nil {
		return fmt.Errorf("failed to marshal activate payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandActivate, Payload: payload})
	return err
}

// Reload asks the daemon to re-read its configuration file
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// Ping reports whether a daemon is answering on the socket
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
