package mcp

import "github.com/1broseidon/verge/internal/ipc"

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Count   int              `json:"count"`
	Windows []ipc.WindowInfo `json:"windows"`
}

// ActivateWindowInput is the input for the activate_window tool.
type ActivateWindowInput struct {
	WindowID uint32 `json:"window_id" jsonschema:"required,X11 window ID as reported by list_windows"`
}

// ActivateWindowOutput is the output for the activate_window tool.
type ActivateWindowOutput struct {
	WindowID  uint32 `json:"window_id"`
	Activated bool   `json:"activated"`
}

// SwitcherStatusInput is the input for the switcher_status tool.
type SwitcherStatusInput struct{}

// SwitcherStatusOutput is the output for the switcher_status tool.
type SwitcherStatusOutput struct {
	State             string             `json:"state"`
	Edge              string             `json:"edge"`
	Ready             bool               `json:"ready"`
	SnoozedUntil      string             `json:"snoozed_until,omitempty"`
	WindowCount       int                `json:"window_count"`
	PreviewCount      int                `json:"preview_count"`
	MonitorCount      int                `json:"monitor_count"`
	Placement         *ipc.PlacementInfo `json:"placement,omitempty"`
	SessionEpoch      uint64             `json:"session_epoch"`
	SessionOps        int                `json:"session_ops"`
	SessionAgeSeconds int64              `json:"session_age_seconds"`
	UptimeSeconds     int64              `json:"uptime_seconds"`
}

// ShowSwitcherInput is the input for the show_switcher tool.
type ShowSwitcherInput struct{}

// ShowSwitcherOutput is the output for the show_switcher tool.
type ShowSwitcherOutput struct {
	Shown bool `json:"shown"`
}

// HideSwitcherInput is the input for the hide_switcher tool.
type HideSwitcherInput struct {
	Now bool `json:"now,omitempty" jsonschema:"When true, dismiss immediately instead of honoring the configured hide delay"`
}

// HideSwitcherOutput is the output for the hide_switcher tool.
type HideSwitcherOutput struct {
	Hidden bool `json:"hidden"`
}

// SnoozeSwitcherInput is the input for the snooze_switcher tool.
type SnoozeSwitcherInput struct {
	ForSeconds int `json:"for_seconds,omitempty" jsonschema:"Snooze duration in seconds (default: the daemon's configured snooze_for_seconds)"`
}

// SnoozeSwitcherOutput is the output for the snooze_switcher tool.
type SnoozeSwitcherOutput struct {
	Until string `json:"until"`
}
