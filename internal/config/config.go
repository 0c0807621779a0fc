// Package config defines the daemon configuration: YAML on disk, VERGE_*
// environment overrides on top, strict validation before anything runs.
package config

import (
	"fmt"
	"time"
)

// ValidationError reports a rejected setting by its YAML path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Trigger configures edge detection and pointer sampling.
type Trigger struct {
	// Edge is the screen edge that summons the switcher. Compass names
	// (north, south, west, east) are accepted as aliases.
	Edge string `yaml:"edge" envconfig:"EDGE"`
	// ThresholdPx is the inclusive distance from the edge that counts as
	// touching it.
	ThresholdPx    int `yaml:"threshold_px" envconfig:"THRESHOLD_PX"`
	PollIntervalMS int `yaml:"poll_interval_ms" envconfig:"POLL_INTERVAL_MS"`
}

// Switcher configures show/hide behavior and the placement grid.
type Switcher struct {
	HideDelayMS int `yaml:"hide_delay_ms" envconfig:"HIDE_DELAY_MS"`
	CooldownMS  int `yaml:"cooldown_ms" envconfig:"COOLDOWN_MS"`
	// SnoozeForSeconds is the default suppression span for a snooze
	// request that carries no duration.
	SnoozeForSeconds int `yaml:"snooze_for_seconds" envconfig:"SNOOZE_FOR_SECONDS"`
	// HotboxBufferPx grows the switcher bounds for leave detection.
	HotboxBufferPx  int  `yaml:"hotbox_buffer_px" envconfig:"HOTBOX_BUFFER_PX"`
	GridRows        int  `yaml:"grid_rows" envconfig:"GRID_ROWS"`
	GridCols        int  `yaml:"grid_cols" envconfig:"GRID_COLS"`
	FullscreenGuard bool `yaml:"fullscreen_guard" envconfig:"FULLSCREEN_GUARD"`
}

// Windows configures the window inventory.
type Windows struct {
	// MRUOrder sorts the window list by last activation instead of the
	// window manager's mapping order.
	MRUOrder bool `yaml:"mru_order" envconfig:"MRU_ORDER"`
	// ExcludeClasses extends the built-in class exclusion set.
	ExcludeClasses []string `yaml:"exclude_classes,omitempty" envconfig:"EXCLUDE_CLASSES"`
	// IconSizePx is the icon edge length; 0 disables icon fetching.
	IconSizePx int `yaml:"icon_size_px" envconfig:"ICON_SIZE_PX"`
}

// Preview configures the screenshot cache.
type Preview struct {
	RefreshIntervalMS int `yaml:"refresh_interval_ms" envconfig:"REFRESH_INTERVAL_MS"`
	MaxEntries        int `yaml:"max_entries" envconfig:"MAX_ENTRIES"`
	ThumbWidthPx      int `yaml:"thumb_width_px" envconfig:"THUMB_WIDTH_PX"`
}

// Session configures the X connection lifecycle.
type Session struct {
	MaxAgeSeconds int `yaml:"max_age_seconds" envconfig:"MAX_AGE_SECONDS"`
	MaxOps        int `yaml:"max_ops" envconfig:"MAX_OPS"`
	GraceSeconds  int `yaml:"grace_seconds" envconfig:"GRACE_SECONDS"`
	OpTimeoutMS   int `yaml:"op_timeout_ms" envconfig:"OP_TIMEOUT_MS"`
}

// Config holds the daemon configuration.
type Config struct {
	LogLevel string   `yaml:"log_level" envconfig:"LOG_LEVEL"`
	Display  string   `yaml:"display,omitempty" envconfig:"DISPLAY"`
	Trigger  Trigger  `yaml:"trigger"`
	Switcher Switcher `yaml:"switcher"`
	Windows  Windows  `yaml:"windows"`
	Preview  Preview  `yaml:"preview"`
	Session  Session  `yaml:"session"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Trigger: Trigger{
			Edge:           "top",
			ThresholdPx:    5,
			PollIntervalMS: 100,
		},
		Switcher: Switcher{
			HideDelayMS:      0,
			CooldownMS:       500,
			SnoozeForSeconds: 30,
			HotboxBufferPx:   10,
			GridRows:         2,
			GridCols:         8,
		},
		Windows: Windows{
			IconSizePx: 48,
		},
		Preview: Preview{
			RefreshIntervalMS: 2000,
			MaxEntries:        100,
			ThumbWidthPx:      240,
		},
		Session: Session{
			MaxAgeSeconds: 120,
			MaxOps:        10000,
			GraceSeconds:  2,
			OpTimeoutMS:   2000,
		},
	}
}

func (t Trigger) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalMS) * time.Millisecond
}

func (s Switcher) HideDelay() time.Duration {
	return time.Duration(s.HideDelayMS) * time.Millisecond
}

func (s Switcher) Cooldown() time.Duration {
	return time.Duration(s.CooldownMS) * time.Millisecond
}

func (s Switcher) SnoozeFor() time.Duration {
	return time.Duration(s.SnoozeForSeconds) * time.Second
}

func (p Preview) RefreshInterval() time.Duration {
	return time.Duration(p.RefreshIntervalMS) * time.Millisecond
}

func (s Session) MaxAge() time.Duration {
	return time.Duration(s.MaxAgeSeconds) * time.Second
}

func (s Session) Grace() time.Duration {
	return time.Duration(s.GraceSeconds) * time.Second
}

func (s Session) OpTimeout() time.Duration {
	return time.Duration(s.OpTimeoutMS) * time.Millisecond
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}

	switch c.Trigger.Edge {
	case "top", "bottom", "left", "right", "north", "south", "west", "east":
	default:
		return &ValidationError{Path: "trigger.edge", Err: fmt.Errorf("edge must be one of: top, bottom, left, right (or compass aliases)")}
	}
	if c.Trigger.ThresholdPx < 0 {
		return &ValidationError{Path: "trigger.threshold_px", Err: fmt.Errorf("threshold_px must be >= 0")}
	}
	if c.Trigger.PollIntervalMS < 10 {
		return &ValidationError{Path: "trigger.poll_interval_ms", Err: fmt.Errorf("poll_interval_ms must be >= 10")}
	}

	if c.Switcher.HideDelayMS < 0 {
		return &ValidationError{Path: "switcher.hide_delay_ms", Err: fmt.Errorf("hide_delay_ms must be >= 0")}
	}
	if c.Switcher.CooldownMS < 0 {
		return &ValidationError{Path: "switcher.cooldown_ms", Err: fmt.Errorf("cooldown_ms must be >= 0")}
	}
	if c.Switcher.SnoozeForSeconds < 1 {
		return &ValidationError{Path: "switcher.snooze_for_seconds", Err: fmt.Errorf("snooze_for_seconds must be >= 1")}
	}
	if c.Switcher.HotboxBufferPx < 0 {
		return &ValidationError{Path: "switcher.hotbox_buffer_px", Err: fmt.Errorf("hotbox_buffer_px must be >= 0")}
	}
	if c.Switcher.GridRows < 1 {
		return &ValidationError{Path: "switcher.grid_rows", Err: fmt.Errorf("grid_rows must be >= 1")}
	}
	if c.Switcher.GridCols < 1 {
		return &ValidationError{Path: "switcher.grid_cols", Err: fmt.Errorf("grid_cols must be >= 1")}
	}

	if c.Windows.IconSizePx < 0 {
		return &ValidationError{Path: "windows.icon_size_px", Err: fmt.Errorf("icon_size_px must be >= 0")}
	}

	if c.Preview.RefreshIntervalMS < 100 {
		return &ValidationError{Path: "preview.refresh_interval_ms", Err: fmt.Errorf("refresh_interval_ms must be >= 100")}
	}
	if c.Preview.MaxEntries < 1 {
		return &ValidationError{Path: "preview.max_entries", Err: fmt.Errorf("max_entries must be >= 1")}
	}
	if c.Preview.ThumbWidthPx < 16 {
		return &ValidationError{Path: "preview.thumb_width_px", Err: fmt.Errorf("thumb_width_px must be >= 16")}
	}

	if c.Session.MaxAgeSeconds < 1 {
		return &ValidationError{Path: "session.max_age_seconds", Err: fmt.Errorf("max_age_seconds must be >= 1")}
	}
	if c.Session.MaxOps < 1 {
		return &ValidationError{Path: "session.max_ops", Err: fmt.Errorf("max_ops must be >= 1")}
	}
	if c.Session.GraceSeconds < 0 {
		return &ValidationError{Path: "session.grace_seconds", Err: fmt.Errorf("grace_seconds must be >= 0")}
	}
	if c.Session.OpTimeoutMS < 0 {
		return &ValidationError{Path: "session.op_timeout_ms", Err: fmt.Errorf("op_timeout_ms must be >= 0")}
	}

	return nil
}
