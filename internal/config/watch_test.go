package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("trigger:\n  edge: top\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan *Config, 1)
	w, err := Watch(path, func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	}, slog.New(slog.NewTextHandler(discard{}, nil)))
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("trigger:\n  edge: bottom\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changed:
		if cfg.Trigger.Edge != "bottom" {
			t.Fatalf("reloaded edge = %q, want bottom", cfg.Trigger.Edge)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

func TestWatchStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	w, err := Watch(path, func(*Config) {}, slog.New(slog.NewTextHandler(discard{}, nil)))
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	w.Stop()
	w.Stop()
}
