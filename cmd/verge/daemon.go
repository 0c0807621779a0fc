package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/verge/internal/config"
	"github.com/1broseidon/verge/internal/engine"
	"github.com/1broseidon/verge/internal/ipc"
)

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: verge daemon [flags]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the verge daemon in the foreground. The daemon owns the X")
		fmt.Fprintln(os.Stderr, "connection, tracks windows, and serves the control socket.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "Config file path (default: ~/.config/verge/config.yaml)")
	logLevel := fs.String("log-level", "", "Override log level: debug, info, warning, error")
	edge := fs.String("edge", "", "Override trigger edge: top, bottom, left or right")
	threshold := fs.Int("threshold", 0, "Override trigger threshold in pixels")
	mru := fs.Bool("mru", false, "Order windows by most recent activation")
	fullscreenGuard := fs.Bool("fullscreen-guard", false, "Suppress triggers while a fullscreen window has focus")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	// overrides keeps explicitly-set flags in force over the config file,
	// including on every reload.
	overrides := func(c *config.Config) {
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "log-level":
				c.LogLevel = *logLevel
			case "edge":
				c.Trigger.Edge = *edge
			case "threshold":
				c.Trigger.ThresholdPx = *threshold
			case "mru":
				c.Windows.MRUOrder = *mru
			case "fullscreen-guard":
				c.Switcher.FullscreenGuard = *fullscreenGuard
			}
		})
	}

	path := *configPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	cfg, err := config.LoadFromPath(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	overrides(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	// A LevelVar lets reloads change the log level without rebuilding the
	// handler every component already holds.
	level := new(slog.LevelVar)
	level.Set(parseLogLevel(cfg.LogLevel))
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	log.Info("starting verge daemon", "version", Version, "config", path)

	eng, err := engine.New(cfg, log)
	if err != nil {
		log.Error("engine setup failed", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// applyConfig hands a loaded config to the engine goroutine.
	applyConfig := func(newCfg *config.Config) error {
		overrides(newCfg)
		if err := newCfg.Validate(); err != nil {
			return err
		}
		if err := eng.Call(func() error { return eng.Apply(newCfg) }); err != nil {
			return err
		}
		level.Set(parseLogLevel(newCfg.LogLevel))
		return nil
	}
	reload := func() error {
		newCfg, err := config.LoadFromPath(path)
		if err != nil {
			return err
		}
		return applyConfig(newCfg)
	}

	ipcServer, err := ipc.NewServer(eng, reload, log)
	if err != nil {
		log.Error("IPC setup failed", "error", err)
		return 1
	}
	if err := ipcServer.Start(); err != nil {
		log.Error("IPC start failed", "error", err)
		return 1
	}
	defer ipcServer.Stop()

	watcher, err := config.Watch(path, func(newCfg *config.Config) {
		if err := applyConfig(newCfg); err != nil {
			log.Warn("config apply failed", "error", err)
		}
	}, log)
	if err != nil {
		log.Warn("config file watch unavailable", "error", err)
	} else {
		defer watcher.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				log.Info("received SIGHUP, reloading config")
				if err := reload(); err != nil {
					log.Warn("config reload failed", "error", err)
				}
			case os.Interrupt, syscall.SIGTERM:
				log.Info("shutting down verge daemon")
				cancel()
				return
			}
		}
	}()

	if err := eng.Run(ctx); err != nil {
		log.Error("engine stopped", "error", err)
		return 1
	}
	return 0
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
