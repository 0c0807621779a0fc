package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/1broseidon/verge/internal/config"
	"github.com/1broseidon/verge/internal/ipc"
	"github.com/1broseidon/verge/internal/picker"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: verge status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("state:          %s\n", status.State)
	fmt.Printf("edge:           %s\n", status.Edge)
	fmt.Printf("ready:          %v\n", status.Ready)
	fmt.Printf("windows:        %d\n", status.WindowCount)
	fmt.Printf("previews:       %d\n", status.PreviewCount)
	fmt.Printf("monitors:       %d\n", status.MonitorCount)
	fmt.Printf("session_epoch:  %d\n", status.SessionEpoch)
	fmt.Printf("session_ops:    %d\n", status.SessionOps)
	fmt.Printf("session_age:    %s\n", time.Duration(status.SessionAgeSeconds)*time.Second)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	if status.SnoozedUntil != "" {
		fmt.Printf("snoozed_until:  %s\n", status.SnoozedUntil)
	}
	if p := status.Placement; p != nil {
		fmt.Printf("placement:      %dx%d+%d+%d (monitor %d)\n", p.Width, p.Height, p.X, p.Y, p.Monitor)
	}
	return 0
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: verge windows [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List the daemon's tracked windows in presentation order. Output is")
		fmt.Fprintln(os.Stderr, "an aligned table on a TTY and tab-separated otherwise.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output windows as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "windows takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	data, err := client.GetWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data.Windows); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		printWindowTable(data.Windows)
	} else {
		printWindowsPlain(data.Windows)
	}
	return 0
}

// printWindowTable renders aligned columns, shortening titles to the
// terminal width.
func printWindowTable(windows []ipc.WindowInfo) {
	if len(windows) == 0 {
		fmt.Println("no windows tracked")
		return
	}

	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width = 80
	}
	// Columns before the title occupy 50 cells.
	titleMax := width - 50
	if titleMax < 20 {
		titleMax = 20
	}

	fmt.Printf("%-10s  %-4s  %-3s  %-5s  %-18s  %s\n", "ID", "DESK", "MON", "FLAGS", "CLASS", "TITLE")
	for _, w := range windows {
		fmt.Printf("0x%08x  %-4s  %-3d  %-5s  %-18s  %s\n",
			w.ID, deskLabel(w), w.Monitor, windowFlags(w), truncate(w.Class, 18), truncate(w.Title, titleMax))
	}
}

// printWindowsPlain emits one tab-separated line per window for scripts.
func printWindowsPlain(windows []ipc.WindowInfo) {
	for _, w := range windows {
		fmt.Printf("0x%08x\t%s\t%d\t%s\t%s\t%s\n",
			w.ID, deskLabel(w), w.Monitor, windowFlags(w), w.Class, w.Title)
	}
}

func deskLabel(w ipc.WindowInfo) string {
	if w.Sticky {
		return "*"
	}
	return strconv.Itoa(w.Desktop)
}

func windowFlags(w ipc.WindowInfo) string {
	var b strings.Builder
	if w.Minimized {
		b.WriteByte('m')
	}
	if w.Fullscreen {
		b.WriteByte('f')
	}
	if w.HasPreview {
		b.WriteByte('p')
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func runMonitors(args []string) int {
	fs := flag.NewFlagSet("monitors", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: verge monitors")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List the monitors the daemon currently knows about.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "monitors takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	data, err := client.GetMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, m := range data.Monitors {
		fmt.Printf("%d  %-10s %dx%d+%d+%d\n", m.ID, m.Name, m.Width, m.Height, m.X, m.Y)
	}
	return 0
}

func runShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: verge show")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the switcher on the monitor under the pointer, bypassing")
		fmt.Fprintln(os.Stderr, "cooldown and snooze. A no-op while the switcher is already up.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "show takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if err := client.Show(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runHide(args []string) int {
	fs := flag.NewFlagSet("hide", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: verge hide [--now]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Hide the switcher after the configured hide delay.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	now := fs.Bool("now", false, "Hide immediately, skipping the hide delay")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "hide takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if err := client.Hide(*now); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSnooze(args []string) int {
	fs := flag.NewFlagSet("snooze", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: verge snooze [--for DURATION]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Pause edge triggering. Without --for the daemon uses its configured")
		fmt.Fprintln(os.Stderr, "snooze duration. A live switcher is dismissed first.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	forDur := fs.Duration("for", 0, "Snooze duration, e.g. 90s or 5m")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "snooze takes no arguments")
		fs.Usage()
		return 2
	}
	if *forDur < 0 {
		fmt.Fprintln(os.Stderr, "snooze duration must not be negative")
		return 2
	}

	client := ipc.NewClient()
	data, err := client.Snooze(int(forDur.Seconds()))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("snoozed until %s\n", data.Until)
	return 0
}

func runActivate(args []string) int {
	fs := flag.NewFlagSet("activate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: verge activate <window-id>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Raise and focus a tracked window. IDs come from 'verge windows'")
		fmt.Fprintln(os.Stderr, "and may be decimal or hex (0x...).")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "activate requires <window-id>")
		fs.Usage()
		return 2
	}

	id, err := strconv.ParseUint(fs.Arg(0), 0, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid window ID: %s\n", fs.Arg(0))
		return 2
	}

	client := ipc.NewClient()
	if err := client.Activate(uint32(id)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runPick(args []string) int {
	fs := flag.NewFlagSet("pick", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: verge pick")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Pick a window from an interactive list and focus it. Enter")
		fmt.Fprintln(os.Stderr, "activates the selection, / filters, r refreshes, q quits.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "pick takes no arguments")
		fs.Usage()
		return 2
	}

	if err := picker.Run(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: verge reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the running daemon to reload its configuration file.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "reload takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if err := client.Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		w := os.Stderr
		code := 2
		if len(args) > 0 {
			w = os.Stdout
			code = 0
		}
		fmt.Fprintln(w, "Usage:")
		fmt.Fprintln(w, "  verge config init [--path PATH]")
		fmt.Fprintln(w, "  verge config path")
		fmt.Fprintln(w, "  verge config validate [--path PATH]")
		fmt.Fprintln(w, "  verge config print [--path PATH] [--defaults]")
		return code
	}

	switch args[0] {
	case "init":
		fs := flag.NewFlagSet("init", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/verge/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		target := *path
		if target == "" {
			var err error
			target, err = config.DefaultConfigPath()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
		if err := config.WriteDefault(target); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("wrote %s\n", target)
		return 0

	case "path":
		p, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(p)
		return 0

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/verge/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var err error
		if *path == "" {
			_, err = config.Load()
		} else {
			_, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/verge/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var cfg *config.Config
		if *printDefaults {
			cfg = config.DefaultConfig()
		} else {
			var err error
			if *path == "" {
				cfg, err = config.Load()
			} else {
				cfg, err = config.LoadFromPath(*path)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}
