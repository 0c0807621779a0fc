package main

import (
	"fmt"
	"io"
	"os"
)

// Version is stamped by the release build via -ldflags.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "show":
		os.Exit(runShow(os.Args[2:]))
	case "hide":
		os.Exit(runHide(os.Args[2:]))
	case "snooze":
		os.Exit(runSnooze(os.Args[2:]))
	case "activate":
		os.Exit(runActivate(os.Args[2:]))
	case "pick":
		os.Exit(runPick(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "version":
		fmt.Printf("verge %s\n", Version)
		os.Exit(0)
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: verge <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the verge daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  windows             List tracked windows")
	fmt.Fprintln(w, "  monitors            List monitors")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  show                Show the switcher on the active monitor")
	fmt.Fprintln(w, "  hide                Hide the switcher")
	fmt.Fprintln(w, "  snooze              Pause edge triggering for a while")
	fmt.Fprintln(w, "  activate            Focus a tracked window by ID")
	fmt.Fprintln(w, "  pick                Pick and focus a window interactively")
	fmt.Fprintln(w, "  reload              Reload the daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config init         Write a default config file")
	fmt.Fprintln(w, "  config path         Print the config file location")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "  version             Print version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'verge <command> --help' for command-specific options.")
}
