// glazectl is the control CLI for glazed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"glaze/internal/ipc"
)

var (
	socketPath = flag.String("socket", "", "path to the glazed control socket")
	timeout    = flag.Duration("timeout", 15*time.Second, "request timeout")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		usage()
		return
	}

	client := connect()
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var err error
	switch cmd {
	case "status":
		err = cmdStatus(ctx, client)
	case "apply":
		err = cmdApply(ctx, client)
	case "dump":
		err = cmdDump(ctx, client)
	case "reset":
		err = cmdReset(ctx, client)
	case "reload":
		err = cmdReload(ctx, client)
	case "history":
		err = cmdHistory(ctx, client)
	case "set-config":
		err = cmdSetConfig(ctx, client)
	case "quit":
		err = cmdQuit(ctx, client)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `glazectl - Control utility for glazed

Usage: glazectl [options] <command> [args]

Commands:
  status            Show daemon status
  apply             Re-evaluate and apply taskbar appearance now
  dump              Print the daemon's internal state
  reset             Discard cached appearance state and reapply
  reload            Reload the configuration from disk
  history [n]       Show the last n appearance transitions (default 20)
  set-config <file> Push a TOML configuration file to the daemon
  quit              Ask the daemon to exit
  help              Show this help message

Options:
  -socket <path>    Path to the control socket
  -timeout <dur>    Request timeout (default 15s)`)
}

func connect() *ipc.Client {
	path := *socketPath
	if path == "" {
		path = ipc.DefaultSocketPath()
	}
	client, err := ipc.Dial(ipc.DefaultClientConfig(path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Is glazed running?")
		os.Exit(1)
	}
	return client
}

func cmdStatus(ctx context.Context, client *ipc.Client) error {
	status, err := client.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("glazed %s (pid %d)\n", status.Version, status.PID)
	fmt.Printf("  started:  %s (up %s)\n",
		status.StartedAt.Local().Format(time.RFC1123),
		(time.Duration(status.UptimeSec) * time.Second).String())
	fmt.Printf("  worker:   %s\n", status.WorkerStatus)
	fmt.Printf("  config:   %s\n", status.ConfigPath)
	fmt.Printf("  settings: %s\n", status.ConfigSummary)
	return nil
}

func cmdApply(ctx context.Context, client *ipc.Client) error {
	if err := client.Apply(ctx); err != nil {
		return err
	}
	fmt.Println("Appearance reapplied.")
	return nil
}

func cmdDump(ctx context.Context, client *ipc.Client) error {
	dump, err := client.Dump(ctx)
	if err != nil {
		return err
	}
	fmt.Println(dump)
	return nil
}

func cmdReset(ctx context.Context, client *ipc.Client) error {
	if err := client.Reset(ctx); err != nil {
		return err
	}
	fmt.Println("Appearance state reset.")
	return nil
}

func cmdReload(ctx context.Context, client *ipc.Client) error {
	summary, err := client.Reload(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Configuration reloaded: %s\n", summary)
	return nil
}

func cmdHistory(ctx context.Context, client *ipc.Client) error {
	limit := 20
	if flag.NArg() >= 2 {
		n, err := strconv.Atoi(flag.Arg(1))
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid history limit %q", flag.Arg(1))
		}
		limit = n
	}

	entries, err := client.History(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No recorded transitions.")
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  window=0x%x monitor=0x%x state=%s accent=%s color=%s",
			e.Time.Local().Format("2006-01-02 15:04:05.000"),
			e.Window, e.Monitor, e.State, e.Accent, e.Color)
		if e.Secondary {
			line += " secondary"
		}
		if e.Err != "" {
			line += " error=" + e.Err
		}
		fmt.Println(line)
	}
	return nil
}

func cmdSetConfig(ctx context.Context, client *ipc.Client) error {
	if flag.NArg() < 2 {
		return fmt.Errorf("set-config requires a file argument")
	}
	data, err := os.ReadFile(flag.Arg(1))
	if err != nil {
		return err
	}
	if err := client.SetConfig(ctx, string(data)); err != nil {
		return err
	}
	fmt.Println("Configuration updated.")
	return nil
}

func cmdQuit(ctx context.Context, client *ipc.Client) error {
	if err := client.Shutdown(ctx); err != nil {
		return err
	}
	fmt.Println("Shutdown requested.")
	return nil
}
