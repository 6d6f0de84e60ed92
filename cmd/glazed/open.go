package main

import (
	"log/slog"
	"os/exec"
	"runtime"
)

// openConfigFile opens the config file with the platform's default
// handler, so "Open config file" in the tray lands in the user's editor.
func openConfigFile(path string, log *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("could not open config file", "path", path, "error", err)
	}
}
