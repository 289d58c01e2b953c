// Package notify shows best-effort desktop notifications for captures and
// remote updates. Failures are logged and never propagate; a missing
// notification daemon must not affect syncing.
package notify

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// Notifier shows desktop notifications.
type Notifier interface {
	Show(title, message string)
}

// Desktop notifies through the platform's native mechanism: notify-send on
// Linux, osascript on macOS. Elsewhere it degrades to a log line.
type Desktop struct{}

func (Desktop) Show(title, message string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		if _, err := exec.LookPath("notify-send"); err != nil {
			slog.Info("notification", "title", title, "message", message)
			return
		}
		cmd = exec.Command("notify-send", title, message, "--expire-time=3000")
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", message, title)
		cmd = exec.Command("osascript", "-e", script)
	default:
		slog.Info("notification", "title", title, "message", message)
		return
	}
	if err := cmd.Run(); err != nil {
		slog.Debug("notification failed", "err", err)
	}
}

// Silent drops all notifications. Used by one-shot CLI commands and tests.
type Silent struct{}

func (Silent) Show(string, string) {}
