// Package notify delivers user-visible feedback messages.
package notify

import (
	"context"
	"os/exec"
	"strconv"

	"go.uber.org/zap"
)

// Notifier is the notification sink consumed by the engine. Duration is
// a hint in seconds; persistent messages stay until dismissed.
type Notifier interface {
	Show(message string, persistent bool, durationHint float64)
}

// LogNotifier writes notifications to the structured log. It is the
// default sink when no desktop notification service is wanted.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Show logs the message.
func (n *LogNotifier) Show(message string, persistent bool, durationHint float64) {
	n.log.Info("notification",
		zap.String("message", message),
		zap.Bool("persistent", persistent),
		zap.Float64("duration", durationHint),
	)
}

// DesktopNotifier shells out to notify-send.
type DesktopNotifier struct {
	bin string
}

// NewDesktopNotifier creates a notify-send backed notifier.
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{bin: "notify-send"}
}

// Show spawns notify-send with an expiry derived from the duration hint.
func (n *DesktopNotifier) Show(message string, persistent bool, durationHint float64) {
	args := []string{"--app-name", "Worksets"}
	if !persistent && durationHint > 0 {
		args = append(args, "--expire-time", strconv.Itoa(int(durationHint*1000)))
	}
	args = append(args, message)
	// Fire and forget; a failed notification never blocks an operation.
	_ = exec.CommandContext(context.Background(), n.bin, args...).Start()
}
