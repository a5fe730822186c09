// Package notify shows desktop notifications when long-running reports
// finish.
package notify

import (
	"io"
	"log/slog"

	"github.com/gen2brain/beeep"
)

const appName = "teamtime"

type Notifier struct {
	enabled bool
	send    func(title, message string) error
	logger  *slog.Logger
}

func New(enabled bool, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{enabled: enabled, send: desktop, logger: logger}
}

func desktop(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Send shows message when notifications are enabled. Failures are only
// logged; a headless machine has no notification daemon.
func (n *Notifier) Send(message string) {
	if n == nil || !n.enabled {
		return
	}
	if err := n.send(appName, message); err != nil {
		n.logger.Debug("desktop notification failed", "error", err)
	}
}
