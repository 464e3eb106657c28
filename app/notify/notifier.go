// Package notify delivers desktop notifications through an external command
// (notify-send by default). Delivery is fire-and-forget: failures are logged
// at debug level and otherwise ignored.
package notify

import (
	"log/slog"
	"os/exec"
)

type Notifier struct {
	command string
	icon    string
}

func NewNotifier(command, icon string) *Notifier {
	return &Notifier{command: command, icon: icon}
}

// Notify sends a feed-update notification. htmlBody is flattened to plain
// text before delivery.
func (n *Notifier) Notify(title, htmlBody string) {
	n.send(n.icon, title, HTMLToText(htmlBody))
}

// NotifyError sends a user-visible error notification.
func (n *Notifier) NotifyError(title, message string) {
	n.send("dialog-error", title, message)
}

func (n *Notifier) send(icon, title, body string) {
	if n.command == "" {
		return
	}

	cmd := exec.Command(n.command, "-i", icon, title, body)
	go func() {
		if err := cmd.Run(); err != nil {
			slog.Debug("Notification delivery failed", "command", n.command, "error", err)
		}
	}()
}
