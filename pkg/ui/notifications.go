package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"igharvest/pkg/config"
	"igharvest/pkg/models"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// Notifier reports run completion on the console and, when configured, the desktop
type Notifier struct {
	cfg    config.NotificationConfig
	sender NotificationSender
	out    io.Writer
}

// NewNotifier creates a notifier. Desktop delivery needs notification_type "desktop".
func NewNotifier(cfg config.NotificationConfig) *Notifier {
	n := &Notifier{cfg: cfg, out: os.Stderr}
	if cfg.NotificationType != "desktop" {
		return n
	}
	switch runtime.GOOS {
	case "linux":
		n.sender = &LinuxNotificationSender{}
	case "darwin":
		n.sender = &MacOSNotificationSender{}
	}
	return n
}

// WithSender replaces the desktop sender
func (n *Notifier) WithSender(s NotificationSender, out io.Writer) *Notifier {
	n.sender = s
	n.out = out
	return n
}

// RunFinished announces a finished run according to the preferences
func (n *Notifier) RunFinished(report *models.RunReport) {
	if !n.cfg.Enabled || n.cfg.NotificationType == "none" {
		return
	}
	switch {
	case report.Fatal != "":
		if n.cfg.OnError {
			n.SendError("igharvest failed", report.Fatal)
		}
	case len(report.Errors) > 0 && n.cfg.OnError:
		n.SendNotification("igharvest finished with errors",
			fmt.Sprintf("%d media, %d posts failed", report.Media.Len(), len(report.Errors)))
	case n.cfg.OnComplete:
		n.SendSuccess("igharvest finished", fmt.Sprintf("%d media from %d posts", report.Media.Len(), len(report.Posts)))
	}
}

// SendNotification sends a desktop notification and prints to console
func (n *Notifier) SendNotification(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Cyan(title), Yellow(message))
	n.send(title, message)
}

// SendError sends an error notification
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}

// SendSuccess sends a success notification
func (n *Notifier) SendSuccess(title, message string) {
	fmt.Fprintf(n.out, "\n%s: %s\n", Green(title), Green(message))
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender != nil {
		// desktop delivery is best effort
		_ = n.sender.Send(title, message)
	}
}
