package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender uses notify-send
type LinuxNotificationSender struct{}

func (LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name=discogscatalog", title, message).Run()
}

// MacOSNotificationSender uses osascript
type MacOSNotificationSender struct{}

func (MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender shows a toast through PowerShell
type WindowsNotificationSender struct{}

func (WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$xml = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
		$text = $xml.GetElementsByTagName("text")
		$text.Item(0).AppendChild($xml.CreateTextNode('%s')) | Out-Null
		$text.Item(1).AppendChild($xml.CreateTextNode('%s')) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($xml)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("discogscatalog").Show($toast)
	`, psEscape(title), psEscape(message))
	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

func psEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Notifier reports the end of a run on the desktop when enabled
type Notifier struct {
	sender  NotificationSender
	enabled bool
}

// NewNotifier picks the sender for the current platform
func NewNotifier(enabled bool) *Notifier {
	var sender NotificationSender
	switch runtime.GOOS {
	case "linux":
		sender = LinuxNotificationSender{}
	case "darwin":
		sender = MacOSNotificationSender{}
	case "windows":
		sender = WindowsNotificationSender{}
	}
	return NewNotifierWithSender(sender, enabled)
}

// NewNotifierWithSender uses an explicit sender
func NewNotifierWithSender(sender NotificationSender, enabled bool) *Notifier {
	return &Notifier{sender: sender, enabled: enabled && sender != nil}
}

// SendSuccess prints a success line and raises a desktop notification
func (n *Notifier) SendSuccess(title, message string) {
	PrintSuccess(title + ": " + message)
	n.Notify(title, message)
}

// Notify raises a desktop notification only. Delivery is best effort.
func (n *Notifier) Notify(title, message string) {
	if n.enabled {
		_ = n.sender.Send(title, message)
	}
}
