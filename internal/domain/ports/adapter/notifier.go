package adapter

import "context"

type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyInfo    NotificationLevel = "info"
	NotifyError   NotificationLevel = "error"
)

// Notifier surfaces human-readable event strings to whoever operates the shell.
type Notifier interface {
	Notify(ctx context.Context, level NotificationLevel, message string)
}
