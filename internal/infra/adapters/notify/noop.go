package notify

import (
	"context"

	"pickup-verification/internal/domain/ports/adapter"
)

var _ adapter.Notifier = NoopNotifier{}

// NoopNotifier drops every notification; the seeder uses it.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, adapter.NotificationLevel, string) {}
