package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"pickup-verification/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*ConsoleNotifier)(nil)

// ConsoleNotifier prints notifications for the kiosk operator, one per line,
// prefixed with a level tag.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

func (n *ConsoleNotifier) Notify(_ context.Context, level adapter.NotificationLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "%s %s\n", tag(level), message)
}

func tag(level adapter.NotificationLevel) string {
	switch level {
	case adapter.NotifySuccess:
		return "[ok]"
	case adapter.NotifyError:
		return "[!!]"
	default:
		return "[--]"
	}
}
