package audit

import (
	"context"
	"crypto/rand"
	"io"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"pickup-verification/internal/domain/ports/adapter"
	"pickup-verification/internal/infra/logging"
)

var _ adapter.ActivityLog = (*ActivityLog)(nil)

// ActivityLog appends one JSON line per entry. Each line carries a ULID so
// entries sort by time even when timestamps collide.
type ActivityLog struct {
	mu      sync.Mutex
	logger  zerolog.Logger
	entropy io.Reader
	closer  io.Closer
}

func New(w io.Writer) *ActivityLog {
	return &ActivityLog{
		logger:  zerolog.New(w),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Open appends to the file at path, creating it if needed. "-" writes to stderr.
func Open(path string) (*ActivityLog, error) {
	if path == "-" {
		return New(os.Stderr), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	l := New(f)
	l.closer = f
	return l, nil
}

func (l *ActivityLog) Record(ctx context.Context, e adapter.ActivityEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(e.At), l.entropy)
	if err != nil {
		return err
	}
	ev := l.logger.Log().
		Str("id", id.String()).
		Time("at", e.At.UTC()).
		Str("action", e.Action).
		Str("child", e.ChildName)
	if e.Code != "" {
		ev = ev.Str("code", e.Code)
	}
	if e.Detail != "" {
		ev = ev.Str("detail", e.Detail)
	}
	if k := logging.KioskID(ctx); k != "" {
		ev = ev.Str("kiosk_id", k)
	}
	ev.Send()
	return nil
}

func (l *ActivityLog) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
