//go:build !integration

package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pickup-verification/internal/domain/model"
	"pickup-verification/internal/domain/ports/adapter"
	"pickup-verification/internal/domain/ports/repository"
)

var errMockSave = errors.New("mock: disk full")

// ---------------------------
// Snapshot repository
// ---------------------------

type memSnapshotRepo struct {
	mu      sync.Mutex
	saved   []*model.VerificationCode
	saves   int
	failing bool
	loadErr error
}

var _ repository.CodeSnapshotRepository = (*memSnapshotRepo)(nil)

func newMemSnapshotRepo(seed ...*model.VerificationCode) *memSnapshotRepo {
	return &memSnapshotRepo{saved: seed}
}

func (r *memSnapshotRepo) Load(ctx context.Context) ([]*model.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	out := make([]*model.VerificationCode, len(r.saved))
	for i, c := range r.saved {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

func (r *memSnapshotRepo) Save(ctx context.Context, codes []*model.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.failing {
		return errMockSave
	}
	r.saved = codes
	return nil
}

func (r *memSnapshotRepo) setFailing(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = v
}

func (r *memSnapshotRepo) snapshot() (int, []*model.VerificationCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves, r.saved
}

// ---------------------------
// Adapters
// ---------------------------

type notification struct {
	level adapter.NotificationLevel
	msg   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(ctx context.Context, level adapter.NotificationLevel, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{level: level, msg: msg})
}

func (n *recordingNotifier) last() notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return notification{}
	}
	return n.sent[len(n.sent)-1]
}

type recordingActivityLog struct {
	mu      sync.Mutex
	entries []adapter.ActivityEntry
	err     error
}

func (a *recordingActivityLog) Record(ctx context.Context, e adapter.ActivityEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, e)
	return nil
}

func (a *recordingActivityLog) count(action string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, e := range a.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

// stubLimiter allows the first `remaining` attempts, then denies.
type stubLimiter struct {
	mu        sync.Mutex
	remaining int
	err       error
	keys      []string
}

func (l *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	if l.err != nil {
		return false, l.err
	}
	if l.remaining <= 0 {
		return false, nil
	}
	l.remaining--
	return true, nil
}

// ---------------------------
// Helpers
// ---------------------------

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 1, 20, 9, 30, 0, 0, time.UTC) }
}

// enrolledOn is the date fixedClock reports, truncated to the day.
var enrolledOn = time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

// movableClock starts at fixedClock's instant and can be advanced by days.
type movableClock struct {
	mu sync.Mutex
	t  time.Time
}

func newMovableClock() *movableClock {
	return &movableClock{t: fixedClock()()}
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *movableClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *movableClock) advanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.AddDate(0, 0, n)
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func mustIdentity(child, dob, parent string) model.Identity {
	id, err := model.NewIdentity(child, dob, parent)
	if err != nil {
		panic(err)
	}
	return *id
}

func karabo() model.Identity {
	return mustIdentity("karabo msupi", "2006-01-31", "naledi msupi")
}
