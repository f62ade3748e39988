package adapter

import (
	"context"
	"time"
)

const (
	ActivityGenerate = "generate"
	ActivityExpand   = "expand"
	ActivityRevoke   = "revoke"
)

// ActivityEntry is one audit-trail line. One entry is recorded per mutating call.
type ActivityEntry struct {
	At        time.Time
	Action    string
	Code      string
	ChildName string
	Detail    string
}

type ActivityLog interface {
	Record(ctx context.Context, entry ActivityEntry) error
}
