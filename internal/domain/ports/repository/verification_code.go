package repository

import (
	"context"

	"pickup-verification/internal/domain/model"
)

// CodeSnapshotRepository is the persistence port for the verification store.
// The store is always written and read as a whole; the record layout is the
// implementation's concern.
type CodeSnapshotRepository interface {
	// Load returns every stored record in insertion order.
	Load(ctx context.Context) ([]*model.VerificationCode, error)
	// Save replaces the stored state with codes. Saving the same state twice is harmless.
	Save(ctx context.Context, codes []*model.VerificationCode) error
}
