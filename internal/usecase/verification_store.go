package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pickup-verification/internal/domain"
	"pickup-verification/internal/domain/model"
	"pickup-verification/internal/domain/ports/repository"
	"pickup-verification/internal/infra/metrics"
)

const defaultFlushTimeout = 5 * time.Second

// VerificationStore is the in-memory, insertion-ordered set of pickup codes,
// unique by code. All mutations go through InsertIfAbsent and Revoke under a
// single writer lock; persistence only happens on Load and Flush.
type VerificationStore struct {
	mu      sync.RWMutex
	records []*model.VerificationCode
	index   map[string]int

	dirty   bool
	version uint64

	// flushMu orders saves so an older snapshot never lands after a newer one.
	flushMu sync.Mutex

	repo         repository.CodeSnapshotRepository
	flushTimeout time.Duration
	log          *zerolog.Logger
}

// NewVerificationStore creates an empty store backed by repo. A nil repo
// keeps the store memory-only; Flush then only clears the dirty flag.
func NewVerificationStore(repo repository.CodeSnapshotRepository, flushTimeout time.Duration, logger *zerolog.Logger) *VerificationStore {
	if flushTimeout <= 0 {
		flushTimeout = defaultFlushTimeout
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "VerificationStore").Logger()
	return &VerificationStore{
		index:        make(map[string]int),
		repo:         repo,
		flushTimeout: flushTimeout,
		log:          &l,
	}
}

// Load replaces the in-memory state with what the repository holds. Records
// with a duplicate code or an unknown status are skipped.
func (s *VerificationStore) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.flushTimeout)
	defer cancel()

	recs, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %v", domain.ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
	s.index = make(map[string]int, len(recs))
	for _, r := range recs {
		if r == nil || !r.Status.Valid() {
			s.log.Warn().Msg("skipping record with invalid status")
			continue
		}
		if _, dup := s.index[r.Code]; dup {
			s.log.Warn().Str("code", r.Code).Msg("skipping duplicate record")
			continue
		}
		cp := *r
		s.index[cp.Code] = len(s.records)
		s.records = append(s.records, &cp)
	}
	s.dirty = false
	s.log.Info().Int("records", len(s.records)).Msg("store loaded")
	return nil
}

// InsertIfAbsent adds rec unless a record with the same code exists, whatever
// identity that record carries. The first registration always wins.
func (s *VerificationStore) InsertIfAbsent(rec *model.VerificationCode) bool {
	if rec == nil || rec.Code == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[rec.Code]; ok {
		return false
	}
	cp := *rec
	if !cp.Status.Valid() {
		cp.Status = model.CodeStatusActive
	}
	s.index[cp.Code] = len(s.records)
	s.records = append(s.records, &cp)
	s.markDirtyLocked()
	return true
}

// InsertVariants adds the variant records of one identity, skipping codes
// that already exist, until that identity holds limit variant records. Every
// non-canonical record carrying an equal identity counts, revoked or not.
// It returns the codes inserted, in input order.
func (s *VerificationStore) InsertVariants(id model.Identity, recs []*model.VerificationCode, limit int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := 0
	for _, r := range s.records {
		if !r.IsCanonical() && r.Identity.Equal(id) {
			held++
		}
	}
	var inserted []string
	for _, rec := range recs {
		if held >= limit {
			break
		}
		if rec == nil || rec.Code == "" {
			continue
		}
		if _, ok := s.index[rec.Code]; ok {
			continue
		}
		cp := *rec
		cp.Identity = id
		cp.Status = model.CodeStatusActive
		s.index[cp.Code] = len(s.records)
		s.records = append(s.records, &cp)
		inserted = append(inserted, cp.Code)
		held++
	}
	if len(inserted) > 0 {
		s.markDirtyLocked()
	}
	return inserted
}

// FindByCode is an exact, case-sensitive lookup. The returned record is a copy.
func (s *VerificationStore) FindByCode(code string) (*model.VerificationCode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[code]
	if !ok {
		return nil, false
	}
	cp := *s.records[i]
	return &cp, true
}

// Revoke moves an active record to revoked. It returns false when the code is
// unknown or already revoked.
func (s *VerificationStore) Revoke(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[code]
	if !ok || s.records[i].Status != model.CodeStatusActive {
		return false
	}
	s.records[i].Status = model.CodeStatusRevoked
	s.markDirtyLocked()
	return true
}

// RevokeIdentity revokes every active record, canonical or variant, whose
// identity equals id. It returns the revoked codes in insertion order.
func (s *VerificationStore) RevokeIdentity(id model.Identity) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var revoked []string
	for _, r := range s.records {
		if r.Status == model.CodeStatusActive && r.Identity.Equal(id) {
			r.Status = model.CodeStatusRevoked
			revoked = append(revoked, r.Code)
		}
	}
	if len(revoked) > 0 {
		s.markDirtyLocked()
	}
	return revoked
}

// List returns copies of every record in insertion order.
func (s *VerificationStore) List() []*model.VerificationCode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *VerificationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *VerificationStore) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markDirtyLocked()
}

func (s *VerificationStore) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Flush saves a snapshot when the store is dirty. The save is bounded by the
// flush timeout; on failure the store stays dirty and a later Flush retries.
func (s *VerificationStore) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.RLock()
	if !s.dirty {
		s.mu.RUnlock()
		return nil
	}
	snap := s.snapshotLocked()
	version := s.version
	s.mu.RUnlock()

	if s.repo != nil {
		start := time.Now()
		saveCtx, cancel := context.WithTimeout(ctx, s.flushTimeout)
		err := s.repo.Save(saveCtx, snap)
		cancel()
		metrics.ObserveStoreFlush(err == nil, time.Since(start))
		if err != nil {
			s.log.Error().Err(err).Int("records", len(snap)).Msg("flush failed; store stays dirty")
			return fmt.Errorf("%w: save: %v", domain.ErrPersistence, err)
		}
	}

	s.mu.Lock()
	// A mutation that raced the save leaves the store dirty for the next flush.
	if s.version == version {
		s.dirty = false
	}
	s.mu.Unlock()
	s.log.Debug().Int("records", len(snap)).Msg("store flushed")
	return nil
}

func (s *VerificationStore) markDirtyLocked() {
	s.dirty = true
	s.version++
}

func (s *VerificationStore) snapshotLocked() []*model.VerificationCode {
	out := make([]*model.VerificationCode, len(s.records))
	for i, r := range s.records {
		cp := *r
		out[i] = &cp
	}
	return out
}
