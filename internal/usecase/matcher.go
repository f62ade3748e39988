package usecase

import "pickup-verification/internal/domain/model"

// Matcher answers checkout lookups. Presented codes are compared byte for
// byte: no case folding and no trimming. Any leniency has to be registered
// ahead of time as a variant.
type Matcher struct {
	store *VerificationStore
}

func NewMatcher(store *VerificationStore) *Matcher {
	return &Matcher{store: store}
}

func (m *Matcher) Verify(presented string) model.MatchResult {
	rec, ok := m.store.FindByCode(presented)
	if !ok {
		return model.MatchResult{Reason: model.MatchReasonUnknown}
	}
	if !rec.IsActive() {
		return model.MatchResult{Reason: model.MatchReasonRevoked}
	}
	id := rec.Identity
	return model.MatchResult{Accepted: true, Identity: &id, Reason: model.MatchReasonMatched}
}
