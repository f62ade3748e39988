package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pickup-verification/internal/domain"
	"pickup-verification/internal/domain/model"
	"pickup-verification/internal/domain/ports/adapter"
	"pickup-verification/internal/infra/logging"
	"pickup-verification/internal/infra/metrics"
)

// CheckoutDeps groups the collaborators of CheckoutUseCase. Store is
// required; every other field has a harmless default.
type CheckoutDeps struct {
	Store    *VerificationStore
	Expander *VariantExpander
	Notifier adapter.Notifier
	Activity adapter.ActivityLog
	Limiter  adapter.AttemptLimiter
	Logger   *zerolog.Logger
	Now      func() time.Time
	Dev      bool
}

// CheckoutUseCase is the entry point the application shell drives: enrol an
// identity, register variants, revoke, and verify at checkout.
type CheckoutUseCase struct {
	store    *VerificationStore
	matcher  *Matcher
	expander *VariantExpander
	notifier adapter.Notifier
	activity adapter.ActivityLog
	limiter  adapter.AttemptLimiter
	log      *zerolog.Logger
	now      func() time.Time
	dev      bool
}

func NewCheckoutUseCase(d CheckoutDeps) *CheckoutUseCase {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Expander == nil {
		d.Expander = NewVariantExpander(DefaultVariantPolicy())
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Activity == nil {
		d.Activity = nopActivityLog{}
	}
	if d.Limiter == nil {
		d.Limiter = allowAll{}
	}
	if d.Logger == nil {
		nop := zerolog.Nop()
		d.Logger = &nop
	}
	l := d.Logger.With().Str("component", "CheckoutUseCase").Logger()
	return &CheckoutUseCase{
		store:    d.Store,
		matcher:  NewMatcher(d.Store),
		expander: d.Expander,
		notifier: d.Notifier,
		activity: d.Activity,
		limiter:  d.Limiter,
		log:      &l,
		now:      d.Now,
		dev:      d.Dev,
	}
}

// Enroll generates the canonical code for id and inserts it. When the code
// already exists the stored record is returned with inserted=false; the
// stored identity is never replaced.
func (uc *CheckoutUseCase) Enroll(ctx context.Context, id model.Identity) (rec *model.VerificationCode, inserted bool, err error) {
	log := logging.With(ctx, uc.log)
	defer logging.TraceDuration(log, "CheckoutUseCase.Enroll")()

	code, err := GenerateCode(id)
	if err != nil {
		return nil, false, err
	}
	rec = model.NewVerificationCode(code, id, model.OriginCanonical, uc.now())
	inserted = uc.store.InsertIfAbsent(rec)
	if inserted {
		metrics.AddCodesRegistered(model.OriginCanonical, 1)
		uc.notifier.Notify(ctx, adapter.NotifySuccess, fmt.Sprintf("verification code generated for %s", id.ChildName))
	} else {
		existing, _ := uc.store.FindByCode(code)
		rec = existing
		if existing != nil && !existing.Identity.Equal(id) {
			log.Warn().Str("code", logging.Redact(code, uc.dev)).Msg("canonical code already issued to a different identity")
			uc.notifier.Notify(ctx, adapter.NotifyError, fmt.Sprintf("code for %s is already issued to another record", id.ChildName))
		} else {
			uc.notifier.Notify(ctx, adapter.NotifyInfo, fmt.Sprintf("verification code already exists for %s", id.ChildName))
		}
	}
	uc.record(ctx, adapter.ActivityEntry{
		Action:    adapter.ActivityGenerate,
		Code:      code,
		ChildName: id.ChildName,
		Detail:    fmt.Sprintf("inserted=%t", inserted),
	})
	log.Info().Bool("inserted", inserted).Str("child", id.ChildName).Msg("enrolled")
	return rec, inserted, nil
}

// ExpandVariants registers the expander's alternates for an enrolled id,
// each as an active record carrying id. The entry-date class is anchored to
// the canonical record's generated date, so repeating the call on a later
// day proposes the same set. Codes that already exist are left untouched and
// the identity never holds more than the expander's cap of variant records.
// It returns the codes that were actually inserted.
func (uc *CheckoutUseCase) ExpandVariants(ctx context.Context, id model.Identity) ([]string, error) {
	log := logging.With(ctx, uc.log)
	defer logging.TraceDuration(log, "CheckoutUseCase.ExpandVariants")()

	canonical, err := uc.canonicalRecord(id)
	if err != nil {
		return nil, err
	}
	variants, err := uc.expander.Expand(id, canonical.GeneratedDate)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	recs := make([]*model.VerificationCode, 0, len(variants))
	for _, v := range variants {
		recs = append(recs, model.NewVerificationCode(v.Code, id, v.Class, now))
	}
	registered := uc.store.InsertVariants(id, recs, uc.expander.Max())
	metrics.AddCodesRegistered("variant", len(registered))

	uc.notifier.Notify(ctx, adapter.NotifySuccess,
		fmt.Sprintf("%d variant codes registered for %s", len(registered), id.ChildName))
	uc.record(ctx, adapter.ActivityEntry{
		Action:    adapter.ActivityExpand,
		Code:      canonical.Code,
		ChildName: id.ChildName,
		Detail:    fmt.Sprintf("proposed=%d registered=%d", len(variants), len(registered)),
	})
	log.Info().Int("proposed", len(variants)).Int("registered", len(registered)).Str("child", id.ChildName).Msg("variants expanded")
	return registered, nil
}

// canonicalRecord returns the enrolled canonical record of id. A canonical
// code held by a different identity counts as not enrolled.
func (uc *CheckoutUseCase) canonicalRecord(id model.Identity) (*model.VerificationCode, error) {
	code, err := GenerateCode(id)
	if err != nil {
		return nil, err
	}
	rec, ok := uc.store.FindByCode(code)
	if !ok || !rec.Identity.Equal(id) {
		return nil, fmt.Errorf("%s is not enrolled: %w", id.ChildName, domain.ErrNotFound)
	}
	return rec, nil
}

// ExpandByCode looks up the identity behind an existing code and expands it.
func (uc *CheckoutUseCase) ExpandByCode(ctx context.Context, code string) ([]string, error) {
	rec, ok := uc.store.FindByCode(code)
	if !ok {
		return nil, fmt.Errorf("expand %q: %w", code, domain.ErrNotFound)
	}
	return uc.ExpandVariants(ctx, rec.Identity)
}

// PreviewVariants returns what ExpandVariants would propose, without touching
// the store, so an administrator can inspect them first. An identity that is
// not enrolled yet is previewed as if enrolled today.
func (uc *CheckoutUseCase) PreviewVariants(id model.Identity) ([]model.Variant, error) {
	enrolled := uc.now()
	if rec, err := uc.canonicalRecord(id); err == nil {
		enrolled = rec.GeneratedDate
	}
	return uc.expander.Expand(id, enrolled)
}

// Revoke deactivates code. It reports false when the code is unknown or
// already revoked.
func (uc *CheckoutUseCase) Revoke(ctx context.Context, code string) bool {
	log := logging.With(ctx, uc.log)
	ok := uc.store.Revoke(code)
	var child string
	if rec, found := uc.store.FindByCode(code); found {
		child = rec.Identity.ChildName
	}
	if ok {
		metrics.IncCodesRevoked()
		uc.notifier.Notify(ctx, adapter.NotifySuccess, fmt.Sprintf("code revoked for %s", child))
	} else {
		uc.notifier.Notify(ctx, adapter.NotifyError, "code not found or already revoked")
	}
	uc.record(ctx, adapter.ActivityEntry{
		Action:    adapter.ActivityRevoke,
		Code:      code,
		ChildName: child,
		Detail:    fmt.Sprintf("revoked=%t", ok),
	})
	log.Info().Bool("revoked", ok).Str("code", logging.Redact(code, uc.dev)).Msg("revoke")
	return ok
}

// RevokeIdentity revokes every active code, canonical and variant, of the
// identity behind code. It returns the revoked codes.
func (uc *CheckoutUseCase) RevokeIdentity(ctx context.Context, code string) ([]string, error) {
	log := logging.With(ctx, uc.log)
	rec, ok := uc.store.FindByCode(code)
	if !ok {
		uc.notifier.Notify(ctx, adapter.NotifyError, "code not found")
		return nil, fmt.Errorf("revoke-all %q: %w", code, domain.ErrNotFound)
	}
	revoked := uc.store.RevokeIdentity(rec.Identity)
	for range revoked {
		metrics.IncCodesRevoked()
	}
	child := rec.Identity.ChildName
	if len(revoked) > 0 {
		uc.notifier.Notify(ctx, adapter.NotifySuccess, fmt.Sprintf("%d codes revoked for %s", len(revoked), child))
	} else {
		uc.notifier.Notify(ctx, adapter.NotifyInfo, fmt.Sprintf("no active codes left for %s", child))
	}
	uc.record(ctx, adapter.ActivityEntry{
		Action:    adapter.ActivityRevoke,
		Code:      code,
		ChildName: child,
		Detail:    fmt.Sprintf("scope=identity revoked=%d", len(revoked)),
	})
	log.Info().Int("revoked", len(revoked)).Str("code", logging.Redact(code, uc.dev)).Msg("revoke identity")
	return revoked, nil
}

// Verify checks a presented code at checkout. Rejection, including being rate
// limited, is a normal result. A limiter failure is logged and the attempt is
// allowed through.
func (uc *CheckoutUseCase) Verify(ctx context.Context, presented string) model.MatchResult {
	log := logging.With(ctx, uc.log)

	key := "verify:" + logging.KioskID(ctx)
	allowed, err := uc.limiter.Allow(ctx, key)
	if err != nil {
		log.Error().Err(err).Msg("attempt limiter unavailable; allowing attempt")
		allowed = true
	}
	if !allowed {
		metrics.IncVerification(model.MatchReasonRateLimited)
		log.Warn().Msg("verification rate limited")
		return model.MatchResult{Reason: model.MatchReasonRateLimited}
	}

	res := uc.matcher.Verify(presented)
	metrics.IncVerification(res.Reason)
	ev := log.Info()
	if !res.Accepted {
		ev = log.Warn()
	}
	ev.Bool("accepted", res.Accepted).Str("reason", res.Reason).
		Str("code", logging.Redact(presented, uc.dev)).Msg("verify")
	return res
}

// Lookup returns the stored record for code.
func (uc *CheckoutUseCase) Lookup(code string) (*model.VerificationCode, bool) {
	return uc.store.FindByCode(code)
}

// List returns all records, optionally filtered by a case-insensitive child
// name substring.
func (uc *CheckoutUseCase) List(childFilter string) []*model.VerificationCode {
	all := uc.store.List()
	childFilter = strings.ToLower(strings.TrimSpace(childFilter))
	if childFilter == "" {
		return all
	}
	out := all[:0]
	for _, r := range all {
		if strings.Contains(strings.ToLower(r.Identity.ChildName), childFilter) {
			out = append(out, r)
		}
	}
	return out
}

// Flush persists pending changes. Failures are reported to the operator and
// returned; the in-memory store stays authoritative.
func (uc *CheckoutUseCase) Flush(ctx context.Context) error {
	if err := uc.store.Flush(ctx); err != nil {
		uc.notifier.Notify(ctx, adapter.NotifyError, "changes could not be saved; they will be retried")
		return err
	}
	return nil
}

func (uc *CheckoutUseCase) record(ctx context.Context, e adapter.ActivityEntry) {
	if e.At.IsZero() {
		e.At = uc.now()
	}
	if err := uc.activity.Record(ctx, e); err != nil {
		uc.log.Error().Err(err).Str("action", e.Action).Msg("activity log write failed")
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, adapter.NotificationLevel, string) {}

type nopActivityLog struct{}

func (nopActivityLog) Record(context.Context, adapter.ActivityEntry) error { return nil }

type allowAll struct{}

func (allowAll) Allow(context.Context, string) (bool, error) { return true, nil }
