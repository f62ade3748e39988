package application

import (
	"context"

	"pickup-verification/internal/domain/model"
)

// CheckoutUseCaseIface is the surface of usecase.CheckoutUseCase the kiosk
// needs. Tests pass light-weight fakes.
type CheckoutUseCaseIface interface {
	Enroll(ctx context.Context, id model.Identity) (*model.VerificationCode, bool, error)
	ExpandByCode(ctx context.Context, code string) ([]string, error)
	PreviewVariants(id model.Identity) ([]model.Variant, error)
	Revoke(ctx context.Context, code string) bool
	RevokeIdentity(ctx context.Context, code string) ([]string, error)
	Verify(ctx context.Context, presented string) model.MatchResult
	Lookup(code string) (*model.VerificationCode, bool)
	List(childFilter string) []*model.VerificationCode
	Flush(ctx context.Context) error
}
