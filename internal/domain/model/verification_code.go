package model

import (
	"time"
)

type CodeStatus string

const (
	CodeStatusActive  CodeStatus = "active"
	CodeStatusRevoked CodeStatus = "revoked"
)

// OriginCanonical marks the record produced by the code generator. Variant
// records carry their variant class instead (see VariantClass).
const OriginCanonical = "canonical"

// VerificationCode is a pickup code registered for one identity.
// Code is the unique key; Identity is set once at creation.
type VerificationCode struct {
	Code          string
	Identity      Identity
	GeneratedDate time.Time
	Status        CodeStatus
	Origin        string
}

func NewVerificationCode(code string, identity Identity, origin string, now time.Time) *VerificationCode {
	y, m, d := now.Date()
	return &VerificationCode{
		Code:          code,
		Identity:      identity,
		GeneratedDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Status:        CodeStatusActive,
		Origin:        origin,
	}
}

func (c *VerificationCode) IsActive() bool { return c != nil && c.Status == CodeStatusActive }

func (c *VerificationCode) IsCanonical() bool { return c != nil && c.Origin == OriginCanonical }

// Valid reports whether the status is one of the enumerated values.
func (s CodeStatus) Valid() bool {
	return s == CodeStatusActive || s == CodeStatusRevoked
}

type VariantClass string

const (
	VariantInsertion    VariantClass = "insertion"
	VariantSubstitution VariantClass = "substitution"
	VariantTruncation   VariantClass = "truncation"
	VariantDateDigits   VariantClass = "date_digits"
	VariantEntryDate    VariantClass = "entry_date"
)

// Variant is an alternate code produced by the expander together with the
// class(es) of slip it tolerates. Combined variants join classes with "+".
type Variant struct {
	Code  string
	Class string
}

// MatchResult is the outcome of a checkout verification. A rejection is a
// normal result, not an error.
type MatchResult struct {
	Accepted bool
	Identity *Identity
	Reason   string
}

const (
	MatchReasonMatched     = "matched"
	MatchReasonUnknown     = "unknown_code"
	MatchReasonRevoked     = "revoked"
	MatchReasonRateLimited = "rate_limited"
)
