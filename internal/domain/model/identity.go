package model

import (
	"fmt"
	"strings"
	"time"

	"pickup-verification/internal/domain"
)

// DateOfBirthLayout is the accepted textual form of a date of birth.
const DateOfBirthLayout = "2006-01-02"

// Identity is the tuple a pickup code is derived from. It is treated as
// immutable once a code has been generated from it.
type Identity struct {
	ChildName   string
	DateOfBirth time.Time
	ParentName  string
}

// NewIdentity parses the date of birth and validates the child name.
func NewIdentity(childName, dateOfBirth, parentName string) (*Identity, error) {
	dob, err := ParseDateOfBirth(dateOfBirth)
	if err != nil {
		return nil, err
	}
	if strings.Join(strings.Fields(childName), "") == "" {
		return nil, fmt.Errorf("%w: child name is empty", domain.ErrInvalidIdentity)
	}
	return &Identity{
		ChildName:   strings.TrimSpace(childName),
		DateOfBirth: dob,
		ParentName:  strings.TrimSpace(parentName),
	}, nil
}

// ParseDateOfBirth accepts YYYY-MM-DD and rejects dates that do not exist
// on the calendar (2006-02-30 and the like).
func ParseDateOfBirth(s string) (time.Time, error) {
	t, err := time.Parse(DateOfBirthLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, s)
	}
	return t, nil
}

// ValidDate reports whether y-m-d names a real calendar day.
func ValidDate(y int, m time.Month, d int) bool {
	if y < 1 || y > 9999 || m < time.January || m > time.December || d < 1 {
		return false
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return t.Year() == y && t.Month() == m && t.Day() == d
}

// Equal compares identities by value, ignoring the date's location.
func (i Identity) Equal(o Identity) bool {
	return i.ChildName == o.ChildName &&
		i.ParentName == o.ParentName &&
		i.DateOfBirth.Format(DateOfBirthLayout) == o.DateOfBirth.Format(DateOfBirthLayout)
}

func (i Identity) String() string {
	return fmt.Sprintf("%s (%s)", i.ChildName, i.DateOfBirth.Format(DateOfBirthLayout))
}
