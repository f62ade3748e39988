package usecase

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pickup-verification/internal/domain"
	"pickup-verification/internal/domain/model"
)

// dateSegmentLayout formats the date part of a code as YYYYMMDD.
const dateSegmentLayout = "20060102"

// GenerateCode derives the canonical pickup code: the date of birth as
// YYYYMMDD followed by the child's name lower-cased with all whitespace
// removed. Punctuation and diacritics are kept as typed.
func GenerateCode(id model.Identity) (string, error) {
	if id.DateOfBirth.IsZero() {
		return "", fmt.Errorf("%w: date of birth is missing", domain.ErrInvalidDate)
	}
	y, m, d := id.DateOfBirth.Date()
	if !model.ValidDate(y, m, d) {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidDate, id.DateOfBirth)
	}
	name := NameSegment(id.ChildName)
	if name == "" {
		return "", fmt.Errorf("%w: child name is empty", domain.ErrInvalidIdentity)
	}
	return DateSegment(id.DateOfBirth) + name, nil
}

// DateSegment formats t the way it appears at the head of a code.
func DateSegment(t time.Time) string {
	return t.Format(dateSegmentLayout)
}

// NameSegment strips every whitespace rune from name and lower-cases the rest.
func NameSegment(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	// A Caser keeps state, so each call gets its own.
	return cases.Lower(language.Und).String(stripped)
}
