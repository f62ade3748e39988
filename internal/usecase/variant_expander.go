package usecase

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pickup-verification/internal/config"
	"pickup-verification/internal/domain/model"
)

// MaxVariantsCeiling is the largest number of alternates ever registered for
// one identity, whatever the configured policy says.
const MaxVariantsCeiling = 16

// VariantPolicy selects which slip classes the expander tolerates.
type VariantPolicy struct {
	// Insertion doubles an intervocalic consonant or repeats the previous
	// vowel inside a consonant cluster.
	Insertion bool
	// Substitution swaps one name letter for its phonetic twin (c/k, s/z, i/y, v/w).
	Substitution bool
	// Truncation keeps only the child's first name.
	Truncation bool
	// DateDigits transposes the day digits or the last two year digits, or
	// moves the day or year by one.
	DateDigits bool
	// EntryDate substitutes the day and/or year of the enrollment date for
	// the birth day/year.
	EntryDate bool
	// Combine pairs every date variant with every name variant.
	Combine bool

	MaxVariants int
	MinPrefix   int
}

func DefaultVariantPolicy() VariantPolicy {
	return VariantPolicy{
		Insertion:   true,
		Truncation:  true,
		EntryDate:   true,
		Combine:     true,
		MaxVariants: MaxVariantsCeiling,
		MinPrefix:   3,
	}
}

// PolicyFromConfig maps the variants section of the config file.
func PolicyFromConfig(v config.VariantsConfig) VariantPolicy {
	return VariantPolicy{
		Insertion:    v.Insertion,
		Substitution: v.Substitution,
		Truncation:   v.Truncation,
		DateDigits:   v.DateDigits,
		EntryDate:    v.EntryDate,
		Combine:      v.Combine,
		MaxVariants:  v.Max,
		MinPrefix:    v.MinPrefix,
	}
}

func (p VariantPolicy) normalized() VariantPolicy {
	if p.MaxVariants <= 0 || p.MaxVariants > MaxVariantsCeiling {
		p.MaxVariants = MaxVariantsCeiling
	}
	if p.MinPrefix <= 0 {
		p.MinPrefix = 3
	}
	return p
}

// VariantExpander produces the bounded set of alternate codes an
// administrator may register for one identity. It never looks at the store
// or the wall clock: the same inputs always give the same set.
type VariantExpander struct {
	policy VariantPolicy
}

func NewVariantExpander(policy VariantPolicy) *VariantExpander {
	return &VariantExpander{policy: policy.normalized()}
}

// Max is the most variant records one identity may hold under this policy.
func (e *VariantExpander) Max() int { return e.policy.MaxVariants }

func (e *VariantExpander) Policy() VariantPolicy { return e.policy }

type segment struct {
	text  string
	class string
}

// Expand returns alternates for id in a fixed order: name variants, then date
// variants, then (if enabled) combinations. The canonical code is never part
// of the result and the result never exceeds the policy cap.
//
// enrolled is the day the canonical code was issued; the entry-date class
// mixes its day and year into the birth date. A zero enrolled skips that class.
func (e *VariantExpander) Expand(id model.Identity, enrolled time.Time) ([]model.Variant, error) {
	canonical, err := GenerateCode(id)
	if err != nil {
		return nil, err
	}
	date := DateSegment(id.DateOfBirth)
	name := NameSegment(id.ChildName)

	names := e.nameVariants(id.ChildName, name)
	dates := e.dateVariants(id.DateOfBirth, enrolled)

	out := make([]model.Variant, 0, e.policy.MaxVariants)
	seen := map[string]struct{}{canonical: {}}
	// add reports false once the cap is reached.
	add := func(code, class string) bool {
		if _, dup := seen[code]; !dup {
			seen[code] = struct{}{}
			out = append(out, model.Variant{Code: code, Class: class})
		}
		return len(out) < e.policy.MaxVariants
	}

	for _, n := range names {
		if !add(date+n.text, n.class) {
			return out, nil
		}
	}
	for _, d := range dates {
		if !add(d.text+name, d.class) {
			return out, nil
		}
	}
	if e.policy.Combine {
		for _, d := range dates {
			for _, n := range names {
				if !add(d.text+n.text, d.class+"+"+n.class) {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

func (e *VariantExpander) nameVariants(childName, name string) []segment {
	var out []segment
	runes := []rune(name)
	if e.policy.Insertion {
		for _, s := range insertions(runes) {
			out = append(out, segment{text: s, class: string(model.VariantInsertion)})
		}
	}
	if e.policy.Substitution {
		for _, s := range substitutions(runes) {
			out = append(out, segment{text: s, class: string(model.VariantSubstitution)})
		}
	}
	if e.policy.Truncation {
		if p, ok := firstNamePrefix(childName, name, e.policy.MinPrefix); ok {
			out = append(out, segment{text: p, class: string(model.VariantTruncation)})
		}
	}
	return out
}

func (e *VariantExpander) dateVariants(dob, enrolled time.Time) []segment {
	y, m, d := dob.Date()
	var out []segment
	seen := map[string]struct{}{}
	add := func(yy, dd int, class model.VariantClass) {
		if (yy == y && dd == d) || !model.ValidDate(yy, m, dd) {
			return
		}
		text := fmt.Sprintf("%04d%02d%02d", yy, int(m), dd)
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		out = append(out, segment{text: text, class: string(class)})
	}

	if e.policy.EntryDate && !enrolled.IsZero() {
		ry, _, rd := enrolled.Date()
		add(ry, rd, model.VariantEntryDate)
		add(ry, d, model.VariantEntryDate)
		add(y, rd, model.VariantEntryDate)
	}
	if e.policy.DateDigits {
		add(y, (d%10)*10+d/10, model.VariantDateDigits)
		add(y-y%100+(y%10)*10+(y/10)%10, d, model.VariantDateDigits)
		add(y, d-1, model.VariantDateDigits)
		add(y, d+1, model.VariantDateDigits)
		add(y-1, d, model.VariantDateDigits)
		add(y+1, d, model.VariantDateDigits)
	}
	return out
}

const vowels = "aeiou"

func isVowel(r rune) bool { return strings.ContainsRune(vowels, r) }

func isConsonant(r rune) bool { return r >= 'a' && r <= 'z' && !isVowel(r) }

// insertions scans left to right. An intervocalic consonant is doubled
// (msupi -> msuppi); a consonant opening a cluster is followed by a copy of
// the nearest vowel before it (karabomsupi -> karabomosupi).
func insertions(name []rune) []string {
	var out []string
	var lastVowel rune
	for i, r := range name {
		if isVowel(r) {
			lastVowel = r
			continue
		}
		if !isConsonant(r) {
			continue
		}
		hasNext := i+1 < len(name)
		switch {
		case i > 0 && isVowel(name[i-1]) && hasNext && isVowel(name[i+1]):
			out = append(out, insertAt(name, i+1, r))
		case hasNext && isConsonant(name[i+1]) && name[i+1] != r && lastVowel != 0:
			out = append(out, insertAt(name, i+1, lastVowel))
		}
	}
	return out
}

var phoneticTwins = map[rune]rune{
	'c': 'k', 'k': 'c',
	's': 'z', 'z': 's',
	'i': 'y', 'y': 'i',
	'v': 'w', 'w': 'v',
}

func substitutions(name []rune) []string {
	var out []string
	for i, r := range name {
		twin, ok := phoneticTwins[r]
		if !ok {
			continue
		}
		cp := make([]rune, len(name))
		copy(cp, name)
		cp[i] = twin
		out = append(out, string(cp))
	}
	return out
}

func firstNamePrefix(childName, name string, minLen int) (string, bool) {
	fields := strings.Fields(childName)
	if len(fields) < 2 {
		return "", false
	}
	prefix := NameSegment(fields[0])
	if utf8.RuneCountInString(prefix) < minLen || prefix == name {
		return "", false
	}
	return prefix, true
}

func insertAt(name []rune, i int, r rune) string {
	out := make([]rune, 0, len(name)+1)
	out = append(out, name[:i]...)
	out = append(out, r)
	out = append(out, name[i:]...)
	return string(out)
}
