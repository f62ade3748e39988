//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"pickup-verification/internal/domain"
)

func TestNewIdentity(t *testing.T) {
	id, err := NewIdentity("  karabo msupi ", "2006-01-31", " leah ")
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	if id.ChildName != "karabo msupi" || id.ParentName != "leah" {
		t.Fatalf("names not trimmed: %+v", id)
	}
	if !id.DateOfBirth.Equal(time.Date(2006, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", id.DateOfBirth)
	}

	if _, err := NewIdentity("karabo", "2006-02-30", ""); !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := NewIdentity("karabo", "31/01/2006", ""); !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := NewIdentity(" \t", "2006-01-31", ""); !errors.Is(err, domain.ErrInvalidIdentity) {
		t.Fatalf("expected ErrInvalidIdentity, got %v", err)
	}
}

func TestValidDate(t *testing.T) {
	cases := []struct {
		y    int
		m    time.Month
		d    int
		want bool
	}{
		{2006, time.January, 31, true},
		{2020, time.February, 29, true},
		{2026, time.February, 29, false},
		{2006, time.April, 31, false},
		{2006, time.January, 0, false},
		{0, time.January, 1, false},
		{2006, 13, 1, false},
	}
	for _, tc := range cases {
		if got := ValidDate(tc.y, tc.m, tc.d); got != tc.want {
			t.Errorf("ValidDate(%d, %d, %d) = %t, want %t", tc.y, tc.m, tc.d, got, tc.want)
		}
	}
}

func TestVerificationCode(t *testing.T) {
	id := Identity{ChildName: "karabo msupi", DateOfBirth: time.Date(2006, 1, 31, 0, 0, 0, 0, time.UTC)}
	loc := time.FixedZone("SAST", 2*3600)
	rec := NewVerificationCode("20060131karabomsupi", id, OriginCanonical, time.Date(2026, 1, 20, 23, 30, 0, 0, loc))

	if !rec.IsActive() || !rec.IsCanonical() {
		t.Fatalf("new record should be active and canonical: %+v", rec)
	}
	if want := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC); !rec.GeneratedDate.Equal(want) {
		t.Fatalf("generated date should be the local calendar day, got %v", rec.GeneratedDate)
	}
	rec.Status = CodeStatusRevoked
	if rec.IsActive() {
		t.Fatal("revoked record reported active")
	}
	if CodeStatus("paused").Valid() {
		t.Fatal("unknown status reported valid")
	}
	var nilRec *VerificationCode
	if nilRec.IsActive() {
		t.Fatal("nil record reported active")
	}
}

func TestIdentityEqual(t *testing.T) {
	a := Identity{ChildName: "x", DateOfBirth: time.Date(2006, 1, 31, 0, 0, 0, 0, time.UTC), ParentName: "p"}
	b := a
	b.DateOfBirth = a.DateOfBirth.In(time.FixedZone("Z", 0))
	if !a.Equal(b) {
		t.Fatal("location must not affect equality")
	}
	b.ParentName = "q"
	if a.Equal(b) {
		t.Fatal("parent name must affect equality")
	}
}
