//go:build !integration

package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pickup-verification/internal/domain/model"
)

func TestSnapshotRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "codes.json")
	repo := NewSnapshotRepo(path)

	id, err := model.NewIdentity("karabo msupi", "2006-01-31", "leah")
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	now := time.Date(2026, 1, 20, 15, 4, 5, 0, time.UTC)
	revoked := model.NewVerificationCode("20060131karabo", *id, string(model.VariantTruncation), now)
	revoked.Status = model.CodeStatusRevoked
	in := []*model.VerificationCode{
		model.NewVerificationCode("20060131karabomsupi", *id, model.OriginCanonical, now),
		model.NewVerificationCode("20260120karabomosupi", *id, "entry_date+insertion", now),
		revoked,
	}
	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d records, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].Code != in[i].Code || out[i].Status != in[i].Status || out[i].Origin != in[i].Origin {
			t.Errorf("record %d: expected %+v, got %+v", i, in[i], out[i])
		}
		if !out[i].Identity.Equal(*id) {
			t.Errorf("record %d: identity %v", i, out[i].Identity)
		}
		if !out[i].GeneratedDate.Equal(time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("record %d: generated date %v", i, out[i].GeneratedDate)
		}
	}

	// no temp files are left behind
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected only the snapshot file, found %d entries", len(entries))
	}
}

func TestSnapshotRepo_MissingFile(t *testing.T) {
	repo := NewSnapshotRepo(filepath.Join(t.TempDir(), "absent.json"))
	out, err := repo.Load(context.Background())
	if err != nil || len(out) != 0 {
		t.Fatalf("missing file should load empty, got %v / %v", out, err)
	}
}

func TestSnapshotRepo_RejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"garbage":      `not json`,
		"newer":        `{"version": 99, "verification_codes": []}`,
		"invalid date": `{"version": 1, "verification_codes": [{"code": "x", "child_name": "x", "dob": "2006-02-30", "status": "active"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "codes.json")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := NewSnapshotRepo(path).Load(context.Background()); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestSnapshotRepo_DefaultsOrigin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.json")
	body := `{"version": 1, "verification_codes": [{"code": "20060131karabomsupi", "child_name": "karabo msupi", "dob": "2006-01-31", "status": "active"}]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := NewSnapshotRepo(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 1 || !out[0].IsCanonical() || !out[0].GeneratedDate.IsZero() {
		t.Fatalf("unexpected record: %+v", out)
	}
}

func TestSnapshotRepo_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewSnapshotRepo(filepath.Join(t.TempDir(), "c.json")).Save(ctx, nil)
	if err == nil || !strings.Contains(err.Error(), "canceled") {
		t.Fatalf("expected context error, got %v", err)
	}
}
