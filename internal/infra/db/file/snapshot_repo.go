package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"pickup-verification/internal/domain/model"
	"pickup-verification/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.CodeSnapshotRepository = (*SnapshotRepo)(nil)

const snapshotVersion = 1

// snapshot is the on-disk envelope. Version allows the layout to change
// without breaking older files.
type snapshot struct {
	Version int            `json:"version"`
	SavedAt time.Time      `json:"saved_at"`
	Codes   []snapshotCode `json:"verification_codes"`
}

type snapshotCode struct {
	Code          string `json:"code"`
	ChildName     string `json:"child_name"`
	DOB           string `json:"dob"`
	ParentName    string `json:"parent_name"`
	GeneratedDate string `json:"generated_date"`
	Status        string `json:"status"`
	Origin        string `json:"origin,omitempty"`
}

// SnapshotRepo keeps the whole store in one JSON file. Writes go to a temp
// file in the same directory and are renamed over the target.
type SnapshotRepo struct {
	path string
}

func NewSnapshotRepo(path string) *SnapshotRepo {
	return &SnapshotRepo{path: path}
}

// Load returns nothing (and no error) when the file does not exist yet.
func (r *SnapshotRepo) Load(ctx context.Context) ([]*model.VerificationCode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version > snapshotVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported %d", snap.Version, snapshotVersion)
	}

	out := make([]*model.VerificationCode, 0, len(snap.Codes))
	for i, c := range snap.Codes {
		dob, err := model.ParseDateOfBirth(c.DOB)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		var generated time.Time
		if c.GeneratedDate != "" {
			if generated, err = time.Parse(model.DateOfBirthLayout, c.GeneratedDate); err != nil {
				return nil, fmt.Errorf("record %d: generated_date: %w", i, err)
			}
		}
		origin := c.Origin
		if origin == "" {
			origin = model.OriginCanonical
		}
		out = append(out, &model.VerificationCode{
			Code:          c.Code,
			Identity:      model.Identity{ChildName: c.ChildName, DateOfBirth: dob, ParentName: c.ParentName},
			GeneratedDate: generated,
			Status:        model.CodeStatus(c.Status),
			Origin:        origin,
		})
	}
	return out, nil
}

func (r *SnapshotRepo) Save(ctx context.Context, codes []*model.VerificationCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := snapshot{
		Version: snapshotVersion,
		SavedAt: time.Now().UTC(),
		Codes:   make([]snapshotCode, 0, len(codes)),
	}
	for _, c := range codes {
		snap.Codes = append(snap.Codes, snapshotCode{
			Code:          c.Code,
			ChildName:     c.Identity.ChildName,
			DOB:           c.Identity.DateOfBirth.Format(model.DateOfBirthLayout),
			ParentName:    c.Identity.ParentName,
			GeneratedDate: c.GeneratedDate.Format(model.DateOfBirthLayout),
			Status:        string(c.Status),
			Origin:        c.Origin,
		})
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
