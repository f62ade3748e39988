package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pickup-verification/internal/domain"
	"pickup-verification/internal/domain/model"
	"pickup-verification/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.CodeSnapshotRepository = (*verificationCodeRepo)(nil)

type verificationCodeRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewVerificationCodeRepo(pool *pgxpool.Pool) repository.CodeSnapshotRepository {
	return &verificationCodeRepo{pool: pool, tm: NewTxManager(pool)}
}

// Load returns every row in insertion order.
func (r *verificationCodeRepo) Load(ctx context.Context) ([]*model.VerificationCode, error) {
	const q = `
SELECT code, child_name, dob, parent_name, generated_date, status, origin
  FROM verification_codes
 ORDER BY seq;
`
	rows, err := queryRows(ctx, r.pool, nil, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.VerificationCode
	for rows.Next() {
		var (
			vc     model.VerificationCode
			status string
		)
		if err := rows.Scan(
			&vc.Code, &vc.Identity.ChildName, &vc.Identity.DateOfBirth, &vc.Identity.ParentName,
			&vc.GeneratedDate, &status, &vc.Origin,
		); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		vc.Status = model.CodeStatus(status)
		out = append(out, &vc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Save upserts the snapshot in one transaction. An existing row keeps its
// identity; only the status moves, and a revoked row never becomes active again.
func (r *verificationCodeRepo) Save(ctx context.Context, codes []*model.VerificationCode) error {
	const q = `
INSERT INTO verification_codes (code, child_name, dob, parent_name, generated_date, status, origin)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (code) DO UPDATE SET
  status = CASE WHEN verification_codes.status = 'revoked' THEN 'revoked' ELSE EXCLUDED.status END;
`
	return r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for _, c := range codes {
			_, err := execSQL(ctx, r.pool, tx, q,
				c.Code, c.Identity.ChildName, c.Identity.DateOfBirth, c.Identity.ParentName,
				c.GeneratedDate, string(c.Status), c.Origin,
			)
			if err != nil {
				return fmt.Errorf("upsert %q: %w", c.Code, err)
			}
		}
		return nil
	})
}
