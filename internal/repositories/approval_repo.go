package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/keychain-connect/backend/internal/models"
)

type ApprovalRepo struct {
	pool *pgxpool.Pool
}

func NewApprovalRepo(pool *pgxpool.Pool) *ApprovalRepo {
	return &ApprovalRepo{pool: pool}
}

const approvalColumns = `id, controller_id, origin, scopes, status, approved_at, expires_at, revoked_at`

func scanApproval(row pgx.Row) (*models.Approval, error) {
	var a models.Approval
	if err := row.Scan(&a.ID, &a.ControllerID, &a.Origin, &a.Scopes, &a.Status,
		&a.ApprovedAt, &a.ExpiresAt, &a.RevokedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanApprovals(rows pgx.Rows) ([]models.Approval, error) {
	defer rows.Close()
	var out []models.Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Upsert records an active approval, replacing the scopes and expiry of
// an existing active approval for the same controller and origin.
func (r *ApprovalRepo) Upsert(ctx context.Context, a *models.Approval) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO approvals (controller_id, origin, scopes, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (controller_id, origin) WHERE status = 'active' DO UPDATE SET
			scopes = EXCLUDED.scopes,
			expires_at = EXCLUDED.expires_at,
			approved_at = now()
		RETURNING id, status, approved_at
	`, a.ControllerID, a.Origin, a.Scopes, a.ExpiresAt).Scan(&a.ID, &a.Status, &a.ApprovedAt)
}

// GetActive returns the live approval for origin, ignoring approvals past
// their expiry that the worker has not swept yet.
func (r *ApprovalRepo) GetActive(ctx context.Context, controllerID uuid.UUID, origin string) (*models.Approval, error) {
	return scanApproval(r.pool.QueryRow(ctx, `
		SELECT `+approvalColumns+`
		FROM approvals
		WHERE controller_id = $1 AND origin = $2 AND status = 'active'
		  AND (expires_at IS NULL OR expires_at > now())
	`, controllerID, origin))
}

func (r *ApprovalRepo) ListActive(ctx context.Context, controllerID uuid.UUID) ([]models.Approval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+approvalColumns+`
		FROM approvals
		WHERE controller_id = $1 AND status = 'active'
		  AND (expires_at IS NULL OR expires_at > now())
		ORDER BY approved_at DESC
	`, controllerID)
	if err != nil {
		return nil, err
	}
	return scanApprovals(rows)
}

func (r *ApprovalRepo) Revoke(ctx context.Context, controllerID uuid.UUID, origin string) (*models.Approval, error) {
	return scanApproval(r.pool.QueryRow(ctx, `
		UPDATE approvals SET status = 'revoked', revoked_at = now()
		WHERE controller_id = $1 AND origin = $2 AND status = 'active'
		RETURNING `+approvalColumns, controllerID, origin))
}

// ExpireDue marks up to limit approvals whose expiry is at or before now
// as expired and returns them.
func (r *ApprovalRepo) ExpireDue(ctx context.Context, now time.Time, limit int) ([]models.Approval, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		UPDATE approvals SET status = 'expired'
		WHERE id IN (
			SELECT id FROM approvals
			WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at <= $1
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+approvalColumns, now, limit)
	if err != nil {
		return nil, err
	}
	return scanApprovals(rows)
}
