package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/keychain-connect/backend/internal/models"
)

type ControllerRepo struct {
	pool *pgxpool.Pool
}

func NewControllerRepo(pool *pgxpool.Pool) *ControllerRepo {
	return &ControllerRepo{pool: pool}
}

func (r *ControllerRepo) Create(ctx context.Context, c *models.Controller) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO controllers (address, username, class_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, c.Address, c.Username, c.ClassHash).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *ControllerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Controller, error) {
	var c models.Controller
	err := r.pool.QueryRow(ctx, `
		SELECT id, address, username, class_hash, created_at, updated_at
		FROM controllers WHERE id = $1
	`, id).Scan(&c.ID, &c.Address, &c.Username, &c.ClassHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ControllerRepo) GetByAddress(ctx context.Context, address string) (*models.Controller, error) {
	var c models.Controller
	err := r.pool.QueryRow(ctx, `
		SELECT id, address, username, class_hash, created_at, updated_at
		FROM controllers WHERE address = $1
	`, address).Scan(&c.ID, &c.Address, &c.Username, &c.ClassHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ControllerRepo) UpdateClassHash(ctx context.Context, id uuid.UUID, classHash string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE controllers SET class_hash = $1, updated_at = now() WHERE id = $2
	`, classHash, id)
	return err
}

// Delete removes the controller; its approvals cascade.
func (r *ControllerRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM controllers WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
