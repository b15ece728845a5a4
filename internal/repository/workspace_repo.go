package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchday/backend/internal/models"
)

type WorkspaceRepo struct {
	pool *pgxpool.Pool
}

func NewWorkspaceRepo(pool *pgxpool.Pool) *WorkspaceRepo {
	return &WorkspaceRepo{pool: pool}
}

func (r *WorkspaceRepo) Create(ctx context.Context, w *models.Workspace) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO workspaces (id, name, payment_key, accounting_base_url, accounting_token, payment_category_ref, exempt_owner_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, w.ID, w.Name, w.PaymentKey, w.AccountingBaseURL, w.AccountingToken, w.PaymentCategoryRef, w.ExemptOwnerIDs).
		Scan(&w.CreatedAt, &w.UpdatedAt)
}

func (r *WorkspaceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	var w models.Workspace
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, payment_key, accounting_base_url, accounting_token, payment_category_ref, exempt_owner_ids, created_at, updated_at
		FROM workspaces WHERE id = $1
	`, id).Scan(
		&w.ID, &w.Name, &w.PaymentKey, &w.AccountingBaseURL, &w.AccountingToken,
		&w.PaymentCategoryRef, &w.ExemptOwnerIDs, &w.CreatedAt, &w.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WorkspaceRepo) List(ctx context.Context) ([]*models.Workspace, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, payment_key, accounting_base_url, accounting_token, payment_category_ref, exempt_owner_ids, created_at, updated_at
		FROM workspaces ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Workspace
	for rows.Next() {
		var w models.Workspace
		if err := rows.Scan(
			&w.ID, &w.Name, &w.PaymentKey, &w.AccountingBaseURL, &w.AccountingToken,
			&w.PaymentCategoryRef, &w.ExemptOwnerIDs, &w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}
