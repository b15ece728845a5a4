package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matchday/backend/internal/models"
)

var errEntryNotFound = errors.New("ledger entry not found")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, e *models.LedgerEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == models.LedgerStatusConfirmed && e.ConfirmedAt == nil {
		now := time.Now()
		e.ConfirmedAt = &now
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO ledger_entries (id, workspace_id, owner_id, game_id, slot, kind, amount_cents, status, note, category, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`, e.ID, e.WorkspaceID, e.OwnerID, e.GameID, e.Slot, e.Kind, e.AmountCents, e.Status, e.Note, e.Category, e.ConfirmedAt).Scan(&e.CreatedAt)
}

// SetDebitStatus moves a debit from one status to another. The WHERE
// clause carries the expected current status so a concurrent toggle
// cannot double-apply; zero rows affected reports not-found.
func (r *Repository) SetDebitStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	var confirmedAt *time.Time
	if to == models.LedgerStatusConfirmed {
		now := time.Now()
		confirmedAt = &now
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE ledger_entries SET status = $1, confirmed_at = $2
		WHERE id = $3 AND kind = 'debit' AND status = $4
	`, to, confirmedAt, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errEntryNotFound
	}
	return nil
}

func (r *Repository) DeleteCredit(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ledger_entries WHERE id = $1 AND kind = 'credit'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errEntryNotFound
	}
	return nil
}

// FindOne returns the oldest entry matching (workspace, owner, game,
// slot, kind, status), or nil when there is none. Matching includes
// the slot so a member billed for several occupants (their own seat
// plus invited guests) keeps one entry per occupant.
func (r *Repository) FindOne(ctx context.Context, workspaceID uuid.UUID, ownerID string, gameID uuid.UUID, slot int, kind, status string) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := r.pool.QueryRow(ctx, `
		SELECT id, workspace_id, owner_id, game_id, slot, kind, amount_cents, status, note, category, created_at, confirmed_at
		FROM ledger_entries
		WHERE workspace_id = $1 AND owner_id = $2 AND game_id = $3 AND slot = $4 AND kind = $5 AND status = $6
		ORDER BY created_at ASC
		LIMIT 1
	`, workspaceID, ownerID, gameID, slot, kind, status).Scan(
		&e.ID, &e.WorkspaceID, &e.OwnerID, &e.GameID, &e.Slot, &e.Kind, &e.AmountCents,
		&e.Status, &e.Note, &e.Category, &e.CreatedAt, &e.ConfirmedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) ListByGame(ctx context.Context, workspaceID, gameID uuid.UUID) ([]*models.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, workspace_id, owner_id, game_id, slot, kind, amount_cents, status, note, category, created_at, confirmed_at
		FROM ledger_entries
		WHERE workspace_id = $1 AND game_id = $2
		ORDER BY created_at ASC
	`, workspaceID, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(
			&e.ID, &e.WorkspaceID, &e.OwnerID, &e.GameID, &e.Slot, &e.Kind, &e.AmountCents,
			&e.Status, &e.Note, &e.Category, &e.CreatedAt, &e.ConfirmedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// Balance recomputes the member's balance from scratch: confirmed
// debits minus confirmed credits. It is never maintained as a running
// counter, so it self-heals after any repair script or manual edit.
func (r *Repository) Balance(ctx context.Context, workspaceID uuid.UUID, ownerID string) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN kind = 'debit' THEN amount_cents ELSE -amount_cents END), 0)
		FROM ledger_entries
		WHERE workspace_id = $1 AND owner_id = $2 AND status = 'confirmed'
	`, workspaceID, ownerID).Scan(&balance)
	return balance, err
}
