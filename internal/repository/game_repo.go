package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matchday/backend/internal/models"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned when a game save loses the optimistic
// concurrency check: another writer saved the aggregate after we
// loaded it. Callers reload and reapply.
var ErrVersionConflict = errors.New("game version conflict")

var versionConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "game_version_conflicts_total",
	Help: "Game saves rejected by the optimistic version check.",
})

type GameRepo struct {
	pool *pgxpool.Pool
}

func NewGameRepo(pool *pgxpool.Pool) *GameRepo {
	return &GameRepo{pool: pool}
}

func (r *GameRepo) Create(ctx context.Context, g *models.Game) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Status == "" {
		g.Status = models.GameStatusOpen
	}
	g.Version = 1
	rosterJSON, err := json.Marshal(g.Roster)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO games (id, workspace_id, chat_id, date, title, price_cents, max_slots, status, roster, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, g.ID, g.WorkspaceID, g.ChatID, g.Date, g.Title, g.PriceCents, g.MaxSlots, g.Status, rosterJSON, g.Version).
		Scan(&g.CreatedAt, &g.UpdatedAt)
}

func (r *GameRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	var g models.Game
	var rosterJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, workspace_id, chat_id, date, title, price_cents, max_slots, status, roster, version, created_at, updated_at
		FROM games WHERE id = $1
	`, id).Scan(
		&g.ID, &g.WorkspaceID, &g.ChatID, &g.Date, &g.Title, &g.PriceCents,
		&g.MaxSlots, &g.Status, &rosterJSON, &g.Version, &g.CreatedAt, &g.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rosterJSON, &g.Roster); err != nil {
		return nil, fmt.Errorf("unmarshal roster: %w", err)
	}
	return &g, nil
}

// GetActiveByChat returns the newest non-archived game for a chat.
func (r *GameRepo) GetActiveByChat(ctx context.Context, workspaceID uuid.UUID, chatID string) (*models.Game, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM games
		WHERE workspace_id = $1 AND chat_id = $2 AND status IN ('open', 'closed', 'finished')
		ORDER BY date DESC LIMIT 1
	`, workspaceID, chatID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Update writes the aggregate back as a whole. The WHERE clause checks
// the version we loaded; zero rows affected means another writer got
// there first and the caller must reload.
func (r *GameRepo) Update(ctx context.Context, g *models.Game) error {
	rosterJSON, err := json.Marshal(g.Roster)
	if err != nil {
		return fmt.Errorf("marshal roster: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE games
		SET date = $1, title = $2, price_cents = $3, max_slots = $4, status = $5,
		    roster = $6, version = version + 1, updated_at = now()
		WHERE id = $7 AND version = $8
	`, g.Date, g.Title, g.PriceCents, g.MaxSlots, g.Status, rosterJSON, g.ID, g.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		versionConflicts.Inc()
		return ErrVersionConflict
	}
	g.Version++
	return nil
}

// ListUnarchived returns games still carrying payment activity
// (closed or finished), for the background reconciliation sweep.
func (r *GameRepo) ListUnarchived(ctx context.Context, workspaceID uuid.UUID) ([]*models.Game, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM games
		WHERE workspace_id = $1 AND status IN ('closed', 'finished')
		ORDER BY date ASC
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	games := make([]*models.Game, 0, len(ids))
	for _, id := range ids {
		g, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}
