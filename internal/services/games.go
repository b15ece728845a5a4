package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/matchday/backend/internal/models"
	"github.com/matchday/backend/internal/repository"
	"github.com/matchday/backend/internal/roster"
)

// maxSaveAttempts bounds the reload-and-reapply loop on version
// conflicts before the conflict surfaces to the caller.
const maxSaveAttempts = 3

// GameStore is the game persistence interface GameService needs.
type GameStore interface {
	Create(ctx context.Context, g *models.Game) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
	GetActiveByChat(ctx context.Context, workspaceID uuid.UUID, chatID string) (*models.Game, error)
	Update(ctx context.Context, g *models.Game) error
}

// WorkspaceStore resolves workspace configuration.
type WorkspaceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
}

// JoinResult reports how a signup landed. An empty result with a
// Reason means the member was already on the roster or waitlist.
type JoinResult struct {
	Placed      bool   `json:"placed"`
	Slot        int    `json:"slot,omitempty"`
	WaitlistPos int    `json:"waitlist_pos,omitempty"`
	Label       string `json:"label,omitempty"`
	Role        string `json:"role,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// LeaveResult reports a removal and any waitlist promotion it caused.
type LeaveResult struct {
	Removed  bool              `json:"removed"`
	Promoted *roster.Promotion `json:"promoted,omitempty"`
}

// OptOutResult reports a can't-make-it declaration. Removed and
// Promoted describe the slot or waitlist entry released along the way.
type OptOutResult struct {
	Recorded bool              `json:"recorded"`
	Removed  bool              `json:"removed"`
	Promoted *roster.Promotion `json:"promoted,omitempty"`
	Reason   string            `json:"reason,omitempty"`
}

// GameService exposes the collaborator-facing operations. Each
// operation loads one game, mutates it in memory and writes it back
// whole; a lost optimistic-version race reloads and reapplies.
type GameService struct {
	Games      GameStore
	Workspaces WorkspaceStore
	Reconciler *PaymentReconciler
	Logger     *slog.Logger
}

// NewGameService wires the service.
func NewGameService(games GameStore, workspaces WorkspaceStore, reconciler *PaymentReconciler, logger *slog.Logger) *GameService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GameService{Games: games, Workspaces: workspaces, Reconciler: reconciler, Logger: logger}
}

// CreateGameParams describes a new signup sheet.
type CreateGameParams struct {
	WorkspaceID uuid.UUID
	ChatID      string
	Date        time.Time
	Title       string
	PriceCents  int64
	MaxSlots    int
	GoalieSlots int
}

// CreateGame initializes the signup sheet for a chat's next scheduled
// match. A chat carries at most one active (open, closed or finished)
// game; cancelled and archived games do not block a new one.
func (s *GameService) CreateGame(ctx context.Context, p CreateGameParams) (*models.Game, error) {
	if p.MaxSlots < 1 || p.GoalieSlots < 0 || p.GoalieSlots >= p.MaxSlots {
		return nil, fmt.Errorf("%w: %d slots, %d goalkeepers", ErrInvalidSlotConfig, p.MaxSlots, p.GoalieSlots)
	}
	if _, err := s.Workspaces.GetByID(ctx, p.WorkspaceID); err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	existing, err := s.Games.GetActiveByChat(ctx, p.WorkspaceID, p.ChatID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrActiveGameExists, existing.ID)
	}
	g := &models.Game{
		WorkspaceID: p.WorkspaceID,
		ChatID:      p.ChatID,
		Date:        p.Date,
		Title:       p.Title,
		PriceCents:  p.PriceCents,
		MaxSlots:    p.MaxSlots,
		Status:      models.GameStatusOpen,
		Roster:      models.Roster{GoalieSlots: p.GoalieSlots},
	}
	if err := s.Games.Create(ctx, g); err != nil {
		return nil, err
	}
	s.Logger.Info("game created", "game_id", g.ID, "workspace_id", g.WorkspaceID, "chat_id", g.ChatID)
	return g, nil
}

// ActiveGame returns the chat's current signup sheet.
func (s *GameService) ActiveGame(ctx context.Context, workspaceID uuid.UUID, chatID string) (*models.Game, error) {
	return s.Games.GetActiveByChat(ctx, workspaceID, chatID)
}

// withGame runs fn against a freshly loaded game and saves the result,
// retrying the whole load-mutate-save cycle on version conflicts. fn
// must be safe to reapply against a fresh aggregate.
func (s *GameService) withGame(ctx context.Context, gameID uuid.UUID, fn func(g *models.Game) error) error {
	var lastErr error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		g, err := s.Games.GetByID(ctx, gameID)
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}
		lastErr = s.Games.Update(ctx, g)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, repository.ErrVersionConflict) {
			return lastErr
		}
		s.Logger.Warn("game save lost version race, retrying", "game_id", gameID, "attempt", attempt+1)
	}
	return lastErr
}

// JoinOutfield signs the member up for an outfield slot, overflowing
// to the waitlist when the outfield is full.
func (s *GameService) JoinOutfield(ctx context.Context, gameID uuid.UUID, ownerID, name string) (JoinResult, error) {
	var out JoinResult
	err := s.withGame(ctx, gameID, func(g *models.Game) error {
		if g.Status != models.GameStatusOpen {
			return ErrGameNotOpen
		}
		if roster.AlreadyListed(&g.Roster, ownerID) {
			out = JoinResult{Reason: name + " is already signed up"}
			return nil
		}
		res := roster.AddOutfield(&g.Roster, g.MaxSlots, ownerID, name)
		out = JoinResult{Placed: res.Placed, Slot: res.Slot, WaitlistPos: res.WaitlistPos, Role: roster.RoleOutfield}
		return nil
	})
	return out, err
}

// JoinGoalkeeper signs the member up for a goalkeeper slot. When the
// goalie range is full nothing changes and the reason says so; the
// caller decides whether to fall back to the outfield or waitlist.
func (s *GameService) JoinGoalkeeper(ctx context.Context, gameID uuid.UUID, ownerID, name string) (JoinResult, error) {
	var out JoinResult
	err := s.withGame(ctx, gameID, func(g *models.Game) error {
		if g.Status != models.GameStatusOpen {
			return ErrGameNotOpen
		}
		if roster.AlreadyListed(&g.Roster, ownerID) {
			out = JoinResult{Reason: name + " is already signed up"}
			return nil
		}
		res := roster.AddGoalkeeper(&g.Roster, ownerID, name)
		if !res.Placed {
			out = JoinResult{Reason: "no goalkeeper slots free"}
			return nil
		}
		out = JoinResult{Placed: true, Slot: res.Slot, Role: roster.RoleGoalkeeper}
		return nil
	})
	return out, err
}

// AddGuest registers a guest billed to the inviting member.
func (s *GameService) AddGuest(ctx context.Context, gameID uuid.UUID, guestName, inviterID, inviterName string, asGoalie bool) (JoinResult, error) {
	var out JoinResult
	err := s.withGame(ctx, gameID, func(g *models.Game) error {
		if g.Status != models.GameStatusOpen {
			return ErrGameNotOpen
		}
		res := roster.AddGuest(&g.Roster, g.MaxSlots, guestName, inviterID, inviterName, asGoalie)
		if !res.Placed && res.WaitlistPos == 0 {
			out = JoinResult{Label: res.Label, Role: res.Role, Reason: "no goalkeeper slots free"}
			return nil
		}
		out = JoinResult{Placed: res.Placed, Slot: res.Slot, WaitlistPos: res.WaitlistPos, Label: res.Label, Role: res.Role}
		return nil
	})
	return out, err
}

// Leave removes the matching occupant or waitlist entry. A vacated
// outfield slot is refilled from the waitlist head at the same slot
// number.
func (s *GameService) Leave(ctx context.Context, gameID uuid.UUID, m roster.Matcher) (LeaveResult, error) {
	var out LeaveResult
	err := s.withGame(ctx, gameID, func(g *models.Game) error {
		if g.Status != models.GameStatusOpen {
			return ErrGameNotOpen
		}
		res := roster.Remove(&g.Roster, m)
		out = LeaveResult{Removed: res.Removed, Promoted: res.Promoted}
		if res.Promoted != nil {
			s.Logger.Info("waitlist promotion", "game_id", gameID, "slot", res.Promoted.Slot, "name", res.Promoted.Name)
		}
		return nil
	})
	return out, err
}

// OptOut records that the member can't make it and releases any slot
// or waitlist entry they hold.
func (s *GameService) OptOut(ctx context.Context, gameID uuid.UUID, ownerID, name string) (OptOutResult, error) {
	var out OptOutResult
	err := s.withGame(ctx, gameID, func(g *models.Game) error {
		if g.Status != models.GameStatusOpen {
			return ErrGameNotOpen
		}
		res, recorded := roster.OptOut(&g.Roster, ownerID, name)
		if !recorded {
			out = OptOutResult{Reason: name + " already opted out"}
			return nil
		}
		out = OptOutResult{Recorded: true, Removed: res.Removed, Promoted: res.Promoted}
		if res.Promoted != nil {
			s.Logger.Info("waitlist promotion", "game_id", gameID, "slot", res.Promoted.Slot, "name", res.Promoted.Name)
		}
		return nil
	})
	return out, err
}

// MarkPaid toggles the occupant at slot to paid, reconciles the
// ledger, mirrors externally and finishes the game when everyone paid.
func (s *GameService) MarkPaid(ctx context.Context, gameID uuid.UUID, slot int, method string) (ToggleResult, error) {
	var out ToggleResult
	err := s.withGame(ctx, gameID, func(g *models.Game) error {
		ws, err := s.Workspaces.GetByID(ctx, g.WorkspaceID)
		if err != nil {
			return err
		}
		out, err = s.Reconciler.MarkPaid(ctx, g, ws, slot, method)
		return err
	})
	return out, err
}

// UnmarkPaid reverses MarkPaid for the occupant at slot.
func (s *GameService) UnmarkPaid(ctx context.Context, gameID uuid.UUID, slot int) (ToggleResult, error) {
	var out ToggleResult
	err := s.withGame(ctx, gameID, func(g *models.Game) error {
		ws, err := s.Workspaces.GetByID(ctx, g.WorkspaceID)
		if err != nil {
			return err
		}
		out, err = s.Reconciler.UnmarkPaid(ctx, g, ws, slot)
		return err
	})
	return out, err
}

// Close moves an open game to closed and generates one pending debit
// per outfield occupant, each with an independent outcome.
func (s *GameService) Close(ctx context.Context, gameID uuid.UUID) ([]BillingResult, error) {
	var results []BillingResult
	err := s.withGame(ctx, gameID, func(g *models.Game) error {
		if err := CanClose(g); err != nil {
			return err
		}
		ws, err := s.Workspaces.GetByID(ctx, g.WorkspaceID)
		if err != nil {
			return err
		}
		g.Status = models.GameStatusClosed
		results = s.Reconciler.CloseAndBill(ctx, g, ws)
		return nil
	})
	return results, err
}

// Cancel aborts an open game. No financial side effects.
func (s *GameService) Cancel(ctx context.Context, gameID uuid.UUID) error {
	return s.withGame(ctx, gameID, func(g *models.Game) error {
		if err := CanCancel(g); err != nil {
			return err
		}
		g.Status = models.GameStatusCancelled
		return nil
	})
}

// RenderRoster produces the plain-text roster block for the chat layer.
func (s *GameService) RenderRoster(ctx context.Context, gameID uuid.UUID) (string, error) {
	g, err := s.Games.GetByID(ctx, gameID)
	if err != nil {
		return "", err
	}
	ws, err := s.Workspaces.GetByID(ctx, g.WorkspaceID)
	if err != nil {
		return "", err
	}
	return roster.Render(g, ws.PaymentKey), nil
}
