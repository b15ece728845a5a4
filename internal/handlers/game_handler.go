package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/matchday/backend/internal/models"
	"github.com/matchday/backend/internal/repository"
	"github.com/matchday/backend/internal/roster"
	"github.com/matchday/backend/internal/services"
)

// GameOps is the operation surface the handler exposes. It matches
// services.GameService.
type GameOps interface {
	CreateGame(ctx context.Context, p services.CreateGameParams) (*models.Game, error)
	ActiveGame(ctx context.Context, workspaceID uuid.UUID, chatID string) (*models.Game, error)
	JoinOutfield(ctx context.Context, gameID uuid.UUID, ownerID, name string) (services.JoinResult, error)
	JoinGoalkeeper(ctx context.Context, gameID uuid.UUID, ownerID, name string) (services.JoinResult, error)
	AddGuest(ctx context.Context, gameID uuid.UUID, guestName, inviterID, inviterName string, asGoalie bool) (services.JoinResult, error)
	Leave(ctx context.Context, gameID uuid.UUID, m roster.Matcher) (services.LeaveResult, error)
	OptOut(ctx context.Context, gameID uuid.UUID, ownerID, name string) (services.OptOutResult, error)
	MarkPaid(ctx context.Context, gameID uuid.UUID, slot int, method string) (services.ToggleResult, error)
	UnmarkPaid(ctx context.Context, gameID uuid.UUID, slot int) (services.ToggleResult, error)
	Close(ctx context.Context, gameID uuid.UUID) ([]services.BillingResult, error)
	Cancel(ctx context.Context, gameID uuid.UUID) error
	RenderRoster(ctx context.Context, gameID uuid.UUID) (string, error)
}

// BalanceReader exposes the on-demand balance computation.
type BalanceReader interface {
	Balance(ctx context.Context, workspaceID uuid.UUID, ownerID string) (int64, error)
}

// GameHandler serves the /v1/games endpoints called by the external
// chat layer. It does no authentication; that concern lives with the
// caller.
type GameHandler struct {
	Ops    GameOps
	Ledger BalanceReader
	Logger *slog.Logger
}

func NewGameHandler(ops GameOps, ledger BalanceReader, logger *slog.Logger) *GameHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GameHandler{Ops: ops, Ledger: ledger, Logger: logger}
}

type createGameRequest struct {
	WorkspaceID string    `json:"workspace_id"`
	ChatID      string    `json:"chat_id"`
	Date        time.Time `json:"date"`
	Title       string    `json:"title"`
	PriceCents  int64     `json:"price_cents"`
	MaxSlots    int       `json:"max_slots"`
	GoalieSlots int       `json:"goalie_slots"`
}

type joinRequest struct {
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"` // outfield (default) | goalkeeper
}

type guestRequest struct {
	GuestName   string `json:"guest_name"`
	InviterID   string `json:"inviter_id"`
	InviterName string `json:"inviter_name"`
	AsGoalie    bool   `json:"as_goalie"`
}

type leaveRequest struct {
	OwnerID   string `json:"owner_id,omitempty"`
	GuestName string `json:"guest_name,omitempty"`
}

type optOutRequest struct {
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

type payRequest struct {
	Method string `json:"method,omitempty"`
}

// CreateGame handles POST /v1/games.
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	workspaceID, err := uuid.Parse(req.WorkspaceID)
	if err != nil {
		http.Error(w, `{"error":"invalid workspace id"}`, http.StatusBadRequest)
		return
	}
	if req.ChatID == "" {
		http.Error(w, `{"error":"chat_id is required"}`, http.StatusBadRequest)
		return
	}
	g, err := h.Ops.CreateGame(r.Context(), services.CreateGameParams{
		WorkspaceID: workspaceID,
		ChatID:      req.ChatID,
		Date:        req.Date,
		Title:       req.Title,
		PriceCents:  req.PriceCents,
		MaxSlots:    req.MaxSlots,
		GoalieSlots: req.GoalieSlots,
	})
	if err != nil {
		h.writeError(w, "create game", err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// ActiveGame handles GET /v1/workspaces/{workspace}/chats/{chat}/game.
func (h *GameHandler) ActiveGame(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := uuid.Parse(r.PathValue("workspace"))
	if err != nil {
		http.Error(w, `{"error":"invalid workspace id"}`, http.StatusBadRequest)
		return
	}
	chatID := r.PathValue("chat")
	if chatID == "" {
		http.Error(w, `{"error":"chat is required"}`, http.StatusBadRequest)
		return
	}
	g, err := h.Ops.ActiveGame(r.Context(), workspaceID, chatID)
	if err != nil {
		h.writeError(w, "active game", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Join handles POST /v1/games/{id}/join.
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" || req.Name == "" {
		http.Error(w, `{"error":"owner_id and name are required"}`, http.StatusBadRequest)
		return
	}
	var (
		res services.JoinResult
		err error
	)
	if req.Role == roster.RoleGoalkeeper {
		res, err = h.Ops.JoinGoalkeeper(r.Context(), gameID, req.OwnerID, req.Name)
	} else {
		res, err = h.Ops.JoinOutfield(r.Context(), gameID, req.OwnerID, req.Name)
	}
	if err != nil {
		h.writeError(w, "join", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AddGuest handles POST /v1/games/{id}/guests.
func (h *GameHandler) AddGuest(w http.ResponseWriter, r *http.Request) {
	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	var req guestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.GuestName == "" || req.InviterID == "" || req.InviterName == "" {
		http.Error(w, `{"error":"guest_name, inviter_id and inviter_name are required"}`, http.StatusBadRequest)
		return
	}
	res, err := h.Ops.AddGuest(r.Context(), gameID, req.GuestName, req.InviterID, req.InviterName, req.AsGoalie)
	if err != nil {
		h.writeError(w, "add guest", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Leave handles POST /v1/games/{id}/leave.
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	var req leaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" && req.GuestName == "" {
		http.Error(w, `{"error":"owner_id or guest_name is required"}`, http.StatusBadRequest)
		return
	}
	res, err := h.Ops.Leave(r.Context(), gameID, roster.Matcher{OwnerID: req.OwnerID, GuestName: req.GuestName})
	if err != nil {
		h.writeError(w, "leave", err)
		return
	}
	if !res.Removed {
		writeJSON(w, http.StatusNotFound, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// OptOut handles POST /v1/games/{id}/optout.
func (h *GameHandler) OptOut(w http.ResponseWriter, r *http.Request) {
	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	var req optOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.OwnerID == "" || req.Name == "" {
		http.Error(w, `{"error":"owner_id and name are required"}`, http.StatusBadRequest)
		return
	}
	res, err := h.Ops.OptOut(r.Context(), gameID, req.OwnerID, req.Name)
	if err != nil {
		h.writeError(w, "opt out", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Pay handles POST /v1/games/{id}/slots/{slot}/pay.
func (h *GameHandler) Pay(w http.ResponseWriter, r *http.Request) {
	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	slot, ok := h.slot(w, r)
	if !ok {
		return
	}
	var req payRequest
	if r.Body != nil {
		// Body is optional; a bare POST means an unspecified method.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	res, err := h.Ops.MarkPaid(r.Context(), gameID, slot, req.Method)
	if err != nil {
		h.writeError(w, "mark paid", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Unpay handles POST /v1/games/{id}/slots/{slot}/unpay.
func (h *GameHandler) Unpay(w http.ResponseWriter, r *http.Request) {
	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	slot, ok := h.slot(w, r)
	if !ok {
		return
	}
	res, err := h.Ops.UnmarkPaid(r.Context(), gameID, slot)
	if err != nil {
		h.writeError(w, "unmark paid", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Close handles POST /v1/games/{id}/close.
func (h *GameHandler) Close(w http.ResponseWriter, r *http.Request) {
	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	results, err := h.Ops.Close(r.Context(), gameID)
	if err != nil {
		h.writeError(w, "close", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"billing": results})
}

// Cancel handles POST /v1/games/{id}/cancel.
func (h *GameHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	if err := h.Ops.Cancel(r.Context(), gameID); err != nil {
		h.writeError(w, "cancel", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// Roster handles GET /v1/games/{id}/roster as plain text.
func (h *GameHandler) Roster(w http.ResponseWriter, r *http.Request) {
	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	text, err := h.Ops.RenderRoster(r.Context(), gameID)
	if err != nil {
		h.writeError(w, "render roster", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

// Balance handles GET /v1/balances/{workspace}/{owner}.
func (h *GameHandler) Balance(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := uuid.Parse(r.PathValue("workspace"))
	if err != nil {
		http.Error(w, `{"error":"invalid workspace id"}`, http.StatusBadRequest)
		return
	}
	ownerID := r.PathValue("owner")
	if ownerID == "" {
		http.Error(w, `{"error":"owner is required"}`, http.StatusBadRequest)
		return
	}
	balance, err := h.Ledger.Balance(r.Context(), workspaceID, ownerID)
	if err != nil {
		h.writeError(w, "balance", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"owner_id": ownerID, "balance_cents": balance})
}

func (h *GameHandler) gameID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid game id"}`, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *GameHandler) slot(w http.ResponseWriter, r *http.Request) (int, bool) {
	slot, err := strconv.Atoi(r.PathValue("slot"))
	if err != nil {
		http.Error(w, `{"error":"slot must be a number"}`, http.StatusBadRequest)
		return 0, false
	}
	return slot, true
}

func (h *GameHandler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	case errors.Is(err, services.ErrSlotOutOfRange),
		errors.Is(err, services.ErrInvalidSlotConfig):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
	case errors.Is(err, services.ErrGameNotOpen),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrPriceNotSet),
		errors.Is(err, services.ErrEmptyRoster),
		errors.Is(err, services.ErrActiveGameExists),
		errors.Is(err, repository.ErrVersionConflict):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusConflict)
	case errors.Is(err, services.ErrUnresolvedPayer):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusUnprocessableEntity)
	default:
		h.Logger.Error(op, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
