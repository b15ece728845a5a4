package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/matchday/backend/internal/models"
	"github.com/matchday/backend/internal/repository"
)

// WorkspaceStore is the workspace persistence surface the handler
// needs.
type WorkspaceStore interface {
	Create(ctx context.Context, w *models.Workspace) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
}

// WorkspaceHandler serves tenant bootstrap and lookup. The accounting
// token is accepted on create but never serialized back out.
type WorkspaceHandler struct {
	Store  WorkspaceStore
	Logger *slog.Logger
}

func NewWorkspaceHandler(store WorkspaceStore, logger *slog.Logger) *WorkspaceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkspaceHandler{Store: store, Logger: logger}
}

type createWorkspaceRequest struct {
	Name               string   `json:"name"`
	PaymentKey         string   `json:"payment_key,omitempty"`
	AccountingBaseURL  string   `json:"accounting_base_url,omitempty"`
	AccountingToken    string   `json:"accounting_token,omitempty"`
	PaymentCategoryRef string   `json:"payment_category_ref,omitempty"`
	ExemptOwnerIDs     []string `json:"exempt_owner_ids,omitempty"`
}

// Create handles POST /v1/workspaces.
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, `{"error":"name is required"}`, http.StatusBadRequest)
		return
	}
	ws := &models.Workspace{
		Name:               req.Name,
		PaymentKey:         req.PaymentKey,
		AccountingBaseURL:  req.AccountingBaseURL,
		AccountingToken:    req.AccountingToken,
		PaymentCategoryRef: req.PaymentCategoryRef,
		ExemptOwnerIDs:     req.ExemptOwnerIDs,
	}
	if err := h.Store.Create(r.Context(), ws); err != nil {
		h.Logger.Error("create workspace", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

// Get handles GET /v1/workspaces/{workspace}.
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("workspace"))
	if err != nil {
		http.Error(w, `{"error":"invalid workspace id"}`, http.StatusBadRequest)
		return
	}
	ws, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		h.Logger.Error("get workspace", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}
