package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/matchday/backend/internal/models"
	"github.com/matchday/backend/internal/repository"
)

type mockWorkspaceStore struct {
	created *models.Workspace
	ws      *models.Workspace
}

func (m *mockWorkspaceStore) Create(_ context.Context, w *models.Workspace) error {
	w.ID = uuid.New()
	m.created = w
	return nil
}

func (m *mockWorkspaceStore) GetByID(_ context.Context, id uuid.UUID) (*models.Workspace, error) {
	if m.ws == nil || m.ws.ID != id {
		return nil, repository.ErrNotFound
	}
	return m.ws, nil
}

func TestCreateWorkspace(t *testing.T) {
	store := &mockWorkspaceStore{}
	h := NewWorkspaceHandler(store, nil)

	body := `{
		"name": "Sunday League",
		"payment_key": "club-alias",
		"accounting_base_url": "https://books.example",
		"accounting_token": "tok-secret",
		"exempt_owner_ids": ["u-coach"]
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/workspaces", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.created == nil || store.created.AccountingToken != "tok-secret" {
		t.Fatalf("stored workspace: %+v", store.created)
	}
	// The token must never come back in the response.
	if strings.Contains(rec.Body.String(), "tok-secret") {
		t.Error("response leaked the accounting token")
	}
	var ws models.Workspace
	if err := json.Unmarshal(rec.Body.Bytes(), &ws); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ws.PaymentKey != "club-alias" || !ws.IsExempt("u-coach") {
		t.Errorf("response: %+v", ws)
	}
}

func TestCreateWorkspace_MissingName(t *testing.T) {
	h := NewWorkspaceHandler(&mockWorkspaceStore{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/workspaces", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetWorkspace(t *testing.T) {
	ws := &models.Workspace{ID: uuid.New(), Name: "Sunday League"}
	h := NewWorkspaceHandler(&mockWorkspaceStore{ws: ws}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/workspaces/x", nil)
	req.SetPathValue("workspace", ws.ID.String())
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetWorkspace_Unknown(t *testing.T) {
	h := NewWorkspaceHandler(&mockWorkspaceStore{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/workspaces/x", nil)
	req.SetPathValue("workspace", uuid.New().String())
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
