// Package accounting mirrors confirmed payments into an external
// bookkeeping service. Every call here is best-effort: callers log
// failures and proceed, local ledger state stays the source of truth.
package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/matchday/backend/internal/models"
)

// defaultTimeout bounds the external call so a slow bookkeeping
// service cannot stall roster mutations.
const defaultTimeout = 5 * time.Second

// Adapter is the collaborator interface for the external bookkeeping
// system.
type Adapter interface {
	CreateTransaction(ctx context.Context, description string, amountCents int64, categoryRef string, paid bool) (externalRef string, err error)
	UpdateTransaction(ctx context.Context, externalRef string, paid bool) error
}

// HTTPAdapter talks to one workspace's bookkeeping account.
type HTTPAdapter struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPAdapter returns an adapter for the given credentials. A zero
// timeout falls back to the 5-second default.
func NewHTTPAdapter(baseURL, token string, timeout time.Duration) *HTTPAdapter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPAdapter{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ Adapter = (*HTTPAdapter)(nil)

type createTransactionRequest struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	CategoryRef string `json:"category_ref,omitempty"`
	Paid        bool   `json:"paid"`
}

type transactionResponse struct {
	ID string `json:"id"`
}

type updateTransactionRequest struct {
	Paid bool `json:"paid"`
}

func (a *HTTPAdapter) CreateTransaction(ctx context.Context, description string, amountCents int64, categoryRef string, paid bool) (string, error) {
	body, err := json.Marshal(createTransactionRequest{
		Description: description,
		AmountCents: amountCents,
		CategoryRef: categoryRef,
		Paid:        paid,
	})
	if err != nil {
		return "", fmt.Errorf("marshal transaction: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create transaction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call accounting service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("accounting service returned status %d", resp.StatusCode)
	}
	var out transactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode transaction response: %w", err)
	}
	return out.ID, nil
}

func (a *HTTPAdapter) UpdateTransaction(ctx context.Context, externalRef string, paid bool) error {
	body, err := json.Marshal(updateTransactionRequest{Paid: paid})
	if err != nil {
		return fmt.Errorf("marshal transaction update: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, a.baseURL+"/transactions/"+externalRef, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create transaction update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call accounting service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("accounting service returned status %d", resp.StatusCode)
	}
	return nil
}

// WorkspaceStore is the subset of workspace storage the registry needs.
type WorkspaceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
}

// Registry resolves the adapter for a workspace from its accounting
// configuration. Different tenants carry different credentials.
type Registry struct {
	workspaces WorkspaceStore
	timeout    time.Duration
}

// NewRegistry returns a Registry looking up credentials in the given
// workspace store.
func NewRegistry(workspaces WorkspaceStore, timeout time.Duration) *Registry {
	return &Registry{workspaces: workspaces, timeout: timeout}
}

// AdapterFor returns the workspace's adapter, or nil when the
// workspace has no accounting configured (mirroring disabled).
func (r *Registry) AdapterFor(ctx context.Context, workspaceID uuid.UUID) (Adapter, error) {
	ws, err := r.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load workspace %s: %w", workspaceID, err)
	}
	if !ws.AccountingEnabled() {
		return nil, nil
	}
	return NewHTTPAdapter(ws.AccountingBaseURL, ws.AccountingToken, r.timeout), nil
}
