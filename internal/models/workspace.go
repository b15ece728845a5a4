package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Workspace is one tenant (a chat community). It carries the external
// accounting credentials for that tenant; an empty AccountingBaseURL
// means mirroring is disabled for the workspace.
type Workspace struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	PaymentKey         string    `json:"payment_key,omitempty"`
	AccountingBaseURL  string    `json:"accounting_base_url,omitempty"`
	AccountingToken    string    `json:"-"`
	PaymentCategoryRef string    `json:"payment_category_ref,omitempty"`
	ExemptOwnerIDs     []string  `json:"exempt_owner_ids,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsExempt reports whether the owner is billed at zero on close.
func (w *Workspace) IsExempt(ownerID string) bool {
	return ownerID != "" && slices.Contains(w.ExemptOwnerIDs, ownerID)
}

// AccountingEnabled reports whether the workspace has external
// accounting configured.
func (w *Workspace) AccountingEnabled() bool {
	return w.AccountingBaseURL != ""
}
