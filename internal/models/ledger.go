package models

import (
	"time"

	"github.com/google/uuid"
)

// Ledger entry kinds. A debit is money owed by a member, a credit is
// money actually received from one.
const (
	LedgerKindDebit  = "debit"
	LedgerKindCredit = "credit"
)

// Ledger entry statuses. Only confirmed entries count toward a
// member's balance. A reversed debit keeps its row for the audit
// trail; credits whose purpose is reversed are deleted outright.
const (
	LedgerStatusPending   = "pending"
	LedgerStatusConfirmed = "confirmed"
	LedgerStatusReversed  = "reversed"
)

// Ledger categories consumed by the external accounting mapping.
const (
	CategoryFieldPayment  = "field-payment"
	CategoryPlayerPayment = "player-payment"
	CategoryPlayerDebt    = "player-debt"
	CategoryGeneral       = "general"
)

// LedgerEntry is one debit or credit for a member within a workspace,
// optionally tied to a game. Game-linked entries also carry the roster
// slot they bill, so an inviter covering a guest holds one entry per
// occupant rather than a merged charge. Confirmed entries are never
// edited in place; they are unconfirmed (debits) or deleted (credits).
type LedgerEntry struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	OwnerID     string     `json:"owner_id"`
	GameID      *uuid.UUID `json:"game_id,omitempty"`
	Slot        *int       `json:"slot,omitempty"`
	Kind        string     `json:"kind"`
	AmountCents int64      `json:"amount_cents"`
	Status      string     `json:"status"`
	Note        string     `json:"note,omitempty"`
	Category    string     `json:"category"`
	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}
