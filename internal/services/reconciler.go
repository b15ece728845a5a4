package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/matchday/backend/internal/accounting"
	"github.com/matchday/backend/internal/models"
)

// LedgerStore is the ledger interface the reconciler needs.
type LedgerStore interface {
	AddDebit(ctx context.Context, e *models.LedgerEntry) error
	AddCredit(ctx context.Context, e *models.LedgerEntry) error
	ConfirmDebit(ctx context.Context, id uuid.UUID) error
	UnconfirmDebit(ctx context.Context, id uuid.UUID) error
	DeleteCredit(ctx context.Context, id uuid.UUID) error
	FindPendingDebit(ctx context.Context, workspaceID uuid.UUID, ownerID string, gameID uuid.UUID, slot int) (*models.LedgerEntry, error)
	FindConfirmedDebit(ctx context.Context, workspaceID uuid.UUID, ownerID string, gameID uuid.UUID, slot int) (*models.LedgerEntry, error)
	FindCredit(ctx context.Context, workspaceID uuid.UUID, ownerID string, gameID uuid.UUID, slot int) (*models.LedgerEntry, error)
	Balance(ctx context.Context, workspaceID uuid.UUID, ownerID string) (int64, error)
}

// AdapterProvider resolves the external accounting adapter for a
// workspace. A nil adapter with nil error means mirroring is disabled.
type AdapterProvider interface {
	AdapterFor(ctx context.Context, workspaceID uuid.UUID) (accounting.Adapter, error)
}

// ToggleResult reports the outcome of a payment toggle. Updated=false
// with a Reason means the occupant was already in the desired state or
// the slot is empty; that is a no-op success, not an error.
type ToggleResult struct {
	Updated bool   `json:"updated"`
	Reason  string `json:"reason,omitempty"`
}

// BillingResult is the per-occupant outcome of CloseAndBill. Each
// occupant's billing is independent; one failure never aborts the rest.
type BillingResult struct {
	Slot        int    `json:"slot"`
	Name        string `json:"name"`
	PayerID     string `json:"payer_id,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Billed      bool   `json:"billed"`
	Mirrored    bool   `json:"mirrored"`
	Error       string `json:"error,omitempty"`
}

// PaymentReconciler orchestrates payment toggles: roster paid flag,
// matching ledger entries, and the best-effort external accounting
// mirror. Local ledger state is authoritative; adapter failures are
// logged, counted and swallowed.
type PaymentReconciler struct {
	Ledger   LedgerStore
	Adapters AdapterProvider
	Logger   *slog.Logger
}

// NewPaymentReconciler returns a reconciler over the given stores.
func NewPaymentReconciler(ledger LedgerStore, adapters AdapterProvider, logger *slog.Logger) *PaymentReconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentReconciler{Ledger: ledger, Adapters: adapters, Logger: logger}
}

// MarkPaid records a payment for the occupant at slot. Ledger first:
// a pending debit for (workspace, payer, game) is confirmed, or a
// retroactive confirmed debit is created, then a matching confirmed
// credit. Only after the ledger succeeds is the paid flag set; an
// error before that point leaves the roster untouched. The external
// mirror runs last and never fails the operation. Repeated calls on a
// paid slot are no-ops.
func (r *PaymentReconciler) MarkPaid(ctx context.Context, g *models.Game, ws *models.Workspace, slot int, method string) (ToggleResult, error) {
	if slot < 1 || slot > g.MaxSlots {
		return ToggleResult{}, fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	p := g.Roster.PlayerAt(slot)
	if p == nil {
		return ToggleResult{Reason: fmt.Sprintf("slot %d is empty", slot)}, nil
	}
	if p.Paid {
		return ToggleResult{Reason: fmt.Sprintf("%s is already marked as paid", p.Name)}, nil
	}
	payerID := p.PayerID()
	if payerID == "" {
		return ToggleResult{}, fmt.Errorf("%w for %q at slot %d", ErrUnresolvedPayer, p.Name, slot)
	}

	amount, err := r.settleDebit(ctx, g, payerID, p)
	if err != nil {
		return ToggleResult{}, err
	}
	if err := r.ensureCredit(ctx, g, payerID, p, amount, method); err != nil {
		return ToggleResult{}, err
	}

	now := time.Now()
	p.Paid = true
	p.PaidAt = &now

	r.mirror(ctx, g, ws, p, amount, true)

	if finishIfAllPaid(g) {
		r.Logger.Info("all outfield players paid, game finished", "game_id", g.ID)
	}
	return ToggleResult{Updated: true}, nil
}

// settleDebit confirms the pending debit for the payer's occupant at
// this slot, or creates a retroactive confirmed one when none exists
// (covers admin-entered payments on games that were never billed).
// Returns the debit amount the credit must match.
func (r *PaymentReconciler) settleDebit(ctx context.Context, g *models.Game, payerID string, p *models.Player) (int64, error) {
	pending, err := r.Ledger.FindPendingDebit(ctx, g.WorkspaceID, payerID, g.ID, p.Slot)
	if err != nil {
		return 0, fmt.Errorf("find pending debit: %w", err)
	}
	if pending != nil {
		if err := r.Ledger.ConfirmDebit(ctx, pending.ID); err != nil {
			return 0, fmt.Errorf("confirm debit: %w", err)
		}
		return pending.AmountCents, nil
	}
	// A confirmed debit may already exist if a previous save attempt
	// lost the version race after the ledger write went through.
	confirmed, err := r.Ledger.FindConfirmedDebit(ctx, g.WorkspaceID, payerID, g.ID, p.Slot)
	if err != nil {
		return 0, fmt.Errorf("find confirmed debit: %w", err)
	}
	if confirmed != nil {
		return confirmed.AmountCents, nil
	}
	gameID := g.ID
	slot := p.Slot
	debit := &models.LedgerEntry{
		WorkspaceID: g.WorkspaceID,
		OwnerID:     payerID,
		GameID:      &gameID,
		Slot:        &slot,
		AmountCents: g.PriceCents,
		Status:      models.LedgerStatusConfirmed,
		Category:    models.CategoryPlayerDebt,
		Note:        g.Title,
	}
	if err := r.Ledger.AddDebit(ctx, debit); err != nil {
		return 0, fmt.Errorf("add debit: %w", err)
	}
	return debit.AmountCents, nil
}

// ensureCredit creates the confirmed credit matching the debit, unless
// one already exists for (workspace, payer, game, slot).
func (r *PaymentReconciler) ensureCredit(ctx context.Context, g *models.Game, payerID string, p *models.Player, amount int64, method string) error {
	existing, err := r.Ledger.FindCredit(ctx, g.WorkspaceID, payerID, g.ID, p.Slot)
	if err != nil {
		return fmt.Errorf("find credit: %w", err)
	}
	if existing != nil {
		return nil
	}
	note := g.Title
	if method != "" {
		note = fmt.Sprintf("%s (paid via %s)", g.Title, method)
	}
	gameID := g.ID
	slot := p.Slot
	credit := &models.LedgerEntry{
		WorkspaceID: g.WorkspaceID,
		OwnerID:     payerID,
		GameID:      &gameID,
		Slot:        &slot,
		AmountCents: amount,
		Status:      models.LedgerStatusConfirmed,
		Category:    models.CategoryPlayerPayment,
		Note:        note,
	}
	if err := r.Ledger.AddCredit(ctx, credit); err != nil {
		return fmt.Errorf("add credit: %w", err)
	}
	return nil
}

// UnmarkPaid reverses MarkPaid: the debit goes back to pending, the
// credit is deleted, the paid flag clears, and a finished game drops
// back to closed. Repeated calls on an unpaid slot are no-ops.
func (r *PaymentReconciler) UnmarkPaid(ctx context.Context, g *models.Game, ws *models.Workspace, slot int) (ToggleResult, error) {
	if slot < 1 || slot > g.MaxSlots {
		return ToggleResult{}, fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	p := g.Roster.PlayerAt(slot)
	if p == nil {
		return ToggleResult{Reason: fmt.Sprintf("slot %d is empty", slot)}, nil
	}
	if !p.Paid {
		return ToggleResult{Reason: fmt.Sprintf("%s is not marked as paid", p.Name)}, nil
	}
	payerID := p.PayerID()
	if payerID == "" {
		return ToggleResult{}, fmt.Errorf("%w for %q at slot %d", ErrUnresolvedPayer, p.Name, slot)
	}

	debit, err := r.Ledger.FindConfirmedDebit(ctx, g.WorkspaceID, payerID, g.ID, p.Slot)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("find confirmed debit: %w", err)
	}
	if debit != nil {
		if err := r.Ledger.UnconfirmDebit(ctx, debit.ID); err != nil {
			return ToggleResult{}, fmt.Errorf("unconfirm debit: %w", err)
		}
	}
	credit, err := r.Ledger.FindCredit(ctx, g.WorkspaceID, payerID, g.ID, p.Slot)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("find credit: %w", err)
	}
	if credit != nil {
		if err := r.Ledger.DeleteCredit(ctx, credit.ID); err != nil {
			return ToggleResult{}, fmt.Errorf("delete credit: %w", err)
		}
	}

	balance, err := r.Ledger.Balance(ctx, g.WorkspaceID, payerID)
	if err != nil {
		r.Logger.Warn("recompute balance failed", "workspace_id", g.WorkspaceID, "owner_id", payerID, "error", err)
	} else {
		r.Logger.Info("payment reversed", "game_id", g.ID, "owner_id", payerID, "balance_cents", balance)
	}

	p.Paid = false
	p.PaidAt = nil

	r.mirror(ctx, g, ws, p, 0, false)

	reopenIfUnpaid(g)
	return ToggleResult{Updated: true}, nil
}

// CloseAndBill creates one pending debit per outfield occupant (zero
// for exempt payers) and best-effort mirrors each as an unpaid
// external transaction. Outcomes are collected per occupant; a single
// failure never aborts the rest.
func (r *PaymentReconciler) CloseAndBill(ctx context.Context, g *models.Game, ws *models.Workspace) []BillingResult {
	adapter := r.adapterFor(ctx, g.WorkspaceID)

	outfield := g.Roster.OutfieldPlayers()
	results := make([]BillingResult, 0, len(outfield))
	for _, p := range outfield {
		res := BillingResult{
			Slot:        p.Slot,
			Name:        p.Name,
			PayerID:     p.PayerID(),
			AmountCents: g.PriceCents,
		}
		if res.PayerID == "" {
			res.Error = ErrUnresolvedPayer.Error()
			results = append(results, res)
			continue
		}
		if ws.IsExempt(res.PayerID) {
			res.AmountCents = 0
		}
		// A save-retry after a lost version race must not bill the
		// same occupant twice.
		existing, err := r.Ledger.FindPendingDebit(ctx, g.WorkspaceID, res.PayerID, g.ID, p.Slot)
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		if existing != nil {
			res.Billed = true
			results = append(results, res)
			continue
		}
		gameID := g.ID
		slot := p.Slot
		debit := &models.LedgerEntry{
			WorkspaceID: g.WorkspaceID,
			OwnerID:     res.PayerID,
			GameID:      &gameID,
			Slot:        &slot,
			AmountCents: res.AmountCents,
			Status:      models.LedgerStatusPending,
			Category:    models.CategoryPlayerDebt,
			Note:        g.Title,
		}
		if err := r.Ledger.AddDebit(ctx, debit); err != nil {
			r.Logger.Error("bill occupant failed", "game_id", g.ID, "slot", p.Slot, "error", err)
			res.Error = err.Error()
			results = append(results, res)
			continue
		}
		res.Billed = true

		if adapter != nil {
			desc := fmt.Sprintf("%s - %s", g.Title, p.Name)
			ref, err := adapter.CreateTransaction(ctx, desc, res.AmountCents, ws.PaymentCategoryRef, false)
			if err != nil {
				accounting.MirrorFailures.Inc()
				r.Logger.Warn("external transaction create failed", "game_id", g.ID, "slot", p.Slot, "error", err)
			} else {
				p.ExternalRef = ref
				res.Mirrored = true
			}
		}
		results = append(results, res)
	}
	return results
}

// mirror pushes the paid state to the external accounting service.
// amount is the settled debit amount, used when the transaction has to
// be created retroactively (zero for exempt payers). Never fails the
// caller.
func (r *PaymentReconciler) mirror(ctx context.Context, g *models.Game, ws *models.Workspace, p *models.Player, amount int64, paid bool) {
	adapter := r.adapterFor(ctx, g.WorkspaceID)
	if adapter == nil {
		return
	}
	if p.ExternalRef == "" {
		if !paid {
			return
		}
		// Retroactive payment on a game that was never billed
		// externally: create the transaction already paid.
		desc := fmt.Sprintf("%s - %s", g.Title, p.Name)
		ref, err := adapter.CreateTransaction(ctx, desc, amount, ws.PaymentCategoryRef, true)
		if err != nil {
			accounting.MirrorFailures.Inc()
			r.Logger.Warn("external transaction create failed", "game_id", g.ID, "slot", p.Slot, "error", err)
			return
		}
		p.ExternalRef = ref
		return
	}
	if err := adapter.UpdateTransaction(ctx, p.ExternalRef, paid); err != nil {
		accounting.MirrorFailures.Inc()
		r.Logger.Warn("external transaction update failed",
			"game_id", g.ID, "slot", p.Slot, "external_ref", p.ExternalRef, "paid", paid, "error", err)
	}
}

// adapterFor resolves the workspace adapter, treating lookup errors as
// mirroring-disabled for this call.
func (r *PaymentReconciler) adapterFor(ctx context.Context, workspaceID uuid.UUID) accounting.Adapter {
	if r.Adapters == nil {
		return nil
	}
	adapter, err := r.Adapters.AdapterFor(ctx, workspaceID)
	if err != nil {
		accounting.MirrorFailures.Inc()
		r.Logger.Warn("adapter lookup failed", "workspace_id", workspaceID, "error", err)
		return nil
	}
	return adapter
}
