// Package audit runs the background reconciliation sweep. Payment
// toggles commit ledger entries before the roster save, so a crash or
// lost version race in between can leave a paid flag without its
// credit (or the reverse). The sweep makes that window observable for
// manual repair instead of letting it drift silently.
package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/riverqueue/river"

	"github.com/matchday/backend/internal/models"
)

// LedgerAuditArgs is the periodic river job payload. The sweep needs
// no parameters; it always walks every workspace.
type LedgerAuditArgs struct{}

func (LedgerAuditArgs) Kind() string { return "ledger_audit" }

var mismatches = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ledger_audit_mismatches_total",
	Help: "Paid flags found without a matching confirmed credit, or the reverse.",
})

// WorkspaceLister enumerates tenants for the sweep.
type WorkspaceLister interface {
	List(ctx context.Context) ([]*models.Workspace, error)
}

// GameLister returns a workspace's games still carrying payment
// activity.
type GameLister interface {
	ListUnarchived(ctx context.Context, workspaceID uuid.UUID) ([]*models.Game, error)
}

// LedgerReader reads a game's ledger entries.
type LedgerReader interface {
	ListByGame(ctx context.Context, workspaceID, gameID uuid.UUID) ([]*models.LedgerEntry, error)
}

type LedgerAuditWorker struct {
	river.WorkerDefaults[LedgerAuditArgs]
	workspaces WorkspaceLister
	games      GameLister
	ledger     LedgerReader
	logger     *slog.Logger
}

func NewLedgerAuditWorker(workspaces WorkspaceLister, games GameLister, ledger LedgerReader, logger *slog.Logger) *LedgerAuditWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerAuditWorker{workspaces: workspaces, games: games, ledger: ledger, logger: logger}
}

func (w *LedgerAuditWorker) Work(ctx context.Context, job *river.Job[LedgerAuditArgs]) error {
	workspaces, err := w.workspaces.List(ctx)
	if err != nil {
		return err
	}
	var flagged int
	for _, ws := range workspaces {
		games, err := w.games.ListUnarchived(ctx, ws.ID)
		if err != nil {
			return err
		}
		for _, g := range games {
			flagged += w.auditGame(ctx, g)
		}
	}
	if flagged > 0 {
		w.logger.Warn("ledger audit found mismatches", "count", flagged)
	} else {
		w.logger.Info("ledger audit clean")
	}
	return nil
}

// auditGame compares the roster's paid flags against the game's
// confirmed credits, slot by slot. Each occupant holds its own credit
// (a guest's credit belongs to the inviter but still carries the
// guest's slot), so a paid slot without a credit, or a credited slot
// nobody marked paid, is a mismatch either way.
func (w *LedgerAuditWorker) auditGame(ctx context.Context, g *models.Game) int {
	entries, err := w.ledger.ListByGame(ctx, g.WorkspaceID, g.ID)
	if err != nil {
		w.logger.Error("ledger audit: list entries failed", "game_id", g.ID, "error", err)
		return 0
	}
	credited := make(map[int]string)
	for _, e := range entries {
		if e.Kind == models.LedgerKindCredit && e.Status == models.LedgerStatusConfirmed && e.Slot != nil {
			credited[*e.Slot] = e.OwnerID
		}
	}
	// Goalkeepers can be marked paid too, so the walk covers every slot.
	paid := make(map[int]string)
	for i := range g.Roster.Players {
		if p := &g.Roster.Players[i]; p.Paid {
			paid[p.Slot] = p.PayerID()
		}
	}

	var flagged int
	for slot, payer := range paid {
		if _, ok := credited[slot]; !ok {
			mismatches.Inc()
			flagged++
			w.logger.Warn("paid slot has no confirmed credit",
				"game_id", g.ID, "slot", slot, "owner_id", payer)
		}
	}
	for slot, payer := range credited {
		if _, ok := paid[slot]; !ok {
			mismatches.Inc()
			flagged++
			w.logger.Warn("confirmed credit with no paid player",
				"game_id", g.ID, "slot", slot, "owner_id", payer)
		}
	}
	return flagged
}
