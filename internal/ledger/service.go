package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/matchday/backend/internal/models"
)

// Service is the ledger store: per-workspace, per-member debit and
// credit entries plus on-demand balance computation. Confirmation is
// one-directional per entry; unconfirming a debit returns it to
// pending (the row survives for the audit trail) while deleting a
// credit removes it outright, because a credit records an actual
// receipt and removing one means that receipt did not happen.
type Service interface {
	AddDebit(ctx context.Context, e *models.LedgerEntry) error
	AddCredit(ctx context.Context, e *models.LedgerEntry) error
	ConfirmDebit(ctx context.Context, id uuid.UUID) error
	UnconfirmDebit(ctx context.Context, id uuid.UUID) error
	DeleteCredit(ctx context.Context, id uuid.UUID) error
	FindPendingDebit(ctx context.Context, workspaceID uuid.UUID, ownerID string, gameID uuid.UUID, slot int) (*models.LedgerEntry, error)
	FindConfirmedDebit(ctx context.Context, workspaceID uuid.UUID, ownerID string, gameID uuid.UUID, slot int) (*models.LedgerEntry, error)
	FindCredit(ctx context.Context, workspaceID uuid.UUID, ownerID string, gameID uuid.UUID, slot int) (*models.LedgerEntry, error)
	ListByGame(ctx context.Context, workspaceID, gameID uuid.UUID) ([]*models.LedgerEntry, error)
	Balance(ctx context.Context, workspaceID uuid.UUID, ownerID string) (int64, error)
}

type service struct {
	repo *Repository
}

// NewService returns a Service backed by the pgx repository.
func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) AddDebit(ctx context.Context, e *models.LedgerEntry) error {
	e.Kind = models.LedgerKindDebit
	return s.repo.Insert(ctx, e)
}

func (s *service) AddCredit(ctx context.Context, e *models.LedgerEntry) error {
	e.Kind = models.LedgerKindCredit
	return s.repo.Insert(ctx, e)
}

func (s *service) ConfirmDebit(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetDebitStatus(ctx, id, models.LedgerStatusPending, models.LedgerStatusConfirmed)
}

func (s *service) UnconfirmDebit(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetDebitStatus(ctx, id, models.LedgerStatusConfirmed, models.LedgerStatusPending)
}

func (s *service) DeleteCredit(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCredit(ctx, id)
}

func (s *service) FindPendingDebit(ctx context.Context, workspaceID uuid.UUID, ownerID string, gameID uuid.UUID, slot int) (*models.LedgerEntry, error) {
	return s.repo.FindOne(ctx, workspaceID, ownerID, gameID, slot, models.LedgerKindDebit, models.LedgerStatusPending)
}

func (s *service) FindConfirmedDebit(ctx context.Context, workspaceID uuid.UUID, ownerID string, gameID uuid.UUID, slot int) (*models.LedgerEntry, error) {
	return s.repo.FindOne(ctx, workspaceID, ownerID, gameID, slot, models.LedgerKindDebit, models.LedgerStatusConfirmed)
}

func (s *service) FindCredit(ctx context.Context, workspaceID uuid.UUID, ownerID string, gameID uuid.UUID, slot int) (*models.LedgerEntry, error) {
	return s.repo.FindOne(ctx, workspaceID, ownerID, gameID, slot, models.LedgerKindCredit, models.LedgerStatusConfirmed)
}

func (s *service) ListByGame(ctx context.Context, workspaceID, gameID uuid.UUID) ([]*models.LedgerEntry, error) {
	return s.repo.ListByGame(ctx, workspaceID, gameID)
}

func (s *service) Balance(ctx context.Context, workspaceID uuid.UUID, ownerID string) (int64, error) {
	return s.repo.Balance(ctx, workspaceID, ownerID)
}

// ErrEntryNotFound is returned when a confirm, unconfirm or delete
// targets a missing entry or one not in the expected state.
var ErrEntryNotFound = errEntryNotFound
