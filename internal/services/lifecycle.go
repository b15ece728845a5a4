package services

import (
	"github.com/matchday/backend/internal/models"
)

// Game status transitions: open → closed → finished, open → cancelled.
// closed → open is not allowed. finished → closed happens only through
// the unpay path. Finish and unfinish are derived from payment state,
// never set directly by a caller.

// CanClose checks the close guards without mutating the game.
func CanClose(g *models.Game) error {
	if g.Status != models.GameStatusOpen {
		return ErrInvalidTransition
	}
	if g.PriceCents <= 0 {
		return ErrPriceNotSet
	}
	if len(g.Roster.Players) == 0 {
		return ErrEmptyRoster
	}
	return nil
}

// CanCancel checks that the game can still be cancelled. Cancellation
// has no financial side effects, so it is only allowed before close.
func CanCancel(g *models.Game) error {
	if g.Status != models.GameStatusOpen {
		return ErrInvalidTransition
	}
	return nil
}

// finishIfAllPaid promotes a closed game to finished once every
// outfield occupant has paid. Called as a post-condition of MarkPaid.
func finishIfAllPaid(g *models.Game) bool {
	if g.Status != models.GameStatusClosed {
		return false
	}
	outfield := g.Roster.OutfieldPlayers()
	if len(outfield) == 0 {
		return false
	}
	for _, p := range outfield {
		if !p.Paid {
			return false
		}
	}
	g.Status = models.GameStatusFinished
	return true
}

// reopenIfUnpaid demotes a finished game back to closed. Called as a
// post-condition of UnmarkPaid.
func reopenIfUnpaid(g *models.Game) bool {
	if g.Status != models.GameStatusFinished {
		return false
	}
	g.Status = models.GameStatusClosed
	return true
}
