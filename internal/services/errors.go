package services

import "errors"

// Operation errors. "Already in desired state" situations are not
// errors; they come back as a result with Updated=false and a reason.
var (
	// ErrGameNotOpen is returned for roster mutations on a game that
	// has been closed, finished or cancelled.
	ErrGameNotOpen = errors.New("game is not open")

	// ErrSlotOutOfRange is returned when the slot number falls outside
	// 1..MaxSlots.
	ErrSlotOutOfRange = errors.New("slot out of range")

	// ErrUnresolvedPayer is returned when a payment toggle cannot
	// resolve the responsible member: a guest with no inviter on
	// record, or an occupant with no owner.
	ErrUnresolvedPayer = errors.New("cannot resolve responsible payer")

	// ErrPriceNotSet blocks closing a game whose price per slot was
	// never set.
	ErrPriceNotSet = errors.New("price per slot is not set")

	// ErrEmptyRoster blocks closing a game with no occupants.
	ErrEmptyRoster = errors.New("roster has no occupants")

	// ErrInvalidTransition is returned for a lifecycle change the
	// state machine does not allow, e.g. cancelling a closed game.
	ErrInvalidTransition = errors.New("invalid game status transition")

	// ErrActiveGameExists blocks creating a second signup sheet for a
	// chat that already has one open, closed or finished.
	ErrActiveGameExists = errors.New("chat already has an active game")

	// ErrInvalidSlotConfig is returned when a game is created with a
	// slot layout that cannot hold a roster, e.g. zero slots or a
	// goalkeeper range swallowing the whole field.
	ErrInvalidSlotConfig = errors.New("invalid slot configuration")
)
