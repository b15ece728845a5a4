package models

import (
	"time"

	"github.com/google/uuid"
)

// Game status enums. closed → open is not a legal transition; finished
// and closed flip back and forth through the payment toggles only.
const (
	GameStatusOpen      = "open"
	GameStatusClosed    = "closed"
	GameStatusCancelled = "cancelled"
	GameStatusFinished  = "finished"
)

// Game is the persisted aggregate for one scheduled match's signup
// sheet. The whole roster is stored and written back as a unit;
// Version backs the optimistic concurrency check on save.
type Game struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	ChatID      string    `json:"chat_id"`
	Date        time.Time `json:"date"`
	Title       string    `json:"title"`
	PriceCents  int64     `json:"price_cents"`
	MaxSlots    int       `json:"max_slots"`
	Status      string    `json:"status"`
	Roster      Roster    `json:"roster"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Roster holds the slot occupants, the overflow waitlist and the
// opt-out list. Slots 1..GoalieSlots are reserved for goalkeepers,
// GoalieSlots+1..MaxSlots is the outfield range.
type Roster struct {
	GoalieSlots int             `json:"goalie_slots"`
	Players     []Player        `json:"players"`
	Waitlist    []WaitlistEntry `json:"waitlist"`
	OptOuts     []string        `json:"opt_outs,omitempty"`
}

// Player occupies one numbered slot. Guests have no OwnerID of their
// own; InvitedBy identifies the member responsible for their payment.
type Player struct {
	Slot        int        `json:"slot"`
	OwnerID     string     `json:"owner_id,omitempty"`
	Name        string     `json:"name"`
	Paid        bool       `json:"paid"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	IsGuest     bool       `json:"is_guest"`
	InvitedBy   string     `json:"invited_by,omitempty"`
	ExternalRef string     `json:"external_ref,omitempty"`
}

// PayerID resolves the member responsible for this player's payment:
// the inviter for guests, the owner otherwise. Empty when unresolved.
func (p *Player) PayerID() string {
	if p.IsGuest {
		return p.InvitedBy
	}
	return p.OwnerID
}

// IsGoalie reports whether the player's slot falls in the reserved
// goalkeeper range.
func (p *Player) IsGoalie(goalieSlots int) bool {
	return p.Slot >= 1 && p.Slot <= goalieSlots
}

// WaitlistEntry is one overflow signup, kept in strict FIFO order.
type WaitlistEntry struct {
	OwnerID    string    `json:"owner_id,omitempty"`
	Name       string    `json:"name"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// PlayerAt returns the occupant of the given slot, or nil.
func (r *Roster) PlayerAt(slot int) *Player {
	for i := range r.Players {
		if r.Players[i].Slot == slot {
			return &r.Players[i]
		}
	}
	return nil
}

// OutfieldPlayers returns the occupants outside the goalkeeper range.
func (r *Roster) OutfieldPlayers() []*Player {
	var out []*Player
	for i := range r.Players {
		if r.Players[i].Slot > r.GoalieSlots {
			out = append(out, &r.Players[i])
		}
	}
	return out
}
