// Package roster holds the pure slot-assignment logic. Everything here
// operates on an in-memory models.Roster with no storage dependency;
// persistence and pre-checks belong to the calling service.
package roster

import (
	"fmt"
	"strings"
	"time"

	"github.com/matchday/backend/internal/models"
)

// Role labels returned by guest placement.
const (
	RoleGoalkeeper = "goalkeeper"
	RoleOutfield   = "outfield"
)

// AddResult reports where an add landed. WaitlistPos is 1-based and
// only set when the signup overflowed to the waitlist.
type AddResult struct {
	Placed      bool
	Slot        int
	WaitlistPos int
}

// GuestResult is AddResult plus the display label and role the guest
// was registered under.
type GuestResult struct {
	Placed      bool
	Slot        int
	WaitlistPos int
	Label       string
	Role        string
}

// Promotion describes the waitlist head that took over a vacated slot.
type Promotion struct {
	Slot    int
	Name    string
	OwnerID string
}

// RemoveResult reports whether a matching occupant was removed and, if
// the vacated slot was an outfield slot, who was promoted into it.
type RemoveResult struct {
	Removed  bool
	Promoted *Promotion
}

// Matcher selects an occupant either by owning member or, for guests,
// by guest name (case-sensitive match on the stored label's guest part).
type Matcher struct {
	OwnerID   string
	GuestName string
}

// firstFreeSlot returns the lowest unoccupied slot in [lo, hi], or 0.
func firstFreeSlot(r *models.Roster, lo, hi int) int {
	occupied := make(map[int]bool, len(r.Players))
	for i := range r.Players {
		occupied[r.Players[i].Slot] = true
	}
	for s := lo; s <= hi; s++ {
		if !occupied[s] {
			return s
		}
	}
	return 0
}

// AlreadyListed reports whether the owner occupies a slot or holds a
// waitlist entry. Callers check this before any add; the add functions
// do not enforce it so administrative overrides stay possible.
func AlreadyListed(r *models.Roster, ownerID string) bool {
	if ownerID == "" {
		return false
	}
	for i := range r.Players {
		if r.Players[i].OwnerID == ownerID {
			return true
		}
	}
	for i := range r.Waitlist {
		if r.Waitlist[i].OwnerID == ownerID {
			return true
		}
	}
	return false
}

// AddOutfield places the owner on the first free outfield slot, or
// appends them to the waitlist when the outfield is full.
func AddOutfield(r *models.Roster, maxSlots int, ownerID, name string) AddResult {
	if slot := firstFreeSlot(r, r.GoalieSlots+1, maxSlots); slot != 0 {
		r.Players = append(r.Players, models.Player{Slot: slot, OwnerID: ownerID, Name: name})
		return AddResult{Placed: true, Slot: slot}
	}
	r.Waitlist = append(r.Waitlist, models.WaitlistEntry{OwnerID: ownerID, Name: name, EnqueuedAt: time.Now()})
	return AddResult{WaitlistPos: len(r.Waitlist)}
}

// AddGoalkeeper places the owner on the first free goalkeeper slot.
// When the goalie range is full nothing changes; the caller decides
// whether to route to the waitlist instead.
func AddGoalkeeper(r *models.Roster, ownerID, name string) AddResult {
	slot := firstFreeSlot(r, 1, r.GoalieSlots)
	if slot == 0 {
		return AddResult{}
	}
	r.Players = append(r.Players, models.Player{Slot: slot, OwnerID: ownerID, Name: name})
	return AddResult{Placed: true, Slot: slot}
}

// GuestLabel is the display name a guest is registered under.
func GuestLabel(guestName, inviterName string) string {
	return fmt.Sprintf("%s (guest of %s)", guestName, inviterName)
}

// AddGuest places an ownerless guest billed to the inviter. Outfield
// guests overflow to the waitlist like members; goalkeeper guests do
// not.
func AddGuest(r *models.Roster, maxSlots int, guestName, inviterID, inviterName string, asGoalie bool) GuestResult {
	label := GuestLabel(guestName, inviterName)
	role := RoleOutfield
	lo, hi := r.GoalieSlots+1, maxSlots
	if asGoalie {
		role = RoleGoalkeeper
		lo, hi = 1, r.GoalieSlots
	}
	if slot := firstFreeSlot(r, lo, hi); slot != 0 {
		r.Players = append(r.Players, models.Player{
			Slot:      slot,
			Name:      label,
			IsGuest:   true,
			InvitedBy: inviterID,
		})
		return GuestResult{Placed: true, Slot: slot, Label: label, Role: role}
	}
	if asGoalie {
		return GuestResult{Label: label, Role: role}
	}
	r.Waitlist = append(r.Waitlist, models.WaitlistEntry{Name: label, EnqueuedAt: time.Now()})
	return GuestResult{WaitlistPos: len(r.Waitlist), Label: label, Role: role}
}

// matches reports whether the player satisfies the matcher. A guest
// name matches the full stored label or its bare name segment, never
// a prefix of it; a matcher carrying an owner id alongside the guest
// name only considers that member's guests.
func matches(p *models.Player, m Matcher) bool {
	if m.GuestName == "" {
		return m.OwnerID != "" && !p.IsGuest && p.OwnerID == m.OwnerID
	}
	if !p.IsGuest {
		return false
	}
	if m.OwnerID != "" && p.InvitedBy != m.OwnerID {
		return false
	}
	return p.Name == m.GuestName || guestNameOf(p.Name) == m.GuestName
}

// guestNameOf returns the name segment before the " (guest of " suffix,
// or the label unchanged when there is none.
func guestNameOf(label string) string {
	if name, _, ok := strings.Cut(label, " (guest of "); ok {
		return name
	}
	return label
}

// OptOut records that the member can't make it. Any slot or waitlist
// entry they hold is released first with the usual promotion rules.
// Recording the same name twice is a no-op.
func OptOut(r *models.Roster, ownerID, name string) (RemoveResult, bool) {
	for _, n := range r.OptOuts {
		if n == name {
			return RemoveResult{}, false
		}
	}
	res := Remove(r, Matcher{OwnerID: ownerID})
	r.OptOuts = append(r.OptOuts, name)
	return res, true
}

// Remove deletes the first occupant matching m. When the vacated slot
// is an outfield slot and the waitlist is non-empty, the waitlist head
// is promoted into that exact slot number: downstream consumers may
// have cached the number, so slot stability is a hard contract. A
// vacated goalkeeper slot never triggers promotion. Remove also clears
// a plain waitlist entry when the matcher only hits the waitlist.
func Remove(r *models.Roster, m Matcher) RemoveResult {
	for i := range r.Players {
		if !matches(&r.Players[i], m) {
			continue
		}
		vacated := r.Players[i].Slot
		r.Players = append(r.Players[:i], r.Players[i+1:]...)

		if vacated > r.GoalieSlots && len(r.Waitlist) > 0 {
			head := r.Waitlist[0]
			r.Waitlist = r.Waitlist[1:]
			r.Players = append(r.Players, models.Player{
				Slot:    vacated,
				OwnerID: head.OwnerID,
				Name:    head.Name,
			})
			return RemoveResult{Removed: true, Promoted: &Promotion{
				Slot:    vacated,
				Name:    head.Name,
				OwnerID: head.OwnerID,
			}}
		}
		return RemoveResult{Removed: true}
	}

	if m.OwnerID != "" {
		for i := range r.Waitlist {
			if r.Waitlist[i].OwnerID == m.OwnerID {
				r.Waitlist = append(r.Waitlist[:i], r.Waitlist[i+1:]...)
				return RemoveResult{Removed: true}
			}
		}
	}
	return RemoveResult{}
}
