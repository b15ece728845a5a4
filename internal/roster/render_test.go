package roster

import (
	"testing"
	"time"

	"github.com/matchday/backend/internal/models"
)

func TestRender(t *testing.T) {
	date := time.Date(2026, 9, 12, 21, 0, 0, 0, time.UTC)
	paid := date.Add(time.Hour)
	g := &models.Game{
		Title:      "Friday Football",
		Date:       date,
		PriceCents: 1500,
		MaxSlots:   5,
		Roster: models.Roster{
			GoalieSlots: 1,
			Players: []models.Player{
				{Slot: 1, OwnerID: "g1", Name: "Keeper"},
				{Slot: 2, OwnerID: "u1", Name: "Ana", Paid: true, PaidAt: &paid},
				{Slot: 4, Name: "Diego (guest of Ana)", IsGuest: true, InvitedBy: "u1"},
			},
			Waitlist: []models.WaitlistEntry{
				{OwnerID: "w1", Name: "Waiting One"},
				{Name: "Late Guest (guest of Ana)"},
			},
		},
	}

	got := Render(g, "match.day.alias")
	want := "Friday Football\n" +
		"2026-09-12 21:00\n" +
		"Pay to: match.day.alias | Price: $15.00\n" +
		"1 - 🧤Keeper\n" +
		"2 - Ana ✅\n" +
		"3 - \n" +
		"4 - Diego (guest of Ana)\n" +
		"5 - \n" +
		"--- WAITLIST ---\n" +
		"1. Waiting One\n" +
		"2. Late Guest (guest of Ana)\n"

	if got != want {
		t.Errorf("rendered roster mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderEmptyGoalieSlotKeepsGloveMarker(t *testing.T) {
	g := &models.Game{
		Title:    "Pickup",
		Date:     time.Date(2026, 1, 5, 19, 30, 0, 0, time.UTC),
		MaxSlots: 3,
		Roster:   models.Roster{GoalieSlots: 2},
	}
	got := Render(g, "alias")
	want := "Pickup\n" +
		"2026-01-05 19:30\n" +
		"Pay to: alias | Price: $0.00\n" +
		"1 - 🧤\n" +
		"2 - 🧤\n" +
		"3 - \n" +
		"--- WAITLIST ---\n"
	if got != want {
		t.Errorf("rendered roster mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderOptOutSection(t *testing.T) {
	g := &models.Game{
		Title:    "Pickup",
		Date:     time.Date(2026, 1, 5, 19, 30, 0, 0, time.UTC),
		MaxSlots: 2,
		Roster: models.Roster{
			GoalieSlots: 1,
			OptOuts:     []string{"Ana", "Bea"},
		},
	}
	got := Render(g, "alias")
	want := "Pickup\n" +
		"2026-01-05 19:30\n" +
		"Pay to: alias | Price: $0.00\n" +
		"1 - 🧤\n" +
		"2 - \n" +
		"--- WAITLIST ---\n" +
		"--- NOT COMING ---\n" +
		"Ana\n" +
		"Bea\n"
	if got != want {
		t.Errorf("rendered roster mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{1000, "$10.00"},
		{123456, "$1234.56"},
		{-250, "-$2.50"},
	}
	for _, c := range cases {
		if got := FormatCents(c.cents); got != c.want {
			t.Errorf("FormatCents(%d): got %q, want %q", c.cents, got, c.want)
		}
	}
}
