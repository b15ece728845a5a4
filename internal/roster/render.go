package roster

import (
	"fmt"
	"strings"

	"github.com/matchday/backend/internal/models"
)

const (
	waitlistHeader = "--- WAITLIST ---"
	optOutHeader   = "--- NOT COMING ---"
)

// Render produces the plain-text roster block consumed by the chat
// layer. The shape is a compatibility surface for downstream
// renderers: header lines, then one line per slot from 1..MaxSlots in
// order, then the waitlist section. Do not reorder or reformat lines
// without coordinating with the consumers.
func Render(g *models.Game, paymentKey string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", g.Title)
	fmt.Fprintf(&b, "%s %s\n", g.Date.Format("2006-01-02"), g.Date.Format("15:04"))
	fmt.Fprintf(&b, "Pay to: %s | Price: %s\n", paymentKey, FormatCents(g.PriceCents))

	for slot := 1; slot <= g.MaxSlots; slot++ {
		line := fmt.Sprintf("%d - ", slot)
		if slot <= g.Roster.GoalieSlots {
			line += "🧤"
		}
		if p := g.Roster.PlayerAt(slot); p != nil {
			line += p.Name
			if p.Paid {
				line += " ✅"
			}
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteString(waitlistHeader)
	b.WriteByte('\n')
	for i := range g.Roster.Waitlist {
		fmt.Fprintf(&b, "%d. %s\n", i+1, g.Roster.Waitlist[i].Name)
	}

	if len(g.Roster.OptOuts) > 0 {
		b.WriteString(optOutHeader)
		b.WriteByte('\n')
		for _, name := range g.Roster.OptOuts {
			fmt.Fprintf(&b, "%s\n", name)
		}
	}
	return b.String()
}

// FormatCents renders an amount in cents as dollars, e.g. 1000 → $10.00.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
