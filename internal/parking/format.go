package parking

import (
	"fmt"
	"strings"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

func FormatTicket(t Ticket) string {
	return fmt.Sprintf("Ticket %d: %s parked in %s slot %d at %s",
		t.ID, t.LicensePlate, t.Category, t.SlotID, t.EntryTime.Format(timeLayout))
}

func FormatReceipt(r Receipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Receipt for ticket %d\n", r.TicketID)
	fmt.Fprintf(&b, "  Vehicle:  %s\n", r.LicensePlate)
	fmt.Fprintf(&b, "  Slot:     %s %d\n", r.Category, r.SlotID)
	fmt.Fprintf(&b, "  Entry:    %s\n", r.EntryTime.Format(timeLayout))
	fmt.Fprintf(&b, "  Exit:     %s\n", r.ExitTime.Format(timeLayout))
	fmt.Fprintf(&b, "  Duration: %s (%.2f h)\n", formatHours(r.DurationHours), r.DurationHours)
	fmt.Fprintf(&b, "  Fee:      %.2f", r.Fee)
	if r.Promoted != nil {
		fmt.Fprintf(&b, "\n  Slot handed to waitlisted %s (ticket %d)", r.Promoted.LicensePlate, r.Promoted.ID)
	}
	return b.String()
}

func formatHours(hours float64) string {
	return time.Duration(hours * float64(time.Hour)).Round(time.Second).String()
}
