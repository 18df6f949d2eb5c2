package parking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatReceipt(t *testing.T) {
	entry := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	r := Receipt{
		Outcome:       OutcomeSuccess,
		TicketID:      3,
		LicensePlate:  "KA-01",
		Category:      Regular,
		SlotID:        2,
		EntryTime:     entry,
		ExitTime:      entry.Add(5*time.Hour + 30*time.Minute),
		DurationHours: 5.5,
		Fee:           225,
	}

	out := FormatReceipt(r)
	assert.Equal(t, strings.Join([]string{
		"Receipt for ticket 3",
		"  Vehicle:  KA-01",
		"  Slot:     regular 2",
		"  Entry:    2025-03-01 09:00:00",
		"  Exit:     2025-03-01 14:30:00",
		"  Duration: 5h30m0s (5.50 h)",
		"  Fee:      225.00",
	}, "\n"), out)

	r.Promoted = &Ticket{ID: 4, LicensePlate: "KA-02"}
	assert.True(t, strings.HasSuffix(FormatReceipt(r), "Slot handed to waitlisted KA-02 (ticket 4)"))
}
