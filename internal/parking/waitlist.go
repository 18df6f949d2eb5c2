package parking

import "time"

type WaitlistEntry struct {
	Vehicle    Vehicle
	EnqueuedAt time.Time
}

// Waitlist is the FIFO queue of vehicles deferred for one category.
type Waitlist struct {
	category Category
	entries  []WaitlistEntry
}

func NewWaitlist(category Category) *Waitlist {
	return &Waitlist{category: category}
}

func (w *Waitlist) Enqueue(entry WaitlistEntry) {
	w.entries = append(w.entries, entry)
}

// Dequeue removes and returns the earliest entry.
func (w *Waitlist) Dequeue() (WaitlistEntry, bool) {
	if len(w.entries) == 0 {
		return WaitlistEntry{}, false
	}
	entry := w.entries[0]
	w.entries[0] = WaitlistEntry{}
	w.entries = w.entries[1:]
	return entry, true
}

func (w *Waitlist) Len() int {
	return len(w.entries)
}

// Position returns the 1-based queue position of a plate, or 0.
func (w *Waitlist) Position(licensePlate string) int {
	for i, entry := range w.entries {
		if entry.Vehicle.LicensePlate == licensePlate {
			return i + 1
		}
	}
	return 0
}
