package parking

import (
	"sync"
	"sync/atomic"
	"time"
)

type TicketID int64

type ReservationID int64

// sequence hands out ids starting at 1. Tickets and reservations each own one,
// so a ticket id can never be mistaken for a reservation id.
type sequence struct {
	last atomic.Int64
}

func (s *sequence) next() int64 {
	return s.last.Add(1)
}

type Ticket struct {
	ID           TicketID
	Category     Category
	SlotID       int
	LicensePlate string
	EntryTime    time.Time
}

type Reservation struct {
	ID       ReservationID
	Name     string
	Phone    string
	Category Category
	SlotID   int
}

// TicketLedger maps active tickets to the slot they occupy.
type TicketLedger struct {
	mu      sync.RWMutex
	tickets map[TicketID]Ticket
}

func NewTicketLedger() *TicketLedger {
	return &TicketLedger{tickets: make(map[TicketID]Ticket)}
}

func (l *TicketLedger) Register(t Ticket) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tickets[t.ID] = t
}

func (l *TicketLedger) Get(id TicketID) (Ticket, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.tickets[id]
	return t, ok
}

func (l *TicketLedger) Remove(id TicketID) (Ticket, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tickets[id]
	if ok {
		delete(l.tickets, id)
	}
	return t, ok
}

// FindByPlate returns the active ticket for a license plate.
func (l *TicketLedger) FindByPlate(licensePlate string) (Ticket, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.tickets {
		if t.LicensePlate == licensePlate {
			return t, true
		}
	}
	return Ticket{}, false
}

func (l *TicketLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tickets)
}

// ReservationLedger maps active reservations to the slot they hold.
type ReservationLedger struct {
	mu           sync.RWMutex
	reservations map[ReservationID]Reservation
}

func NewReservationLedger() *ReservationLedger {
	return &ReservationLedger{reservations: make(map[ReservationID]Reservation)}
}

func (l *ReservationLedger) Register(r Reservation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reservations[r.ID] = r
}

func (l *ReservationLedger) Get(id ReservationID) (Reservation, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.reservations[id]
	return r, ok
}

func (l *ReservationLedger) Remove(id ReservationID) (Reservation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.reservations[id]
	if ok {
		delete(l.reservations, id)
	}
	return r, ok
}

func (l *ReservationLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.reservations)
}
