package parking

import (
	"fmt"
	"sync"
	"time"
)

// Clock is the facility's time source.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Outcome is the non-error result of a facility operation.
type Outcome string

const (
	OutcomeParked     Outcome = "parked"
	OutcomeWaitlisted Outcome = "waitlisted"
	OutcomeSuccess    Outcome = "success"
	OutcomeFailed     Outcome = "failed"
)

type ParkResult struct {
	Outcome Outcome
	Vehicle Vehicle
	// Ticket is set when Outcome is OutcomeParked.
	Ticket Ticket
	// Position is the 1-based waitlist position when Outcome is OutcomeWaitlisted.
	Position int
}

type Receipt struct {
	Outcome       Outcome
	TicketID      TicketID
	LicensePlate  string
	Category      Category
	SlotID        int
	EntryTime     time.Time
	ExitTime      time.Time
	DurationHours float64
	Fee           float64
	// Promoted is the ticket issued to the waitlisted vehicle that took the
	// freed slot, if any.
	Promoted *Ticket
}

type ReserveResult struct {
	Outcome     Outcome
	Category    Category
	Reservation Reservation
}

type CancelResult struct {
	Outcome     Outcome
	ID          ReservationID
	Reservation Reservation
}

type CategoryAvailability struct {
	Category  Category
	Available int
	// Occupied counts every slot that is not free, reserved ones included.
	Occupied int
	Reserved int
	Total    int
	Waitlist int
}

// categoryState is everything guarded by one category lock.
type categoryState struct {
	mu       sync.Mutex
	pool     *SlotPool
	waitlist *Waitlist
}

// Facility admits, bills and reserves across the slot categories. Each
// category is locked independently; ledgers are only touched while the
// owning category's lock is held.
type Facility struct {
	clock        Clock
	fees         FeeCalculator
	capacities   map[Category]int
	categories   map[Category]*categoryState
	tickets      *TicketLedger
	reservations *ReservationLedger
	ticketSeq    sequence
	reserveSeq   sequence
}

type Option func(*Facility)

func WithClock(clock Clock) Option {
	return func(f *Facility) {
		f.clock = clock
	}
}

func WithRates(rates Rates) Option {
	return func(f *Facility) {
		f.fees = NewFeeCalculator(rates)
	}
}

// WithCapacities overrides the slot count of the given categories.
func WithCapacities(capacities map[Category]int) Option {
	return func(f *Facility) {
		for c, n := range capacities {
			if c.Valid() && n >= 0 {
				f.capacities[c] = n
			}
		}
	}
}

func NewFacility(opts ...Option) *Facility {
	f := &Facility{
		clock:        SystemClock,
		fees:         NewFeeCalculator(DefaultRates()),
		capacities:   make(map[Category]int, len(Categories)),
		categories:   make(map[Category]*categoryState, len(Categories)),
		tickets:      NewTicketLedger(),
		reservations: NewReservationLedger(),
	}
	for c, n := range DefaultCapacities {
		f.capacities[c] = n
	}

	for _, opt := range opts {
		opt(f)
	}

	for _, c := range Categories {
		f.categories[c] = &categoryState{
			pool:     NewSlotPool(c, f.capacities[c]),
			waitlist: NewWaitlist(c),
		}
	}

	return f
}

func (f *Facility) Rates() Rates {
	return f.fees.Rates()
}

func (f *Facility) Capacity(c Category) int {
	return f.capacities[c]
}

// Park admits a vehicle into the lowest free slot of its category, or appends
// it to that category's waitlist when every slot is taken.
func (f *Facility) Park(licensePlate, category string) (ParkResult, error) {
	const op = "parking.Park"

	c, err := ParseCategory(category)
	if err != nil {
		return ParkResult{}, fmt.Errorf("%s: %w", op, err)
	}
	vehicle := NewVehicle(licensePlate, c)

	cs := f.categories[c]
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := f.clock.Now()

	slot := cs.pool.FindFree()
	if slot == nil {
		cs.waitlist.Enqueue(WaitlistEntry{Vehicle: vehicle, EnqueuedAt: now})
		return ParkResult{
			Outcome:  OutcomeWaitlisted,
			Vehicle:  vehicle,
			Position: cs.waitlist.Len(),
		}, nil
	}

	return ParkResult{
		Outcome: OutcomeParked,
		Vehicle: vehicle,
		Ticket:  f.admit(cs, slot, vehicle, now),
	}, nil
}

// Exit releases the slot held by a ticket and bills the stay. If a vehicle is
// waiting for the same category it takes the freed slot before Exit returns.
func (f *Facility) Exit(id TicketID) (Receipt, error) {
	const op = "parking.Exit"

	ticket, ok := f.tickets.Get(id)
	if !ok {
		return Receipt{}, fmt.Errorf("%s: %w: %d", op, ErrInvalidTicket, id)
	}

	cs := f.categories[ticket.Category]
	cs.mu.Lock()
	defer cs.mu.Unlock()

	// a concurrent exit may have consumed the ticket before the lock was taken
	if _, ok := f.tickets.Get(id); !ok {
		return Receipt{}, fmt.Errorf("%s: %w: %d", op, ErrInvalidTicket, id)
	}

	slot, err := cs.pool.Slot(ticket.SlotID)
	must(op, err)
	occupancy, ok := slot.Occupancy()
	if !ok || occupancy.TicketID != id {
		panic(fmt.Errorf("%s: ticket %d does not hold %s slot %d: %w",
			op, id, ticket.Category, ticket.SlotID, ErrIllegalStateTransition))
	}

	now := f.clock.Now()
	charge, err := f.fees.Calculate(occupancy.EntryTime, now)
	if err != nil {
		return Receipt{}, fmt.Errorf("%s: ticket %d: %w", op, id, err)
	}

	_, err = cs.pool.Vacate(slot)
	must(op, err)
	f.tickets.Remove(id)

	receipt := Receipt{
		Outcome:       OutcomeSuccess,
		TicketID:      id,
		LicensePlate:  occupancy.LicensePlate,
		Category:      ticket.Category,
		SlotID:        slot.ID,
		EntryTime:     occupancy.EntryTime,
		ExitTime:      now,
		DurationHours: charge.DurationHours,
		Fee:           charge.Fee,
	}

	if entry, ok := cs.waitlist.Dequeue(); ok {
		promoted := f.admit(cs, slot, entry.Vehicle, now)
		receipt.Promoted = &promoted
	}

	return receipt, nil
}

// Reserve holds the lowest free slot of a category without occupying it.
func (f *Facility) Reserve(name, category, phone string) (ReserveResult, error) {
	const op = "parking.Reserve"

	c, err := ParseCategory(category)
	if err != nil {
		return ReserveResult{}, fmt.Errorf("%s: %w", op, err)
	}

	cs := f.categories[c]
	cs.mu.Lock()
	defer cs.mu.Unlock()

	slot := cs.pool.FindFree()
	if slot == nil {
		return ReserveResult{Outcome: OutcomeFailed, Category: c}, nil
	}

	info := ReservationInfo{
		ID:    ReservationID(f.reserveSeq.next()),
		Name:  name,
		Phone: phone,
	}
	must(op, cs.pool.Reserve(slot, info))

	reservation := Reservation{
		ID:       info.ID,
		Name:     name,
		Phone:    phone,
		Category: c,
		SlotID:   slot.ID,
	}
	f.reservations.Register(reservation)

	return ReserveResult{
		Outcome:     OutcomeSuccess,
		Category:    c,
		Reservation: reservation,
	}, nil
}

// CancelReservation frees a reserved slot. Waitlisted vehicles are not
// promoted into it; the next Park or Reserve call finds it.
func (f *Facility) CancelReservation(id ReservationID) CancelResult {
	const op = "parking.CancelReservation"

	reservation, ok := f.reservations.Get(id)
	if !ok {
		return CancelResult{Outcome: OutcomeFailed, ID: id}
	}

	cs := f.categories[reservation.Category]
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, ok := f.reservations.Get(id); !ok {
		return CancelResult{Outcome: OutcomeFailed, ID: id}
	}

	slot, err := cs.pool.Slot(reservation.SlotID)
	must(op, err)
	info, err := cs.pool.CancelReservation(slot)
	must(op, err)
	if info.ID != id {
		panic(fmt.Errorf("%s: reservation %d does not hold %s slot %d: %w",
			op, id, reservation.Category, reservation.SlotID, ErrIllegalStateTransition))
	}
	f.reservations.Remove(id)

	return CancelResult{
		Outcome:     OutcomeSuccess,
		ID:          id,
		Reservation: reservation,
	}
}

// Availability reports every category from its own snapshot.
func (f *Facility) Availability() map[Category]CategoryAvailability {
	out := make(map[Category]CategoryAvailability, len(Categories))
	for _, c := range Categories {
		out[c] = f.categoryAvailability(c)
	}
	return out
}

func (f *Facility) categoryAvailability(c Category) CategoryAvailability {
	cs := f.categories[c]
	cs.mu.Lock()
	defer cs.mu.Unlock()

	total := cs.pool.Capacity()
	available := cs.pool.Count(StatusFree)
	return CategoryAvailability{
		Category:  c,
		Available: available,
		Occupied:  total - available,
		Reserved:  cs.pool.Count(StatusReserved),
		Total:     total,
		Waitlist:  cs.waitlist.Len(),
	}
}

// Slots returns a copy of every slot of a category in id order.
func (f *Facility) Slots(category string) ([]Slot, error) {
	c, err := ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("parking.Slots: %w", err)
	}

	cs := f.categories[c]
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.pool.Snapshot(), nil
}

// FindTicket returns the active ticket of a parked vehicle.
func (f *Facility) FindTicket(licensePlate string) (Ticket, error) {
	t, ok := f.tickets.FindByPlate(licensePlate)
	if !ok {
		return Ticket{}, fmt.Errorf("parking.FindTicket: %w: no active ticket for %q", ErrInvalidTicket, licensePlate)
	}
	return t, nil
}

// WaitlistPosition returns the 1-based position of a plate in its category's
// queue, or 0 when it is not waiting.
func (f *Facility) WaitlistPosition(licensePlate, category string) (int, error) {
	c, err := ParseCategory(category)
	if err != nil {
		return 0, fmt.Errorf("parking.WaitlistPosition: %w", err)
	}

	cs := f.categories[c]
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.waitlist.Position(licensePlate), nil
}

// admit occupies slot with vehicle and issues its ticket. Callers hold cs.mu.
func (f *Facility) admit(cs *categoryState, slot *Slot, vehicle Vehicle, now time.Time) Ticket {
	ticket := Ticket{
		ID:           TicketID(f.ticketSeq.next()),
		Category:     vehicle.Category,
		SlotID:       slot.ID,
		LicensePlate: vehicle.LicensePlate,
		EntryTime:    now,
	}

	must("parking.admit", cs.pool.Occupy(slot, Occupancy{
		TicketID:     ticket.ID,
		LicensePlate: vehicle.LicensePlate,
		EntryTime:    now,
	}))
	f.tickets.Register(ticket)

	return ticket
}

// must panics on slot transition errors, which only occur when the ledgers
// and slot states disagree.
func must(op string, err error) {
	if err != nil {
		panic(fmt.Errorf("%s: %w", op, err))
	}
}
