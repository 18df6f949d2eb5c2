package parking

import "time"

type SlotStatus string

const (
	StatusFree     SlotStatus = "free"
	StatusOccupied SlotStatus = "occupied"
	StatusReserved SlotStatus = "reserved"
)

// Occupancy is the data a slot holds while a vehicle is parked in it.
type Occupancy struct {
	TicketID     TicketID
	LicensePlate string
	EntryTime    time.Time
}

// ReservationInfo is the data a slot holds while it is reserved.
type ReservationInfo struct {
	ID    ReservationID
	Name  string
	Phone string
}

// slotState is one of freeState, Occupancy or ReservationInfo. Holding exactly one
// value makes Occupied and Reserved mutually exclusive.
type slotState interface {
	status() SlotStatus
}

type freeState struct{}

func (freeState) status() SlotStatus       { return StatusFree }
func (Occupancy) status() SlotStatus       { return StatusOccupied }
func (ReservationInfo) status() SlotStatus { return StatusReserved }

type Slot struct {
	Category Category
	ID       int
	state    slotState
}

func NewSlot(category Category, id int) *Slot {
	return &Slot{
		Category: category,
		ID:       id,
		state:    freeState{},
	}
}

func (s *Slot) Status() SlotStatus {
	return s.state.status()
}

func (s *Slot) Occupancy() (Occupancy, bool) {
	o, ok := s.state.(Occupancy)
	return o, ok
}

func (s *Slot) Reservation() (ReservationInfo, bool) {
	r, ok := s.state.(ReservationInfo)
	return r, ok
}

func (s *Slot) Occupy(o Occupancy) error {
	if s.Status() != StatusFree {
		return s.transitionError("occupy")
	}
	s.state = o
	return nil
}

func (s *Slot) Vacate() (Occupancy, error) {
	o, ok := s.Occupancy()
	if !ok {
		return Occupancy{}, s.transitionError("vacate")
	}
	s.state = freeState{}
	return o, nil
}

func (s *Slot) Reserve(info ReservationInfo) error {
	if s.Status() != StatusFree {
		return s.transitionError("reserve")
	}
	s.state = info
	return nil
}

func (s *Slot) CancelReservation() (ReservationInfo, error) {
	info, ok := s.Reservation()
	if !ok {
		return ReservationInfo{}, s.transitionError("cancel reservation")
	}
	s.state = freeState{}
	return info, nil
}

func (s *Slot) transitionError(op string) error {
	return &TransitionError{
		Op:       op,
		Category: s.Category,
		SlotID:   s.ID,
		From:     s.Status(),
	}
}
