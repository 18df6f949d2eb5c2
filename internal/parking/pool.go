package parking

import "fmt"

// SlotPool owns the fixed set of slots of one category. It is not safe for
// concurrent use; Facility serialises access per category.
type SlotPool struct {
	category Category
	slots    []*Slot
}

func NewSlotPool(category Category, capacity int) *SlotPool {
	slots := make([]*Slot, capacity)
	for i := 0; i < capacity; i++ {
		slots[i] = NewSlot(category, i+1)
	}

	return &SlotPool{
		category: category,
		slots:    slots,
	}
}

func (p *SlotPool) Category() Category {
	return p.category
}

func (p *SlotPool) Capacity() int {
	return len(p.slots)
}

// FindFree returns the free slot with the lowest id, or nil when none is free.
func (p *SlotPool) FindFree() *Slot {
	for _, slot := range p.slots {
		if slot.Status() == StatusFree {
			return slot
		}
	}
	return nil
}

func (p *SlotPool) Slot(id int) (*Slot, error) {
	if id < 1 || id > len(p.slots) {
		return nil, fmt.Errorf("%s slot %d does not exist", p.category, id)
	}
	return p.slots[id-1], nil
}

func (p *SlotPool) Occupy(slot *Slot, o Occupancy) error {
	return slot.Occupy(o)
}

func (p *SlotPool) Vacate(slot *Slot) (Occupancy, error) {
	return slot.Vacate()
}

func (p *SlotPool) Reserve(slot *Slot, info ReservationInfo) error {
	return slot.Reserve(info)
}

func (p *SlotPool) CancelReservation(slot *Slot) (ReservationInfo, error) {
	return slot.CancelReservation()
}

// Count returns how many slots currently have the given status.
func (p *SlotPool) Count(status SlotStatus) int {
	n := 0
	for _, slot := range p.slots {
		if slot.Status() == status {
			n++
		}
	}
	return n
}

// Snapshot copies every slot in ascending id order.
func (p *SlotPool) Snapshot() []Slot {
	out := make([]Slot, len(p.slots))
	for i, slot := range p.slots {
		out[i] = *slot
	}
	return out
}
