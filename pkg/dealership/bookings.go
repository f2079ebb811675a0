package dealership

import (
	"fmt"
	"sync"
	"time"
)

// MemoryBookings implements Bookings with an append-only in-memory list.
type MemoryBookings struct {
	mu       sync.RWMutex
	bookings []Booking
}

// NewBookings creates an empty booking book.
func NewBookings() *MemoryBookings {
	return &MemoryBookings{}
}

// Add records a confirmed booking and assigns its ID.
func (m *MemoryBookings) Add(b *Booking) error {
	if b == nil {
		return fmt.Errorf("dealership: nil booking")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.bookings {
		if existing.At.Equal(b.At) {
			return fmt.Errorf("%w: %s", ErrSlotTaken, b.At.Format("2006-01-02 15:04"))
		}
	}

	// Booking IDs count up from TD1001.
	b.ID = fmt.Sprintf("TD%d", 1001+len(m.bookings))
	if b.Status == "" {
		b.Status = "Confirmed"
	}
	m.bookings = append(m.bookings, *b)
	return nil
}

// ByTime returns the booking occupying the exact slot, if any.
func (m *MemoryBookings) ByTime(at time.Time) (Booking, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.bookings {
		if b.At.Equal(at) {
			return b, true
		}
	}
	return Booking{}, false
}

// List returns all bookings in insertion order.
func (m *MemoryBookings) List() []Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Booking, len(m.bookings))
	copy(out, m.bookings)
	return out
}

// Count returns the number of bookings.
func (m *MemoryBookings) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}
