// Package dealership holds the showroom's business domain: the car
// inventory, the test-drive booking book, and the tools the voice agent
// uses to act on them.
//
// Business data lives behind the Inventory and Bookings interfaces so the
// in-memory stores used here can be swapped for a real persistence layer
// without touching the agent.
package dealership

import (
	"errors"
	"time"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a car or booking does not exist.
	ErrNotFound = errors.New("dealership: not found")

	// ErrSlotTaken is returned when a test-drive slot is already booked.
	ErrSlotTaken = errors.New("dealership: slot already booked")

	// ErrOutsideHours is returned for slots outside business hours.
	ErrOutsideHours = errors.New("dealership: outside business hours")
)

// Car is one vehicle in the showroom catalog.
type Car struct {
	ID           string   `json:"id"`
	Model        string   `json:"model"`
	Type         string   `json:"type"`
	Price        float64  `json:"price"`
	Year         int      `json:"year"`
	Fuel         string   `json:"fuel_type"`
	Seats        int      `json:"seating"`
	Availability string   `json:"availability"`
	Features     []string `json:"features,omitempty"`
}

// InStock reports whether the car can be shown or test-driven.
func (c Car) InStock() bool {
	return c.Availability == "In Stock" || c.Availability == "Limited Stock"
}

// Inventory is read access to the car catalog.
type Inventory interface {
	// CarsByType returns all cars of a category (sedan, suv, hatchback,
	// electric, luxury). Returns ErrNotFound for unknown categories.
	CarsByType(carType string) ([]Car, error)

	// CarByModel finds a car by case-insensitive substring model match.
	CarByModel(name string) (Car, error)

	// Available returns every car that is in stock.
	Available() []Car

	// Types lists the known categories.
	Types() []string
}

// Booking is one confirmed test-drive reservation.
type Booking struct {
	ID           string    `json:"booking_id"`
	CustomerName string    `json:"customer_name"`
	CarModel     string    `json:"car_model"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	At           time.Time `json:"datetime"`
	Status       string    `json:"status"`
}

// Bookings is the append-only test-drive booking book.
type Bookings interface {
	// Add records a confirmed booking and assigns its ID.
	Add(b *Booking) error

	// ByTime returns the booking occupying the exact slot, if any.
	ByTime(at time.Time) (Booking, bool)

	// List returns all bookings in insertion order.
	List() []Booking

	// Count returns the number of bookings.
	Count() int
}
