package entity

import (
	"sync"
)

// State names one stage of the booking flow.
type State string

const (
	StateSigningIn            State = "SigningIn"
	StateSearching            State = "Searching"
	StateSelectingTrip        State = "SelectingTrip"
	StateMatchingSeats        State = "MatchingSeats"
	StateReserving            State = "Reserving"
	StateAwaitingOTP          State = "AwaitingOTP"
	StateCollectingPassengers State = "CollectingPassengers"
	StateReviewing            State = "Reviewing"
	StateConfirming           State = "Confirming"
	StateDone                 State = "Done"
	StateFailed               State = "Failed"
)

// BookingPayload is the immutable payload sent to trigger and verify the
// OTP: the chosen trip plus every successfully reserved ticket.
type BookingPayload struct {
	TripID      int64   `json:"trip_id"`
	TripRouteID int64   `json:"trip_route_id"`
	TicketIDs   []int64 `json:"ticket_ids"`
}

// BookingTransaction is the only mutable shared state of a run. Reservation
// workers append to the reserved set concurrently; rollback drains it.
type BookingTransaction struct {
	State         State
	Token         string
	Trip          *Trip
	Seats         []CandidateSeat
	Payload       *BookingPayload
	OTP           string
	MainPassenger *User
	Passengers    PassengerDetails

	mu       sync.Mutex
	reserved []int64
}

// AddReserved records a successfully reserved ticket. Safe for concurrent
// use by reservation workers.
func (tx *BookingTransaction) AddReserved(ticketID int64) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.reserved = append(tx.reserved, ticketID)
}

// RemoveReserved drops a ticket from the rollback set after an explicit
// release call succeeded. The set never shrinks any other way.
func (tx *BookingTransaction) RemoveReserved(ticketID int64) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	for i, id := range tx.reserved {
		if id == ticketID {
			tx.reserved = append(tx.reserved[:i], tx.reserved[i+1:]...)
			return
		}
	}
}

// Reserved returns a snapshot of the current rollback set.
func (tx *BookingTransaction) Reserved() []int64 {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	out := make([]int64, len(tx.reserved))
	copy(out, tx.reserved)
	return out
}

// HasReservations reports whether any seat is currently held.
func (tx *BookingTransaction) HasReservations() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return len(tx.reserved) > 0
}
