package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Train is one route offering from the search endpoint. A train advertises
// one SeatTypeOffer per seat class; the offer carries the addressing pair
// for every later call about that trip.
type Train struct {
	TripNumber     string          `json:"trip_number"`
	TrainModel     string          `json:"train_model"`
	SeatTypes      []SeatTypeOffer `json:"seat_types"`
	BoardingPoints []BoardingPoint `json:"boarding_points"`
}

// Label returns the display name of the train, falling back to the model.
func (t *Train) Label() string {
	if t.TripNumber != "" {
		return t.TripNumber
	}
	return t.TrainModel
}

// OfferFor finds the seat-type entry matching class (case-insensitive).
func (t *Train) OfferFor(seatClass string) *SeatTypeOffer {
	for i := range t.SeatTypes {
		if strings.EqualFold(t.SeatTypes[i].Type, seatClass) {
			return &t.SeatTypes[i]
		}
	}
	return nil
}

type SeatTypeOffer struct {
	Type        string     `json:"type"`
	TripID      int64      `json:"trip_id"`
	TripRouteID int64      `json:"trip_route_id"`
	SeatCounts  SeatCounts `json:"seat_counts"`
}

// SeatCounts holds advertised availability. The server is not consistent
// about the JSON type of the count, so it is kept as a json.Number.
type SeatCounts struct {
	Online json.Number `json:"online"`
}

// OnlineCount returns the advertised online seat count, 0 when absent or
// unparseable.
func (s SeatCounts) OnlineCount() int {
	n, err := strconv.Atoi(strings.TrimSpace(s.Online.String()))
	if err != nil {
		return 0
	}
	return n
}

type BoardingPoint struct {
	TripPointID  int64  `json:"trip_point_id"`
	LocationName string `json:"location_name"`
}

// Trip is the orchestrator's record of the chosen train: the addressing
// pair plus what the confirm payload needs.
type Trip struct {
	TripID          int64
	TripRouteID     int64
	TrainLabel      string
	BoardingPointID int64
}

// TripFromTrain builds a Trip from a search result and the matching offer.
func TripFromTrain(t *Train, offer *SeatTypeOffer) *Trip {
	trip := &Trip{
		TripID:      offer.TripID,
		TripRouteID: offer.TripRouteID,
		TrainLabel:  t.Label(),
	}
	if len(t.BoardingPoints) > 0 {
		trip.BoardingPointID = t.BoardingPoints[0].TripPointID
	}
	return trip
}

// Coach is one car of the seat layout: a name and a 2-D grid of cells.
// Cells may be null in the wire format.
type Coach struct {
	FloorName string        `json:"floor_name"`
	Layout    [][]*SeatCell `json:"layout"`
}

type SeatCell struct {
	TicketID         int64      `json:"ticket_id"`
	SeatNumber       string     `json:"seat_number"`
	SeatAvailability TruthyFlag `json:"seat_availability"`
}

// TruthyFlag coerces the server's availability flag, which arrives as
// true, 1 or "1" depending on the endpoint revision.
type TruthyFlag bool

func (f *TruthyFlag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1", `"1"`:
		*f = true
	default:
		*f = false
	}
	return nil
}

// CandidateSeat is the unit of selection and reservation.
type CandidateSeat struct {
	TicketID   int64
	SeatNumber string
	Coach      string
}

// SeatNumbers joins the seat numbers of seats for display.
func SeatNumbers(seats []CandidateSeat) string {
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = s.SeatNumber
	}
	return strings.Join(parts, ", ")
}

// ReservationResult is the per-ticket outcome of the reservation fan-out,
// the unit of rollback accounting.
type ReservationResult struct {
	TicketID   int64
	SeatNumber string
	OK         bool
	Status     int
	Reason     string
	Detail     json.RawMessage
}

// User is the authenticated main passenger returned by OTP verification.
type User struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

// PassengerDetails are parallel sequences, one entry per seat; index 0 is
// always the OTP-verified account holder.
type PassengerDetails struct {
	Names   []string
	Types   []string
	Genders []string
}

// Count returns the number of passengers collected so far.
func (p *PassengerDetails) Count() int { return len(p.Names) }

// Add appends one passenger, applying the server's defaults for empty
// type and gender.
func (p *PassengerDetails) Add(name, ptype, gender string) {
	if strings.TrimSpace(ptype) == "" {
		ptype = "Adult"
	}
	gender = strings.ToLower(strings.TrimSpace(gender))
	if gender == "" {
		gender = "male"
	}
	p.Names = append(p.Names, name)
	p.Types = append(p.Types, ptype)
	p.Genders = append(p.Genders, gender)
}
