package usecase

import (
	"strings"

	"railbooker/internal/domain/entity"
	"railbooker/pkg/logger"
)

// SeatMatcher picks candidate seats out of a live seat layout according to
// the user's coach and seat-number preferences.
type SeatMatcher struct {
	logger logger.Logger
}

// NewSeatMatcher creates a new seat matcher
func NewSeatMatcher(log logger.Logger) *SeatMatcher {
	return &SeatMatcher{logger: log}
}

// FindAvailable walks coaches in document order (restricted to
// preferredCoaches when given), rows then cells in document order, and
// collects available seats whose number suffix passes the preferredSeats
// filter. It stops at needed seats; fewer is not an error at this layer.
// The result is deterministic for a given layout and filters.
func (m *SeatMatcher) FindAvailable(coaches []entity.Coach, needed int, preferredCoaches, preferredSeats []string) []entity.CandidateSeat {
	if needed <= 0 || len(coaches) == 0 {
		return nil
	}

	var coachSet map[string]bool
	if len(preferredCoaches) > 0 {
		coachSet = make(map[string]bool, len(preferredCoaches))
		for _, name := range preferredCoaches {
			coachSet[strings.ToUpper(strings.TrimSpace(name))] = true
		}
	}

	var seatSet map[string]bool
	if len(preferredSeats) > 0 {
		seatSet = make(map[string]bool, len(preferredSeats))
		for _, num := range preferredSeats {
			seatSet[strings.TrimSpace(num)] = true
		}
	}

	if coachSet != nil || seatSet != nil {
		m.logger.Info("Searching seats with preferences",
			"needed", needed,
			"coaches", preferredCoaches,
			"seatNumbers", preferredSeats)
	} else {
		m.logger.Info("Searching for any available seats", "needed", needed)
	}

	var found []entity.CandidateSeat
	for _, coach := range coaches {
		if coachSet != nil && !coachSet[strings.ToUpper(strings.TrimSpace(coach.FloorName))] {
			continue
		}
		for _, row := range coach.Layout {
			for _, seat := range row {
				if seat == nil || !bool(seat.SeatAvailability) {
					continue
				}
				seatNumber := strings.TrimSpace(seat.SeatNumber)
				if seatNumber == "" {
					continue
				}
				if seatSet != nil && !seatSet[seatSuffix(seatNumber)] {
					continue
				}
				found = append(found, entity.CandidateSeat{
					TicketID:   seat.TicketID,
					SeatNumber: seatNumber,
					Coach:      coach.FloorName,
				})
				if len(found) >= needed {
					return found
				}
			}
		}
	}
	return found
}

// seatSuffix returns the numeric part after the last '-' of a seat number
// string like "UMA-12". Numbers without a dash pass through whole.
func seatSuffix(seatNumber string) string {
	if i := strings.LastIndex(seatNumber, "-"); i >= 0 {
		return strings.TrimSpace(seatNumber[i+1:])
	}
	return seatNumber
}
