package usecase

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"railbooker/internal/domain/entity"
	"railbooker/internal/domain/repository"
	"railbooker/pkg/logger"
	"railbooker/pkg/metrics"
)

// maxFailureReasons caps how many per-ticket failure causes go into the
// terminal error message; the full structured results stay available.
const maxFailureReasons = 3

// ReservationCoordinator reserves a set of seats concurrently and
// accounts for partial success. Every successful hold is added to the
// transaction's rollback set immediately, so a later failure can always
// release exactly what was taken.
type ReservationCoordinator struct {
	api     repository.BookingAPI
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewReservationCoordinator creates a new reservation coordinator
func NewReservationCoordinator(api repository.BookingAPI, m *metrics.Metrics, log logger.Logger) *ReservationCoordinator {
	return &ReservationCoordinator{
		api:     api,
		metrics: m,
		logger:  log,
	}
}

// ReserveAll issues one reservation per seat with a bounded worker count.
// A failed ticket never cancels the others; outcomes are correlated by
// ticket id, not completion order. It returns all results and an
// *entity.InsufficientResultsError when successes fall short of needed —
// the caller owns the rollback of the tickets that did succeed.
func (rc *ReservationCoordinator) ReserveAll(ctx context.Context, tx *entity.BookingTransaction, seats []entity.CandidateSeat, needed int) ([]entity.ReservationResult, error) {
	results := make([]entity.ReservationResult, len(seats))

	g := &errgroup.Group{}
	g.SetLimit(workerLimit(len(seats)))

	for i := range seats {
		i, seat := i, seats[i]
		g.Go(func() error {
			err := rc.api.ReserveSeat(ctx, tx.Token, seat.TicketID, tx.Trip.TripRouteID)
			result := entity.ReservationResult{
				TicketID:   seat.TicketID,
				SeatNumber: seat.SeatNumber,
				OK:         err == nil,
			}
			if err != nil {
				result.Reason = err.Error()
				var appErr *entity.ApplicationError
				if errors.As(err, &appErr) {
					result.Status = appErr.Status
					result.Detail = appErr.Detail
				}
				rc.logger.Warn("Seat reservation failed",
					"ticketId", seat.TicketID,
					"seat", seat.SeatNumber,
					"error", err)
			} else {
				tx.AddReserved(seat.TicketID)
				rc.metrics.SeatsReserved.Inc()
				rc.logger.Info("Seat reserved",
					"ticketId", seat.TicketID,
					"seat", seat.SeatNumber)
			}
			results[i] = result
			return nil
		})
	}
	g.Wait()

	successes := SuccessfulTickets(results)
	if len(successes) < needed {
		var reasons []string
		var detail []byte
		for _, r := range results {
			if r.OK {
				continue
			}
			if len(reasons) < maxFailureReasons {
				reasons = append(reasons, fmt.Sprintf("ticket %d: %s", r.TicketID, r.Reason))
			}
			if detail == nil && r.Detail != nil {
				detail = r.Detail
			}
		}
		return results, &entity.InsufficientResultsError{
			Op:      "reservation",
			Needed:  needed,
			Found:   len(successes),
			Reasons: reasons,
			Detail:  detail,
		}
	}

	rc.logger.Info("Reservation complete",
		"reserved", len(successes),
		"needed", needed)
	return results, nil
}

// SuccessfulTickets extracts the ticket ids that were actually reserved,
// in the order the seats were submitted.
func SuccessfulTickets(results []entity.ReservationResult) []int64 {
	var out []int64
	for _, r := range results {
		if r.OK {
			out = append(out, r.TicketID)
		}
	}
	return out
}
