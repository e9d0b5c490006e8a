package usecase

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"railbooker/internal/domain/entity"
	"railbooker/internal/domain/repository"
	"railbooker/internal/infrastructure/config"
	"railbooker/pkg/logger"
	"railbooker/pkg/metrics"
)

// BookingOrchestrator sequences the whole booking transaction: sign-in,
// search, trip selection, reservation, OTP, passenger collection and
// confirmation. It owns the transaction state and runs the compensating
// rollback when anything fails after seats were taken.
type BookingOrchestrator struct {
	cfg          *config.Config
	api          repository.BookingAPI
	prompter     repository.Prompter
	selector     *TripSelector
	reservations *ReservationCoordinator
	otp          *OTPVerifier
	metrics      *metrics.Metrics
	logger       logger.Logger
}

// NewBookingOrchestrator creates a new booking orchestrator
func NewBookingOrchestrator(
	cfg *config.Config,
	api repository.BookingAPI,
	prompter repository.Prompter,
	selector *TripSelector,
	reservations *ReservationCoordinator,
	otp *OTPVerifier,
	m *metrics.Metrics,
	log logger.Logger,
) *BookingOrchestrator {
	return &BookingOrchestrator{
		cfg:          cfg,
		api:          api,
		prompter:     prompter,
		selector:     selector,
		reservations: reservations,
		otp:          otp,
		metrics:      m,
		logger:       log,
	}
}

// Run executes one booking attempt and returns the payment redirect URL.
// Any failure after at least one successful reservation triggers the
// rollback before the error surfaces; a user abort before reservation is
// a clean stop with nothing to release.
func (o *BookingOrchestrator) Run(ctx context.Context) (string, error) {
	tx := &entity.BookingTransaction{}

	redirectURL, err := o.run(ctx, tx)
	if err != nil {
		o.transition(tx, entity.StateFailed)
		if tx.HasReservations() {
			// Release must still work when the run context was the
			// thing that failed (e.g. SIGINT).
			o.rollback(context.WithoutCancel(ctx), tx)
		}
		return "", err
	}
	return redirectURL, nil
}

func (o *BookingOrchestrator) run(ctx context.Context, tx *entity.BookingTransaction) (string, error) {
	o.transition(tx, entity.StateSigningIn)
	o.logger.Info("Signing in", "mobile", o.cfg.Mobile)
	token, err := o.api.SignIn(ctx, o.cfg.Mobile, o.cfg.Password)
	if err != nil {
		return "", fmt.Errorf("sign-in: %w", err)
	}
	tx.Token = token
	o.logger.Info("Signed in")

	o.transition(tx, entity.StateSearching)
	o.logger.Info("Searching trips",
		"from", o.cfg.FromCity,
		"to", o.cfg.ToCity,
		"date", o.cfg.DateOfJourney)
	trains, err := o.api.SearchTrips(ctx, token, o.cfg.FromCity, o.cfg.ToCity, o.cfg.DateOfJourney, o.cfg.SeatClass)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	if len(trains) == 0 {
		return "", &entity.InsufficientResultsError{
			Op:      "search",
			Needed:  o.cfg.NeedSeats,
			Reasons: []string{"no trains found for this route"},
		}
	}

	if len(o.cfg.TrainNames) > 0 {
		o.logger.Info("Filtering trains by name", "names", o.cfg.TrainNames)
		trains = o.selector.FilterByName(trains, o.cfg.TrainNames)
		if len(trains) == 0 {
			return "", &entity.InsufficientResultsError{
				Op:      "train filter",
				Needed:  o.cfg.NeedSeats,
				Reasons: []string{fmt.Sprintf("no train matches %q", strings.Join(o.cfg.TrainNames, ", "))},
			}
		}
	}

	o.transition(tx, entity.StateSelectingTrip)
	o.transition(tx, entity.StateMatchingSeats)
	selected, err := o.selector.SelectByProbing(ctx, token, trains, o.cfg.SeatClass, o.cfg.NeedSeats, o.cfg.PreferredCoaches, o.cfg.PreferredSeats)
	if err != nil {
		return "", err
	}
	tx.Trip = selected.Trip
	tx.Seats = selected.Seats
	o.logger.Info("Selected trip",
		"train", tx.Trip.TrainLabel,
		"seats", entity.SeatNumbers(tx.Seats))

	answer, err := o.prompter.Ask(fmt.Sprintf(
		"Found %d seat(s) on %q: %s. Proceed with reservation? (yes/no): ",
		len(tx.Seats), tx.Trip.TrainLabel, entity.SeatNumbers(tx.Seats)))
	if err != nil {
		return "", err
	}
	if !isYes(answer) {
		return "", &entity.UserAbort{Checkpoint: "reservation"}
	}

	o.transition(tx, entity.StateReserving)
	results, err := o.reservations.ReserveAll(ctx, tx, tx.Seats, o.cfg.NeedSeats)
	if err != nil {
		return "", err
	}
	// The OTP payload must name exactly the tickets that were reserved.
	tx.Payload = &entity.BookingPayload{
		TripID:      tx.Trip.TripID,
		TripRouteID: tx.Trip.TripRouteID,
		TicketIDs:   SuccessfulTickets(results),
	}

	o.transition(tx, entity.StateAwaitingOTP)
	msg, err := o.api.SendPassengerDetails(ctx, token, tx.Payload)
	if err != nil {
		return "", fmt.Errorf("triggering OTP: %w", err)
	}
	o.logger.Info("OTP sent to your phone", "message", msg)

	user, otp, err := o.otp.Verify(ctx, token, tx.Payload)
	if err != nil {
		return "", fmt.Errorf("OTP verification: %w", err)
	}
	tx.MainPassenger = user
	tx.OTP = otp

	o.transition(tx, entity.StateCollectingPassengers)
	tx.Passengers.Add(user.Name, "Adult", "male")
	if err := o.collectExtraPassengers(tx); err != nil {
		return "", err
	}

	o.transition(tx, entity.StateReviewing)
	o.prompter.Say(o.reviewBlock(tx))
	answer, err = o.prompter.Ask("Proceed to payment? (yes/no): ")
	if err != nil {
		return "", err
	}
	if !isYes(answer) {
		return "", &entity.UserAbort{Checkpoint: "payment"}
	}

	o.transition(tx, entity.StateConfirming)
	o.logger.Info("Confirming booking to get payment link")
	confirmReq := entity.NewConfirmRequest(tx, o.cfg.SeatClass, o.cfg.FromCity, o.cfg.ToCity, o.cfg.DateOfJourney)
	redirectURL, err := o.api.Confirm(ctx, token, confirmReq)
	if err != nil {
		return "", fmt.Errorf("confirm: %w", err)
	}

	o.transition(tx, entity.StateDone)
	o.logger.Info("Booking confirmed")
	return redirectURL, nil
}

// collectExtraPassengers prompts for everyone beyond the verified account
// holder, one entry per remaining seat.
func (o *BookingOrchestrator) collectExtraPassengers(tx *entity.BookingTransaction) error {
	extra := o.cfg.NeedSeats - 1
	if extra <= 0 {
		return nil
	}
	o.prompter.Say(fmt.Sprintf("Please enter details for the other %d passenger(s).", extra))
	for i := 2; i <= o.cfg.NeedSeats; i++ {
		name, err := o.prompter.Ask(fmt.Sprintf("  - Passenger %d Name: ", i))
		if err != nil {
			return err
		}
		ptype, err := o.prompter.Ask(fmt.Sprintf("  - Passenger %d Type (Adult/Child): ", i))
		if err != nil {
			return err
		}
		gender, err := o.prompter.Ask(fmt.Sprintf("  - Passenger %d Gender (Male/Female): ", i))
		if err != nil {
			return err
		}
		tx.Passengers.Add(name, ptype, gender)
	}
	return nil
}

func (o *BookingOrchestrator) reviewBlock(tx *entity.BookingTransaction) string {
	var b strings.Builder
	b.WriteString("\n===== PLEASE REVIEW YOUR BOOKING DETAILS =====\n")
	fmt.Fprintf(&b, "Train:         %s\n", tx.Trip.TrainLabel)
	fmt.Fprintf(&b, "From:          %s\n", o.cfg.FromCity)
	fmt.Fprintf(&b, "To:            %s\n", o.cfg.ToCity)
	fmt.Fprintf(&b, "Date:          %s\n", o.cfg.DateOfJourney)
	fmt.Fprintf(&b, "Class:         %s\n", o.cfg.SeatClass)
	fmt.Fprintf(&b, "Total Seats:   %d\n", len(tx.Seats))
	fmt.Fprintf(&b, "Seat Numbers:  %s\n", entity.SeatNumbers(tx.Seats))
	b.WriteString("\nPassengers:\n")
	for i, name := range tx.Passengers.Names {
		fmt.Fprintf(&b, "  - %s (%s, %s)\n", name, tx.Passengers.Types[i], tx.Passengers.Genders[i])
	}
	return b.String()
}

// rollback releases every ticket currently held, concurrently and
// best-effort. Release failures are logged, never escalated, so the
// original error always survives. Skipped with a reason when the trip is
// unknown because the release route id cannot be built.
func (o *BookingOrchestrator) rollback(ctx context.Context, tx *entity.BookingTransaction) {
	reserved := tx.Reserved()
	if len(reserved) == 0 {
		return
	}
	if tx.Trip == nil {
		o.logger.Warn("Skipping rollback, chosen trip unknown",
			"tickets", len(reserved))
		return
	}

	o.logger.Warn("Rolling back reserved seats", "tickets", len(reserved))

	g := &errgroup.Group{}
	g.SetLimit(workerLimit(len(reserved)))
	for _, ticketID := range reserved {
		ticketID := ticketID
		g.Go(func() error {
			if err := o.api.ReleaseSeat(ctx, tx.Token, ticketID, tx.Trip.TripRouteID); err != nil {
				o.logger.Error("Seat release failed",
					"ticketId", ticketID,
					"error", err)
				return nil
			}
			tx.RemoveReserved(ticketID)
			o.metrics.SeatsReleased.Inc()
			o.logger.Info("Seat released", "ticketId", ticketID)
			return nil
		})
	}
	g.Wait()
}

func (o *BookingOrchestrator) transition(tx *entity.BookingTransaction, state entity.State) {
	tx.State = state
	o.logger.Debug("State transition", "state", string(state))
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true
	}
	return false
}
