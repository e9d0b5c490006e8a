package repository

import (
	"context"

	"railbooker/internal/domain/entity"
)

// BookingAPI defines the calls the booking flow makes against the railway
// e-ticket service. Implementations return *entity.NetworkError for
// connection failures and timeouts, and *entity.ApplicationError when the
// server answers with an error status or an error flag in the body.
type BookingAPI interface {
	// SignIn exchanges credentials for a bearer token.
	SignIn(ctx context.Context, mobile, password string) (string, error)

	// SearchTrips lists route offerings for a journey.
	SearchTrips(ctx context.Context, token, fromCity, toCity, date, seatClass string) ([]entity.Train, error)

	// SeatLayout fetches the live coach/seat grid for a trip.
	SeatLayout(ctx context.Context, token string, tripID, tripRouteID int64) ([]entity.Coach, error)

	// ReserveSeat holds one seat. The hold is released by ReleaseSeat or
	// by the server-side expiry.
	ReserveSeat(ctx context.Context, token string, ticketID, routeID int64) error

	// ReleaseSeat returns a held seat to availability.
	ReleaseSeat(ctx context.Context, token string, ticketID, routeID int64) error

	// SendPassengerDetails triggers the OTP send and returns the server's
	// status message.
	SendPassengerDetails(ctx context.Context, token string, payload *entity.BookingPayload) (string, error)

	// VerifyOTP submits the passcode and returns the authenticated main
	// passenger on success.
	VerifyOTP(ctx context.Context, token string, payload *entity.BookingPayload, otp string) (*entity.User, error)

	// Confirm commits the booking and returns the payment redirect URL.
	Confirm(ctx context.Context, token string, req *entity.ConfirmRequest) (string, error)
}
