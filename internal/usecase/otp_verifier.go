package usecase

import (
	"context"
	"regexp"
	"strings"

	"railbooker/internal/domain/entity"
	"railbooker/internal/domain/repository"
	"railbooker/pkg/logger"
	"railbooker/pkg/metrics"
)

// maxOTPAttempts bounds the challenge-response loop.
const maxOTPAttempts = 3

var otpPattern = regexp.MustCompile(`^\d{4,6}$`)

// OTPVerifier runs the bounded interactive OTP loop against the server.
type OTPVerifier struct {
	api      repository.BookingAPI
	prompter repository.Prompter
	metrics  *metrics.Metrics
	logger   logger.Logger
}

// NewOTPVerifier creates a new OTP verifier
func NewOTPVerifier(api repository.BookingAPI, prompter repository.Prompter, m *metrics.Metrics, log logger.Logger) *OTPVerifier {
	return &OTPVerifier{
		api:      api,
		prompter: prompter,
		metrics:  m,
		logger:   log,
	}
}

// Verify prompts for the passcode and submits it, up to maxOTPAttempts
// times. A malformed entry consumes an attempt without a server call; an
// explicit rejection is logged and the loop continues. On success it
// returns the authenticated passenger and the accepted OTP. Exhausting
// the budget surfaces the last error with its server detail.
func (v *OTPVerifier) Verify(ctx context.Context, token string, payload *entity.BookingPayload) (*entity.User, string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxOTPAttempts; attempt++ {
		v.metrics.OTPAttempts.Inc()

		otp, err := v.prompter.Ask("Please enter the OTP you received: ")
		if err != nil {
			return nil, "", err
		}
		otp = strings.TrimSpace(otp)

		if !otpPattern.MatchString(otp) {
			v.logger.Warn("Malformed OTP entered, expected 4-6 digits",
				"attempt", attempt,
				"attemptsLeft", maxOTPAttempts-attempt)
			lastErr = &entity.ApplicationError{
				Op:  "verify-otp",
				Msg: "malformed OTP (must be 4-6 digits)",
			}
			continue
		}

		user, err := v.api.VerifyOTP(ctx, token, payload, otp)
		if err == nil {
			v.logger.Info("OTP verified", "passenger", user.Name)
			return user, otp, nil
		}

		lastErr = err
		v.logger.Warn("OTP verification rejected",
			"attempt", attempt,
			"attemptsLeft", maxOTPAttempts-attempt,
			"error", err)
	}

	return nil, "", lastErr
}
