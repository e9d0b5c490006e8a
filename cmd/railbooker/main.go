package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/browser"

	"railbooker/internal/domain/entity"
	"railbooker/internal/infrastructure/config"
	"railbooker/internal/interface/prompt"
	"railbooker/internal/interface/railapi"
	"railbooker/internal/usecase"
	"railbooker/pkg/logger"
	"railbooker/pkg/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration before the logger exists; config errors go to
	// stderr directly.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "railbooker:", err)
		return 1
	}

	log := logger.NewLogger(cfg.DebugDetails).With("runId", uuid.NewString())
	log.Info("Starting booking run",
		"from", cfg.FromCity,
		"to", cfg.ToCity,
		"date", cfg.DateOfJourney,
		"seatClass", cfg.SeatClass,
		"needSeats", cfg.NeedSeats)

	m := metrics.NewMetrics("railbooker")
	api := railapi.NewClient(cfg, log, m)
	prompter := prompt.NewConsolePrompter()

	matcher := usecase.NewSeatMatcher(log)
	selector := usecase.NewTripSelector(api, matcher, log)
	reservations := usecase.NewReservationCoordinator(api, m, log)
	otp := usecase.NewOTPVerifier(api, prompter, m, log)
	orchestrator := usecase.NewBookingOrchestrator(cfg, api, prompter, selector, reservations, otp, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redirectURL, err := orchestrator.Run(ctx)
	logSummary(log, m)

	if err != nil {
		var abort *entity.UserAbort
		if errors.As(err, &abort) {
			log.Info("Booking cancelled by user", "checkpoint", abort.Checkpoint)
			return 0
		}

		fmt.Fprintln(os.Stderr, "railbooker:", err)
		if cfg.DebugDetails {
			if detail := entity.ErrorDetail(err); detail != nil {
				var pretty bytes.Buffer
				if json.Indent(&pretty, detail, "", "  ") == nil {
					fmt.Fprintln(os.Stderr, pretty.String())
				} else {
					fmt.Fprintln(os.Stderr, string(detail))
				}
			}
		}
		return 1
	}

	log.Info("Opening payment link in browser", "url", redirectURL)
	if err := browser.OpenURL(redirectURL); err != nil {
		log.Warn("Could not open browser automatically",
			"url", redirectURL,
			"error", err)
	}
	prompter.Say("Please complete payment in your browser: " + redirectURL)
	return 0
}

func logSummary(log logger.Logger, m *metrics.Metrics) {
	keysAndValues := []interface{}{}
	for name, total := range m.Summary() {
		keysAndValues = append(keysAndValues, name, total)
	}
	log.Info("Run summary", keysAndValues...)
}
