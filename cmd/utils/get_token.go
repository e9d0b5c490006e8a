// get_token signs in with the configured credentials and prints the
// bearer token, for poking the booking API by hand (curl etc.) without
// starting a full run.
package main

import (
	"context"
	"fmt"
	"os"

	"railbooker/internal/infrastructure/config"
	"railbooker/internal/interface/railapi"
	"railbooker/pkg/logger"
	"railbooker/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "get_token:", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.DebugDetails)
	client := railapi.NewClient(cfg, log, metrics.NewMetrics("railbooker"))

	token, err := client.SignIn(context.Background(), cfg.Mobile, cfg.Password)
	if err != nil {
		log.Fatal("Sign-in failed", "error", err)
	}

	fmt.Printf("\nBearer Token: %s\n\n", token)
}
