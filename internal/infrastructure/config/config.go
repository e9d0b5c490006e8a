// internal/infrastructure/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"railbooker/internal/domain/entity"
)

// Config holds every parameter of one booking run. It is built once at
// startup and treated as read-only afterwards.
type Config struct {
	// Credentials
	Mobile   string
	Password string

	// Journey
	FromCity      string
	ToCity        string
	DateOfJourney string
	SeatClass     string
	NeedSeats     int

	// Optional filters
	TrainNames       []string
	PreferredCoaches []string
	PreferredSeats   []string

	// Tunables
	RequestTimeout time.Duration
	DeviceID       string
	Referer        string
	BaseURL        string
	DebugDetails   bool
}

var requiredKeys = []string{
	"MOBILE",
	"PASSWORD",
	"FROM_CITY",
	"TO_CITY",
	"DATE_OF_JOURNEY",
	"SEAT_CLASS",
	"NEED_SEATS",
}

// LoadConfig loads configuration from environment variables, reading a
// .env file first if one exists. Required variables have no defaults; all
// missing ones are reported together.
func LoadConfig() (*Config, error) {
	godotenv.Load()

	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &entity.ConfigError{Missing: missing}
	}

	needSeats, err := strconv.Atoi(strings.TrimSpace(os.Getenv("NEED_SEATS")))
	if err != nil || needSeats < 1 {
		return nil, &entity.ConfigError{Reason: "NEED_SEATS must be a positive integer"}
	}

	config := &Config{
		Mobile:   os.Getenv("MOBILE"),
		Password: os.Getenv("PASSWORD"),

		FromCity:      os.Getenv("FROM_CITY"),
		ToCity:        os.Getenv("TO_CITY"),
		DateOfJourney: os.Getenv("DATE_OF_JOURNEY"),
		SeatClass:     os.Getenv("SEAT_CLASS"),
		NeedSeats:     needSeats,

		TrainNames:       getEnvAsList("TRAIN_NAME"),
		PreferredCoaches: getEnvAsList("PREFERRED_COACHES"),
		PreferredSeats:   getEnvAsNumericList("PREFERRED_SEATS"),

		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT", 20)) * time.Second,
		DeviceID:       getEnv("DEVICE_ID", "4004028937"),
		Referer:        getEnv("REFERER", "https://eticket.railway.gov.bd/"),
		BaseURL:        strings.TrimRight(getEnv("BASE", "https://railspaapi.shohoz.com/v1.0/web"), "/"),
		DebugDetails:   getEnvAsBool("DEBUG_DETAILS", false),
	}

	return config, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsNumericList keeps only entries that parse as integers, matching
// how preferred seat numbers are compared later (as trimmed strings).
func getEnvAsNumericList(key string) []string {
	var out []string
	for _, part := range getEnvAsList(key) {
		if _, err := strconv.Atoi(part); err == nil {
			out = append(out, part)
		}
	}
	return out
}
