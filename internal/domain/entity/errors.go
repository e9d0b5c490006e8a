package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports missing or malformed required configuration. It is
// raised once, before any network call.
type ConfigError struct {
	Missing []string
	Reason  string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return "missing required environment variables: " + strings.Join(e.Missing, ", ")
	}
	return "invalid configuration: " + e.Reason
}

// NetworkError wraps a connection failure or timeout from the transport.
// HTTP error statuses are NOT network errors; they come back as data.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s (%s): %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ApplicationError means the server answered but signalled a business
// failure: a non-2xx status, a missing expected field, or an explicit
// error flag in a 2xx body. Detail keeps the raw server payload for the
// debug dump.
type ApplicationError struct {
	Op     string
	Status int
	Msg    string
	Detail json.RawMessage
}

func (e *ApplicationError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s failed with status %d", e.Op, e.Status)
}

// UserAbort is an explicit decline at a confirmation checkpoint. It is a
// normal termination, not a defect.
type UserAbort struct {
	Checkpoint string
}

func (e *UserAbort) Error() string {
	return "cancelled by user at " + e.Checkpoint
}

// InsufficientResultsError reports fewer matching or reserved seats than
// required. Detail carries a server payload when one is relevant (e.g. the
// seat layout of a failed probe), Reasons a short sample of failure causes.
type InsufficientResultsError struct {
	Op      string
	Needed  int
	Found   int
	Reasons []string
	Detail  json.RawMessage
}

func (e *InsufficientResultsError) Error() string {
	msg := fmt.Sprintf("%s: found %d of %d required seats", e.Op, e.Found, e.Needed)
	if len(e.Reasons) > 0 {
		msg += " (" + strings.Join(e.Reasons, "; ") + ")"
	}
	return msg
}

// ErrorDetail extracts the raw server payload from err if it carries one,
// looking through any wrapping.
func ErrorDetail(err error) json.RawMessage {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Detail
	}
	var insufficient *InsufficientResultsError
	if errors.As(err, &insufficient) {
		return insufficient.Detail
	}
	return nil
}
