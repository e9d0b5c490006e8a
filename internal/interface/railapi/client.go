package railapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"railbooker/internal/domain/entity"
	"railbooker/internal/infrastructure/config"
	"railbooker/pkg/logger"
	"railbooker/pkg/metrics"
)

// Endpoint path suffixes under the configured base URL.
const (
	pathSignIn           = "/auth/sign-in"
	pathSearchTrips      = "/bookings/search-trips-v2"
	pathSeatLayout       = "/bookings/seat-layout"
	pathReserveSeat      = "/bookings/reserve-seat"
	pathReleaseSeat      = "/bookings/release-seat"
	pathPassengerDetails = "/bookings/passenger-details"
	pathVerifyOTP        = "/bookings/verify-otp"
	pathConfirm          = "/bookings/confirm"
)

// Client talks to the railway e-ticket API. It implements
// repository.BookingAPI. HTTP error statuses never surface as transport
// errors; they are mapped to *entity.ApplicationError by the endpoint
// methods so each caller decides what is fatal.
type Client struct {
	baseURL    string
	deviceID   string
	referer    string
	httpClient *http.Client
	logger     logger.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a booking API client from the run configuration.
func NewClient(cfg *config.Config, log logger.Logger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		deviceID: cfg.DeviceID,
		referer:  cfg.Referer,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger:  log,
		metrics: m,
	}
}

// send issues one request and returns the status code and raw body. Only
// connection failures and timeouts produce an error, always a
// *entity.NetworkError.
func (c *Client) send(ctx context.Context, method, path, token string, params url.Values, body interface{}) (int, []byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Device-Id", c.deviceID)
	req.Header.Set("Referer", c.referer)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.APIRequests.WithLabelValues(path, metrics.OutcomeNetwork).Inc()
		return 0, nil, &entity.NetworkError{Op: method + " " + path, URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.APIRequests.WithLabelValues(path, metrics.OutcomeNetwork).Inc()
		return 0, nil, &entity.NetworkError{Op: method + " " + path, URL: fullURL, Err: err}
	}

	outcome := metrics.OutcomeOK
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = metrics.OutcomeError
	}
	c.metrics.APIRequests.WithLabelValues(path, outcome).Inc()

	c.logger.Debug("API request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode)

	return resp.StatusCode, raw, nil
}

func appError(op string, status int, raw []byte) *entity.ApplicationError {
	return &entity.ApplicationError{
		Op:     op,
		Status: status,
		Msg:    serverMessage(raw),
		Detail: json.RawMessage(raw),
	}
}

// serverMessage digs a human-readable message out of an error payload.
// The API is not consistent about where it puts one.
func serverMessage(raw []byte) string {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}

	if data, ok := doc["data"].(map[string]interface{}); ok {
		if msg, ok := data["msg"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := data["error"].(string); ok && msg != "" {
			return msg
		}
	}
	switch errVal := doc["error"].(type) {
	case string:
		return errVal
	case map[string]interface{}:
		if msg, ok := errVal["message"].(string); ok {
			return msg
		}
		if msgs, ok := errVal["messages"].([]interface{}); ok && len(msgs) > 0 {
			if msg, ok := msgs[0].(string); ok {
				return msg
			}
		}
	}
	if msg, ok := doc["message"].(string); ok {
		return msg
	}
	return ""
}

func statusOK(status int) bool { return status >= 200 && status < 300 }

// SignIn exchanges credentials for a bearer token.
func (c *Client) SignIn(ctx context.Context, mobile, password string) (string, error) {
	status, raw, err := c.send(ctx, http.MethodPost, pathSignIn, "", nil, map[string]string{
		"mobile_number": mobile,
		"password":      password,
	})
	if err != nil {
		return "", err
	}
	if !statusOK(status) {
		return "", appError("sign-in", status, raw)
	}

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Data.Token == "" {
		return "", &entity.ApplicationError{
			Op:     "sign-in",
			Status: status,
			Msg:    "no token in response",
			Detail: json.RawMessage(raw),
		}
	}
	return body.Data.Token, nil
}

// SearchTrips lists route offerings for the journey.
func (c *Client) SearchTrips(ctx context.Context, token, fromCity, toCity, date, seatClass string) ([]entity.Train, error) {
	params := url.Values{}
	params.Set("from_city", fromCity)
	params.Set("to_city", toCity)
	params.Set("date_of_journey", date)
	params.Set("seat_class", seatClass)

	status, raw, err := c.send(ctx, http.MethodGet, pathSearchTrips, token, params, nil)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, appError("search", status, raw)
	}

	var body struct {
		Data struct {
			Trains []entity.Train `json:"trains"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, appError("search", status, raw)
	}
	return body.Data.Trains, nil
}

// SeatLayout fetches the live coach grid for a trip.
func (c *Client) SeatLayout(ctx context.Context, token string, tripID, tripRouteID int64) ([]entity.Coach, error) {
	params := url.Values{}
	params.Set("trip_id", fmt.Sprintf("%d", tripID))
	params.Set("trip_route_id", fmt.Sprintf("%d", tripRouteID))

	status, raw, err := c.send(ctx, http.MethodGet, pathSeatLayout, token, params, nil)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, appError("seat-layout", status, raw)
	}

	var body struct {
		Data struct {
			SeatLayout []entity.Coach `json:"seatLayout"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, appError("seat-layout", status, raw)
	}
	return body.Data.SeatLayout, nil
}

// ReserveSeat holds one seat. An error flag in a 2xx body counts as a
// failed reservation.
func (c *Client) ReserveSeat(ctx context.Context, token string, ticketID, routeID int64) error {
	return c.patchSeat(ctx, pathReserveSeat, "reserve-seat", token, ticketID, routeID)
}

// ReleaseSeat returns a held seat to availability.
func (c *Client) ReleaseSeat(ctx context.Context, token string, ticketID, routeID int64) error {
	return c.patchSeat(ctx, pathReleaseSeat, "release-seat", token, ticketID, routeID)
}

func (c *Client) patchSeat(ctx context.Context, path, op, token string, ticketID, routeID int64) error {
	status, raw, err := c.send(ctx, http.MethodPatch, path, token, nil, map[string]int64{
		"ticket_id": ticketID,
		"route_id":  routeID,
	})
	if err != nil {
		return err
	}
	if !statusOK(status) || hasDataError(raw) {
		return appError(op, status, raw)
	}
	return nil
}

// hasDataError reports whether a 2xx body still carries data.error. The
// numeric 0 counts as no-error; the string "0" does not.
func hasDataError(raw []byte) bool {
	var body struct {
		Data struct {
			Error json.RawMessage `json:"error"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return false
	}
	switch string(bytes.TrimSpace(body.Data.Error)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// SendPassengerDetails triggers the OTP send for the reserved tickets.
func (c *Client) SendPassengerDetails(ctx context.Context, token string, payload *entity.BookingPayload) (string, error) {
	status, raw, err := c.send(ctx, http.MethodPost, pathPassengerDetails, token, nil, payload)
	if err != nil {
		return "", err
	}
	if !statusOK(status) {
		return "", appError("passenger-details", status, raw)
	}

	var body struct {
		Data struct {
			Success entity.TruthyFlag `json:"success"`
			Msg     string            `json:"msg"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || !bool(body.Data.Success) {
		return "", appError("passenger-details", status, raw)
	}
	return body.Data.Msg, nil
}

// VerifyOTP submits the passcode and returns the authenticated passenger.
func (c *Client) VerifyOTP(ctx context.Context, token string, payload *entity.BookingPayload, otp string) (*entity.User, error) {
	reqBody := struct {
		*entity.BookingPayload
		OTP string `json:"otp"`
	}{payload, otp}

	status, raw, err := c.send(ctx, http.MethodPost, pathVerifyOTP, token, nil, reqBody)
	if err != nil {
		return nil, err
	}
	if !statusOK(status) {
		return nil, appError("verify-otp", status, raw)
	}

	var body struct {
		Data struct {
			Success entity.TruthyFlag `json:"success"`
			User    entity.User       `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || !bool(body.Data.Success) {
		return nil, appError("verify-otp", status, raw)
	}
	return &body.Data.User, nil
}

// Confirm commits the booking and returns the payment redirect URL.
func (c *Client) Confirm(ctx context.Context, token string, req *entity.ConfirmRequest) (string, error) {
	status, raw, err := c.send(ctx, http.MethodPatch, pathConfirm, token, nil, req)
	if err != nil {
		return "", err
	}
	if !statusOK(status) {
		return "", appError("confirm", status, raw)
	}

	var body struct {
		Data struct {
			RedirectURL string `json:"redirectUrl"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Data.RedirectURL == "" {
		return "", &entity.ApplicationError{
			Op:     "confirm",
			Status: status,
			Msg:    "no payment URL in confirmation response",
			Detail: json.RawMessage(raw),
		}
	}
	return body.Data.RedirectURL, nil
}
