package railapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railbooker/internal/domain/entity"
	"railbooker/internal/infrastructure/config"
	"railbooker/pkg/logger"
	"railbooker/pkg/metrics"
)

func testClient(baseURL string, timeout time.Duration) *Client {
	cfg := &config.Config{
		BaseURL:        baseURL,
		DeviceID:       "device-1",
		Referer:        "https://eticket.example.com/",
		RequestTimeout: timeout,
	}
	return NewClient(cfg, logger.NewLogger(false), metrics.NewMetrics("test"))
}

func TestSendAttachesStandardHeadersAndBearerToken(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"data":{"trains":[]}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2*time.Second).SearchTrips(context.Background(), "tok-1", "Dhaka", "Chattogram", "2026-09-10", "SNIGDHA")

	require.NoError(t, err)
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "XMLHttpRequest", got.Get("X-Requested-With"))
	assert.Equal(t, "device-1", got.Get("X-Device-Id"))
	assert.Equal(t, "https://eticket.example.com/", got.Get("Referer"))
	assert.Equal(t, "Bearer tok-1", got.Get("Authorization"))
}

func TestSignInReturnsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "01700000000", body["mobile_number"])
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{"token":"tok-42"}}`))
	}))
	defer srv.Close()

	token, err := testClient(srv.URL, 2*time.Second).SignIn(context.Background(), "01700000000", "secret")

	require.NoError(t, err)
	assert.Equal(t, "tok-42", token)
}

func TestErrorStatusComesBackAsApplicationErrorNotNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"messages":["Invalid credentials"]}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2*time.Second).SignIn(context.Background(), "01700000000", "wrong")

	var appErr *entity.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "Invalid credentials", appErr.Msg)
	assert.JSONEq(t, `{"error":{"messages":["Invalid credentials"]}}`, string(appErr.Detail))

	var netErr *entity.NetworkError
	assert.False(t, errors.As(err, &netErr))
}

func TestTimeoutMapsToNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 20*time.Millisecond).SignIn(context.Background(), "m", "p")

	var netErr *entity.NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestReserveSeatTreatsDataErrorFlagAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		w.Write([]byte(`{"data":{"error":"Seat already reserved"}}`))
	}))
	defer srv.Close()

	err := testClient(srv.URL, 2*time.Second).ReserveSeat(context.Background(), "tok", 100, 20)

	var appErr *entity.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Seat already reserved", appErr.Msg)
}

func TestReserveSeatErrorFlagFalsyVariants(t *testing.T) {
	for body, wantErr := range map[string]bool{
		`{"data":{"error":0}}`:       false,
		`{"data":{"error":null}}`:    false,
		`{"data":{"error":""}}`:      false,
		`{"data":{"error":"0"}}`:     true,
		`{"data":{"error":"taken"}}`: true,
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		err := testClient(srv.URL, 2*time.Second).ReserveSeat(context.Background(), "tok", 100, 20)
		srv.Close()

		if wantErr {
			assert.Error(t, err, body)
		} else {
			assert.NoError(t, err, body)
		}
	}
}

func TestReserveSeatSucceedsOnCleanBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(100), body["ticket_id"])
		assert.Equal(t, int64(20), body["route_id"])
		w.Write([]byte(`{"data":{"success":true}}`))
	}))
	defer srv.Close()

	assert.NoError(t, testClient(srv.URL, 2*time.Second).ReserveSeat(context.Background(), "tok", 100, 20))
}

func TestSeatLayoutParsesCoachesAndTruthyFlags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("trip_id"))
		assert.Equal(t, "20", r.URL.Query().Get("trip_route_id"))
		w.Write([]byte(`{"data":{"seatLayout":[
			{"floor_name":"UMA","layout":[[
				{"ticket_id":1,"seat_number":"UMA-1","seat_availability":true},
				{"ticket_id":2,"seat_number":"UMA-2","seat_availability":"1"},
				{"ticket_id":3,"seat_number":"UMA-3","seat_availability":0},
				null
			]]}
		]}}`))
	}))
	defer srv.Close()

	coaches, err := testClient(srv.URL, 2*time.Second).SeatLayout(context.Background(), "tok", 10, 20)

	require.NoError(t, err)
	require.Len(t, coaches, 1)
	row := coaches[0].Layout[0]
	require.Len(t, row, 4)
	assert.True(t, bool(row[0].SeatAvailability))
	assert.True(t, bool(row[1].SeatAvailability))
	assert.False(t, bool(row[2].SeatAvailability))
	assert.Nil(t, row[3])
}

func TestSendPassengerDetailsRequiresSuccessFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"success":false,"msg":"reservation expired"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2*time.Second).SendPassengerDetails(context.Background(), "tok", &entity.BookingPayload{})

	var appErr *entity.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "reservation expired", appErr.Msg)
}

func TestVerifyOTPSendsPayloadWithOTPAndParsesUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1234", body["otp"])
		assert.Equal(t, float64(10), body["trip_id"])
		w.Write([]byte(`{"data":{"success":true,"user":{"name":"Karim","email":"k@x.com","mobile":"017"}}}`))
	}))
	defer srv.Close()

	payload := &entity.BookingPayload{TripID: 10, TripRouteID: 20, TicketIDs: []int64{1}}
	user, err := testClient(srv.URL, 2*time.Second).VerifyOTP(context.Background(), "tok", payload, "1234")

	require.NoError(t, err)
	assert.Equal(t, "Karim", user.Name)
	assert.Equal(t, "k@x.com", user.Email)
}

func TestConfirmReturnsRedirectURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		w.Write([]byte(`{"data":{"redirectUrl":"https://pay.example.com/r/9"}}`))
	}))
	defer srv.Close()

	url, err := testClient(srv.URL, 2*time.Second).Confirm(context.Background(), "tok", &entity.ConfirmRequest{})

	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/r/9", url)
}

func TestConfirmWithoutRedirectURLFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2*time.Second).Confirm(context.Background(), "tok", &entity.ConfirmRequest{})

	var appErr *entity.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Msg, "payment URL")
}
