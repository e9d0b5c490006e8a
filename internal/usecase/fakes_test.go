package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"railbooker/internal/domain/entity"
)

// fakeAPI is a scriptable BookingAPI for the usecase tests. Outcomes are
// keyed by trip or ticket id so concurrent calls stay attributable.
type fakeAPI struct {
	mu sync.Mutex

	token     string
	signInErr error

	trains    []entity.Train
	searchErr error

	layouts     map[int64][]entity.Coach
	layoutDelay map[int64]time.Duration
	layoutErr   map[int64]error

	reserveErr map[int64]error
	releaseErr map[int64]error

	otpMsg      string
	detailsErr  error
	verifyErrs  []error
	user        *entity.User
	redirectURL string
	confirmErr  error

	reserveCalls []int64
	releaseCalls []int64
	verifyCalls  int
	confirmReq   *entity.ConfirmRequest
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		token:       "tok-1",
		layouts:     make(map[int64][]entity.Coach),
		layoutDelay: make(map[int64]time.Duration),
		layoutErr:   make(map[int64]error),
		reserveErr:  make(map[int64]error),
		releaseErr:  make(map[int64]error),
		otpMsg:      "OTP sent",
		user:        &entity.User{Name: "Karim", Email: "karim@example.com", Mobile: "01700000000"},
		redirectURL: "https://pay.example.com/r/1",
	}
}

func (f *fakeAPI) SignIn(ctx context.Context, mobile, password string) (string, error) {
	if f.signInErr != nil {
		return "", f.signInErr
	}
	return f.token, nil
}

func (f *fakeAPI) SearchTrips(ctx context.Context, token, fromCity, toCity, date, seatClass string) ([]entity.Train, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.trains, nil
}

func (f *fakeAPI) SeatLayout(ctx context.Context, token string, tripID, tripRouteID int64) ([]entity.Coach, error) {
	if delay := f.layoutDelay[tripID]; delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &entity.NetworkError{Op: "GET seat-layout", Err: ctx.Err()}
		}
	}
	if err := f.layoutErr[tripID]; err != nil {
		return nil, err
	}
	layout, ok := f.layouts[tripID]
	if !ok {
		return nil, fmt.Errorf("no layout scripted for trip %d", tripID)
	}
	return layout, nil
}

func (f *fakeAPI) ReserveSeat(ctx context.Context, token string, ticketID, routeID int64) error {
	f.mu.Lock()
	f.reserveCalls = append(f.reserveCalls, ticketID)
	f.mu.Unlock()
	return f.reserveErr[ticketID]
}

func (f *fakeAPI) ReleaseSeat(ctx context.Context, token string, ticketID, routeID int64) error {
	f.mu.Lock()
	f.releaseCalls = append(f.releaseCalls, ticketID)
	f.mu.Unlock()
	return f.releaseErr[ticketID]
}

func (f *fakeAPI) SendPassengerDetails(ctx context.Context, token string, payload *entity.BookingPayload) (string, error) {
	if f.detailsErr != nil {
		return "", f.detailsErr
	}
	return f.otpMsg, nil
}

func (f *fakeAPI) VerifyOTP(ctx context.Context, token string, payload *entity.BookingPayload, otp string) (*entity.User, error) {
	f.mu.Lock()
	call := f.verifyCalls
	f.verifyCalls++
	f.mu.Unlock()
	if call < len(f.verifyErrs) && f.verifyErrs[call] != nil {
		return nil, f.verifyErrs[call]
	}
	return f.user, nil
}

func (f *fakeAPI) Confirm(ctx context.Context, token string, req *entity.ConfirmRequest) (string, error) {
	f.mu.Lock()
	f.confirmReq = req
	f.mu.Unlock()
	if f.confirmErr != nil {
		return "", f.confirmErr
	}
	return f.redirectURL, nil
}

func (f *fakeAPI) reserved() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.reserveCalls))
	copy(out, f.reserveCalls)
	return out
}

func (f *fakeAPI) released() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.releaseCalls))
	copy(out, f.releaseCalls)
	return out
}

// scriptPrompter feeds canned answers and records everything said.
type scriptPrompter struct {
	answers []string
	asked   []string
	said    []string
}

func (p *scriptPrompter) Ask(prompt string) (string, error) {
	p.asked = append(p.asked, prompt)
	if len(p.answers) == 0 {
		return "", fmt.Errorf("prompter script exhausted at %q", prompt)
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func (p *scriptPrompter) Say(text string) {
	p.said = append(p.said, text)
}

// --- layout and train builders ---

func makeSeat(ticketID int64, number string, available bool) *entity.SeatCell {
	return &entity.SeatCell{
		TicketID:         ticketID,
		SeatNumber:       number,
		SeatAvailability: entity.TruthyFlag(available),
	}
}

func makeCoach(name string, rows ...[]*entity.SeatCell) entity.Coach {
	return entity.Coach{FloorName: name, Layout: rows}
}

func makeTrain(label, seatClass string, online int, tripID, routeID int64) entity.Train {
	return entity.Train{
		TripNumber: label,
		SeatTypes: []entity.SeatTypeOffer{{
			Type:        seatClass,
			TripID:      tripID,
			TripRouteID: routeID,
			SeatCounts:  entity.SeatCounts{Online: json.Number(strconv.Itoa(online))},
		}},
		BoardingPoints: []entity.BoardingPoint{{TripPointID: 71, LocationName: "Dhaka"}},
	}
}
