package entity

// ConfirmRequest is the full confirm payload the booking API expects. The
// per-passenger identity arrays are required by the endpoint even when
// unused; they are sent as nulls (or empty strings where the API wants
// those) sized to the passenger count.
type ConfirmRequest struct {
	TripID      int64   `json:"trip_id"`
	TripRouteID int64   `json:"trip_route_id"`
	TicketIDs   []int64 `json:"ticket_ids"`
	OTP         string  `json:"otp"`

	BoardingPointID int64    `json:"boarding_point_id"`
	Names           []string `json:"pname"`
	PassengerTypes  []string `json:"passengerType"`
	Genders         []string `json:"gender"`
	Email           string   `json:"pemail"`
	Mobile          string   `json:"pmobile"`
	ContactPerson   int      `json:"contactperson"`
	EnableSMSAlert  int      `json:"enable_sms_alert"`

	SeatClass     string `json:"seat_class"`
	FromCity      string `json:"from_city"`
	ToCity        string `json:"to_city"`
	DateOfJourney string `json:"date_of_journey"`

	IsBkashOnline             bool `json:"is_bkash_online"`
	SelectedMobileTransaction int  `json:"selected_mobile_transaction"`

	DateOfBirth    []*string `json:"date_of_birth"`
	FirstName      []*string `json:"first_name"`
	LastName       []*string `json:"last_name"`
	MiddleName     []*string `json:"middle_name"`
	Nationality    []*string `json:"nationality"`
	Page           []string  `json:"page"`
	PPassport      []string  `json:"ppassport"`
	PassportExpiry []*string `json:"passport_expiry_date"`
	PassportNo     []*string `json:"passport_no"`
	PassportType   []*string `json:"passport_type"`
	VisaExpireDate []*string `json:"visa_expire_date"`
	VisaIssueDate  []*string `json:"visa_issue_date"`
	VisaIssuePlace []*string `json:"visa_issue_place"`
	VisaNo         []*string `json:"visa_no"`
	VisaType       []*string `json:"visa_type"`
}

// NewConfirmRequest assembles the confirm payload from the verified
// transaction and journey parameters.
func NewConfirmRequest(tx *BookingTransaction, seatClass, fromCity, toCity, date string) *ConfirmRequest {
	n := tx.Passengers.Count()
	nulls := make([]*string, n)
	empty := make([]string, n)

	return &ConfirmRequest{
		TripID:      tx.Payload.TripID,
		TripRouteID: tx.Payload.TripRouteID,
		TicketIDs:   tx.Payload.TicketIDs,
		OTP:         tx.OTP,

		BoardingPointID: tx.Trip.BoardingPointID,
		Names:           tx.Passengers.Names,
		PassengerTypes:  tx.Passengers.Types,
		Genders:         tx.Passengers.Genders,
		Email:           tx.MainPassenger.Email,
		Mobile:          tx.MainPassenger.Mobile,

		SeatClass:     seatClass,
		FromCity:      fromCity,
		ToCity:        toCity,
		DateOfJourney: date,

		IsBkashOnline:             true,
		SelectedMobileTransaction: 1,

		DateOfBirth:    nulls,
		FirstName:      nulls,
		LastName:       nulls,
		MiddleName:     nulls,
		Nationality:    nulls,
		Page:           empty,
		PPassport:      empty,
		PassportExpiry: nulls,
		PassportNo:     nulls,
		PassportType:   nulls,
		VisaExpireDate: nulls,
		VisaIssueDate:  nulls,
		VisaIssuePlace: nulls,
		VisaNo:         nulls,
		VisaType:       nulls,
	}
}
