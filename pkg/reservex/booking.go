package reservex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// PassengerRecord is the wire shape for one passenger on a booking.
type PassengerRecord struct {
	FullName    string `json:"fullName"`
	Gender      string `json:"gender"`
	Citizenship string `json:"citizenship"`
	Age         int    `json:"age"`
	Email       string `json:"email,omitempty"`
	IsChild     bool   `json:"isChild"`
}

// BookingRequest is the payload for booking creation. TotalPrice is sent as a
// decimal string; the backend re-validates against its own pricing before
// charging and may reject the booking outright.
type BookingRequest struct {
	ItineraryID string          `json:"itineraryId"`
	ShipID      string          `json:"shipId"`
	CabinType   string          `json:"cabinType"`
	Adults      int             `json:"adults"`
	Children    int             `json:"children"`
	Primary     PassengerRecord `json:"primaryPassenger"`
	TotalPrice  string          `json:"totalPrice"`

	// Payment card fields are collected and forwarded, never validated here.
	Payment PaymentSummary `json:"payment"`
}

type PaymentSummary struct {
	CardholderName string `json:"cardholderName"`
	CardNumber     string `json:"cardNumber"`
	Expiry         string `json:"expiry"`
	CVC            string `json:"cvc"`
}

type BookingResult struct {
	BookingID   string `json:"bookingId"`
	CabinNumber string `json:"cabinNumber"`
}

// CreateBooking commits the reservation. This is the one irreversible call in
// the submission sequence; the backend assigns the cabin number.
func (c Client) CreateBooking(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	var resp struct {
		envelope
		Booking BookingResult `json:"booking"`
	}
	if _, err := c.doJSON(ctx, http.MethodPost, "/v1/bookings", req, &resp); err != nil {
		return nil, err
	}
	if resp.Booking.BookingID == "" {
		return nil, fmt.Errorf("booking creation returned empty booking id")
	}
	return &resp.Booking, nil
}

// AddPassengers persists the full roster against an existing booking.
func (c Client) AddPassengers(ctx context.Context, bookingID string, passengers []PassengerRecord) error {
	body := struct {
		Passengers []PassengerRecord `json:"passengers"`
	}{Passengers: passengers}

	path := "/v1/bookings/" + url.PathEscape(bookingID) + "/passengers"
	_, err := c.doJSON(ctx, http.MethodPost, path, body, nil)
	return err
}

type ConfirmationRequest struct {
	BookingID     string `json:"bookingId"`
	Email         string `json:"email"`
	PassengerName string `json:"passengerName"`
}

// SendConfirmation asks the backend to dispatch the confirmation email.
func (c Client) SendConfirmation(ctx context.Context, req ConfirmationRequest) error {
	_, err := c.doJSON(ctx, http.MethodPost, "/v1/notifications/confirmation", req, nil)
	return err
}
