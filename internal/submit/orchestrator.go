// Package submit sequences the final booking commit.
//
// Only the booking-creation call is a hard requirement. Passenger persistence
// and the confirmation email are best-effort: a lost email is recoverable by
// support staff, a lost paid reservation is not.
package submit

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"cruiseline/pkg/reservex"
)

// Backend is the slice of the reservations client the orchestrator drives.
type Backend interface {
	CreateBooking(ctx context.Context, req reservex.BookingRequest) (*reservex.BookingResult, error)
	AddPassengers(ctx context.Context, bookingID string, passengers []reservex.PassengerRecord) error
	SendConfirmation(ctx context.Context, req reservex.ConfirmationRequest) error
}

type Orchestrator struct {
	Backend Backend
}

// Order is the snapshot of a finished booking flow handed to Submit. The
// caller assembles it from its own session state; Passengers goes
// primary-first, and the first record's name and email drive the
// confirmation dispatch.
type Order struct {
	ItineraryID string
	ShipID      string
	CabinType   string
	Adults      int
	Children    int
	Passengers  []reservex.PassengerRecord
	TotalPrice  decimal.Decimal
	Payment     reservex.PaymentSummary
}

// Result is what a successful submission yields. PassengersPersisted and
// ConfirmationSent report the best-effort outcomes; false values are already
// logged and never block success.
type Result struct {
	BookingID           string `json:"bookingId"`
	CabinNumber         string `json:"cabinNumber"`
	PassengersPersisted bool   `json:"passengersPersisted"`
	ConfirmationSent    bool   `json:"confirmationSent"`
}

// Submit runs the commit sequence for an order:
//
//  1. Create the booking. Any failure here aborts the whole submission and
//     the caller keeps its session untouched for a manual retry — the backend
//     may reject even when availability looked fine at selection time.
//  2. Persist the full roster against the new booking id (best-effort).
//  3. Dispatch the confirmation email (best-effort).
//
// There is no automatic retry anywhere in the sequence.
func (o Orchestrator) Submit(ctx context.Context, order Order) (*Result, error) {
	if len(order.Passengers) == 0 {
		return nil, fmt.Errorf("order has no passengers")
	}
	primary := order.Passengers[0]

	req := reservex.BookingRequest{
		ItineraryID: order.ItineraryID,
		ShipID:      order.ShipID,
		CabinType:   order.CabinType,
		Adults:      order.Adults,
		Children:    order.Children,
		Primary:     primary,
		TotalPrice:  order.TotalPrice.String(),
		Payment:     order.Payment,
	}

	created, err := o.Backend.CreateBooking(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	res := &Result{
		BookingID:   created.BookingID,
		CabinNumber: created.CabinNumber,
	}

	if err := o.Backend.AddPassengers(ctx, created.BookingID, order.Passengers); err != nil {
		// The booking already exists and is authoritative; never roll it back.
		log.Printf("[submit] passenger persistence failed for booking %s: %v", created.BookingID, err)
	} else {
		res.PassengersPersisted = true
	}

	if err := o.Backend.SendConfirmation(ctx, reservex.ConfirmationRequest{
		BookingID:     created.BookingID,
		Email:         primary.Email,
		PassengerName: primary.FullName,
	}); err != nil {
		log.Printf("[submit] confirmation dispatch failed for booking %s: %v", created.BookingID, err)
	} else {
		res.ConfirmationSent = true
	}

	return res, nil
}
