package reservex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Itinerary is a scheduled ship+route+date-range offering.
type Itinerary struct {
	ID          string          `json:"id"`
	Destination string          `json:"destination"`
	Route       string          `json:"route"`
	ShipID      string          `json:"shipId"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     time.Time       `json:"endDate"`
	// BasePrice is the itinerary-level per-person price. Zero when the
	// itinerary has no base price; per-type pricing records take precedence.
	BasePrice decimal.Decimal `json:"basePrice"`
}

type Ship struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// CabinPricing is the per-type per-person price record for a (ship, route) pair.
type CabinPricing struct {
	Interior  decimal.Decimal `json:"interior"`
	OceanView decimal.Decimal `json:"oceanView"`
	Balcony   decimal.Decimal `json:"balcony"`
	Suite     decimal.Decimal `json:"suite"`
}

type AvailabilityCount struct {
	Available     int `json:"available"`
	TotalCapacity int `json:"totalCapacity"`
}

// CabinAvailability is advisory: counts can be stale by submit time. The
// booking-creation call is the authority.
type CabinAvailability struct {
	Interior  AvailabilityCount `json:"interior"`
	OceanView AvailabilityCount `json:"oceanView"`
	Balcony   AvailabilityCount `json:"balcony"`
	Suite     AvailabilityCount `json:"suite"`
}

// Cabin is a physical cabin instance as the backend records it. TripStart and
// TripEnd are the current occupancy window, absent when the cabin has no
// active booking. ManualStatus is the staff-set status string.
type Cabin struct {
	Number       string     `json:"number"`
	Type         string     `json:"type"`
	ManualStatus string     `json:"manualStatus"`
	TripStart    *time.Time `json:"tripStart,omitempty"`
	TripEnd      *time.Time `json:"tripEnd,omitempty"`
}

func (c Client) GetItinerary(ctx context.Context, destination string) (*Itinerary, error) {
	var resp struct {
		envelope
		Itinerary Itinerary `json:"itinerary"`
	}
	path := "/v1/itineraries?destination=" + url.QueryEscape(destination)
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Itinerary.ID == "" {
		return nil, fmt.Errorf("itinerary lookup returned empty record for %q", destination)
	}
	return &resp.Itinerary, nil
}

func (c Client) GetShip(ctx context.Context, shipID string) (*Ship, error) {
	var resp struct {
		envelope
		Ship Ship `json:"ship"`
	}
	path := "/v1/ships/" + url.PathEscape(shipID)
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Ship.ID == "" {
		return nil, fmt.Errorf("ship lookup returned empty record for %q", shipID)
	}
	return &resp.Ship, nil
}

// GetCabinPricing returns ErrNotFound when no record exists for the pair;
// callers fall back to the itinerary base price in that case.
func (c Client) GetCabinPricing(ctx context.Context, shipID, route string) (*CabinPricing, error) {
	var resp struct {
		envelope
		Pricing CabinPricing `json:"pricing"`
	}
	path := "/v1/cabin-pricing?shipId=" + url.QueryEscape(shipID) + "&route=" + url.QueryEscape(route)
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Pricing, nil
}

func (c Client) GetCabinAvailability(ctx context.Context, shipID, route string) (*CabinAvailability, error) {
	var resp struct {
		envelope
		Availability CabinAvailability `json:"availability"`
	}
	path := "/v1/cabin-availability?shipId=" + url.QueryEscape(shipID) + "&route=" + url.QueryEscape(route)
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Availability, nil
}

// ListCabins returns the cabin instances of a ship for staff inventory views.
func (c Client) ListCabins(ctx context.Context, shipID string) ([]Cabin, error) {
	var resp struct {
		envelope
		Cabins []Cabin `json:"cabins"`
	}
	path := "/v1/ships/" + url.PathEscape(shipID) + "/cabins"
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Cabins, nil
}
