package booking

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cruiseline/internal/pricing"
)

// Step is a stage of the guided booking flow.
type Step int

const (
	StepSummary Step = iota + 1
	StepPassengers
	StepCabin
	StepPayment
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepSummary:
		return "summary"
	case StepPassengers:
		return "passengers"
	case StepCabin:
		return "cabin"
	case StepPayment:
		return "payment"
	case StepSuccess:
		return "success"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// MaxGuests caps the whole party, primary included.
const MaxGuests = 7

// PaymentDetails are collected and forwarded as-is; no processor validation
// happens in this service.
type PaymentDetails struct {
	CardholderName string `json:"cardholderName"`
	CardNumber     string `json:"cardNumber"`
	Expiry         string `json:"expiry"`
	CVC            string `json:"cvc"`
}

func (p PaymentDetails) complete() bool {
	return p.CardholderName != "" && p.CardNumber != "" && p.Expiry != "" && p.CVC != ""
}

// Session holds every selection of one booking flow. It lives only in memory
// and dies on reset or expiry. All mutation goes through UpdateFields, Advance,
// Back and Reset so the step-guard invariants stay enforceable; callers never
// poke fields directly.
type Session struct {
	ID       string    `json:"id"`
	LastSeen time.Time `json:"-"`

	Destination string          `json:"destination,omitempty"`
	ItineraryID string          `json:"itineraryId,omitempty"`
	Route       string          `json:"route,omitempty"`
	ShipID      string          `json:"shipId,omitempty"`
	ShipName    string          `json:"shipName,omitempty"`
	StartDate   time.Time       `json:"startDate,omitempty"`
	EndDate     time.Time       `json:"endDate,omitempty"`
	BasePrice   decimal.Decimal `json:"-"`

	Adults     int         `json:"adults"`
	Children   int         `json:"children"`
	Primary    Passenger   `json:"primaryPassenger"`
	Additional []Passenger `json:"additionalPassengers"`

	CabinType  pricing.CabinType `json:"cabinType,omitempty"`
	Quote      pricing.Quote     `json:"-"`
	TotalPrice decimal.Decimal   `json:"totalPrice"`

	Payment PaymentDetails `json:"-"`

	Step Step `json:"step"`

	// Submitting guards against resubmission while a submit is in flight.
	Submitting bool `json:"-"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:       id,
		LastSeen: now,
		Adults:   1,
		Step:     StepSummary,
	}
}

// Fields is a partial update; nil pointers leave the session value untouched.
// UpdateFields performs no validation (validation is step-local, on advance),
// but it does keep derived state consistent: guest-count changes re-sync the
// roster and the total recomputes whenever counts or cabin type move.
type Fields struct {
	Destination *string

	Adults   *int
	Children *int

	Primary    *Passenger
	Additional []Passenger

	CabinType *pricing.CabinType

	Payment *PaymentDetails
}

// Itinerary is set by the summary step after the backend lookup succeeds.
type Itinerary struct {
	ItineraryID string
	Route       string
	ShipID      string
	ShipName    string
	StartDate   time.Time
	EndDate     time.Time
	BasePrice   decimal.Decimal
}

func (s *Session) UpdateFields(f Fields) {
	if f.Destination != nil && *f.Destination != s.Destination {
		s.Destination = *f.Destination
		// A new destination invalidates the resolved itinerary and everything
		// priced against it.
		s.ItineraryID = ""
		s.Route = ""
		s.ShipID = ""
		s.ShipName = ""
		s.StartDate = time.Time{}
		s.EndDate = time.Time{}
		s.BasePrice = decimal.Zero
		s.CabinType = ""
		s.Quote = nil
	}

	countsChanged := false
	if f.Adults != nil && *f.Adults != s.Adults {
		s.Adults = *f.Adults
		countsChanged = true
	}
	if f.Children != nil && *f.Children != s.Children {
		s.Children = *f.Children
		countsChanged = true
	}
	if countsChanged {
		s.Additional = SyncRoster(s.Additional, s.Adults, s.Children)
	}

	if f.Primary != nil {
		p := *f.Primary
		p.IsChild = false // the primary is always an adult
		s.Primary = p
	}
	if f.Additional != nil {
		s.Additional = SyncRoster(f.Additional, s.Adults, s.Children)
	}

	if f.CabinType != nil {
		s.CabinType = *f.CabinType
	}
	if f.Payment != nil {
		s.Payment = *f.Payment
	}

	s.recomputeTotal()
}

// SetItinerary records the resolved itinerary and ship for the session.
func (s *Session) SetItinerary(it Itinerary) {
	s.ItineraryID = it.ItineraryID
	s.Route = it.Route
	s.ShipID = it.ShipID
	s.ShipName = it.ShipName
	s.StartDate = it.StartDate
	s.EndDate = it.EndDate
	s.BasePrice = it.BasePrice
	s.recomputeTotal()
}

// SetQuote records the resolved per-type prices used for totals.
func (s *Session) SetQuote(q pricing.Quote) {
	s.Quote = q
	s.recomputeTotal()
}

// recomputeTotal derives TotalPrice from the current quote, cabin type and
// guest counts. The total is never mutated anywhere else.
func (s *Session) recomputeTotal() {
	if s.CabinType == "" {
		s.TotalPrice = decimal.Zero
		return
	}
	p, ok := s.Quote.Price(s.CabinType)
	if !ok {
		s.TotalPrice = decimal.Zero
		return
	}
	s.TotalPrice = pricing.Total(p, s.Adults, s.Children)
}

// Passengers returns the full roster, primary first.
func (s *Session) Passengers() []Passenger {
	out := make([]Passenger, 0, 1+len(s.Additional))
	out = append(out, s.Primary)
	out = append(out, s.Additional...)
	return out
}

// entryGuard reports whether the prerequisites for entering a step are met.
func (s *Session) entryGuard(step Step) bool {
	switch step {
	case StepSummary:
		return true
	case StepPassengers:
		return s.Destination != "" && s.ItineraryID != ""
	case StepCabin:
		return s.Destination != "" && s.Primary.FullName != ""
	case StepPayment:
		return s.CabinType != "" && s.TotalPrice.GreaterThan(decimal.Zero)
	case StepSuccess:
		return true
	default:
		return false
	}
}

// routeTo clamps a target step to the earliest step whose prerequisites are
// unmet, so a session with holes behind it always lands where the hole is.
func (s *Session) routeTo(target Step) Step {
	for step := StepSummary; step < target; step++ {
		if !s.entryGuard(step + 1) {
			return step
		}
	}
	return target
}

// ValidateStep runs the step-local validation for the given step and returns
// a field-keyed error map. Validation never touches the network.
func (s *Session) ValidateStep(step Step) map[string]string {
	errs := map[string]string{}

	switch step {
	case StepSummary:
		if s.Destination == "" {
			errs["destination"] = "destination is required"
		}
		if s.Adults < 1 {
			errs["adults"] = "at least one adult is required"
		}
		if s.Children < 0 {
			errs["children"] = "children cannot be negative"
		}
		if s.Adults+s.Children > MaxGuests {
			errs["guests"] = fmt.Sprintf("a booking holds at most %d guests", MaxGuests)
		}
	case StepPassengers:
		return ValidateRoster(s.Primary, s.Additional)
	case StepCabin:
		if s.CabinType == "" {
			errs["cabinType"] = "select a cabin type"
		} else if _, ok := s.Quote.Price(s.CabinType); !ok {
			errs["cabinType"] = "no price is available for this cabin type"
		}
	case StepPayment:
		if !s.Payment.complete() {
			errs["payment"] = "all card fields are required"
		}
	}

	return errs
}

// Advance attempts to move to the next step. The current step's validation
// must pass; the landing step is then clamped by the entry guards so missing
// prerequisites route the session back to the earliest unmet step.
func (s *Session) Advance() (Step, map[string]string) {
	if errs := s.ValidateStep(s.Step); len(errs) > 0 {
		return s.Step, errs
	}
	if s.Step >= StepPayment {
		// Payment advances only through a successful submission.
		return s.Step, nil
	}
	s.Step = s.routeTo(s.Step + 1)
	return s.Step, nil
}

// Back moves one step backward. Backward transitions are never blocked and
// never clear later-step data.
func (s *Session) Back() Step {
	if s.Step > StepSummary && s.Step < StepSuccess {
		s.Step--
	}
	return s.Step
}

// MarkSuccess is called by the submit flow once the booking is committed.
func (s *Session) MarkSuccess() {
	s.Step = StepSuccess
}

// Reset clears the session back to an empty first step. Called after a
// successful submission and on explicit, confirmed user exit.
func (s *Session) Reset() {
	id, seen := s.ID, s.LastSeen
	*s = Session{}
	s.ID = id
	s.LastSeen = seen
	s.Adults = 1
	s.Step = StepSummary
}

// BeginSubmit flips the busy flag; a second submit while one is in flight is
// refused instead of queued.
func (s *Session) BeginSubmit() error {
	if s.Submitting {
		return fmt.Errorf("a submission is already in flight")
	}
	s.Submitting = true
	return nil
}

func (s *Session) EndSubmit() {
	s.Submitting = false
}
