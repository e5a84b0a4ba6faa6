package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"cruiseline/internal/api"
	"cruiseline/internal/availability"
	"cruiseline/internal/cabin"
	"cruiseline/internal/pricing"
	"cruiseline/internal/submit"
	"cruiseline/pkg/reservex"
)

// Catalog is the slice of the reservations backend the flow handlers read.
type Catalog interface {
	GetItinerary(ctx context.Context, destination string) (*reservex.Itinerary, error)
	GetShip(ctx context.Context, shipID string) (*reservex.Ship, error)
	ListCabins(ctx context.Context, shipID string) ([]reservex.Cabin, error)
}

type Handlers struct {
	Store        *Store
	Catalog      Catalog
	Pricing      pricing.Engine
	Availability availability.Service
	Orchestrator submit.Orchestrator
}

type sessionView struct {
	ID         string `json:"id"`
	Step       string `json:"step"`
	StepNumber int    `json:"stepNumber"`

	Destination string     `json:"destination,omitempty"`
	ItineraryID string     `json:"itineraryId,omitempty"`
	Route       string     `json:"route,omitempty"`
	ShipID      string     `json:"shipId,omitempty"`
	ShipName    string     `json:"shipName,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`

	Adults     int         `json:"adults"`
	Children   int         `json:"children"`
	Primary    Passenger   `json:"primaryPassenger"`
	Additional []Passenger `json:"additionalPassengers"`

	CabinType  string `json:"cabinType,omitempty"`
	TotalPrice string `json:"totalPrice"`

	Submitting bool `json:"submitting"`
}

func toView(s Session) sessionView {
	v := sessionView{
		ID:          s.ID,
		Step:        s.Step.String(),
		StepNumber:  int(s.Step),
		Destination: s.Destination,
		ItineraryID: s.ItineraryID,
		Route:       s.Route,
		ShipID:      s.ShipID,
		ShipName:    s.ShipName,
		Adults:      s.Adults,
		Children:    s.Children,
		Primary:     s.Primary,
		Additional:  s.Additional,
		CabinType:   string(s.CabinType),
		TotalPrice:  s.TotalPrice.String(),
		Submitting:  s.Submitting,
	}
	if v.Additional == nil {
		v.Additional = []Passenger{}
	}
	if !s.StartDate.IsZero() {
		d := s.StartDate
		v.StartDate = &d
	}
	if !s.EndDate.IsZero() {
		d := s.EndDate
		v.EndDate = &d
	}
	return v
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	sess := h.Store.Create()
	api.WriteJSON(w, http.StatusCreated, map[string]any{"session": toView(sess)})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var snap Session
	if err := h.Store.View(id, func(s Session) { snap = s }); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"session": toView(snap)})
}

type updateRequest struct {
	Destination *string         `json:"destination"`
	Adults      *int            `json:"adults"`
	Children    *int            `json:"children"`
	Primary     *Passenger      `json:"primaryPassenger"`
	Additional  []Passenger     `json:"additionalPassengers"`
	CabinType   *string         `json:"cabinType"`
	Payment     *PaymentDetails `json:"payment"`
}

// Patch merges partial updates into the session. No validation happens here;
// invalid data is caught on the next advance attempt.
func (h Handlers) Patch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json body")
		return
	}

	f := Fields{
		Destination: req.Destination,
		Adults:      req.Adults,
		Children:    req.Children,
		Primary:     req.Primary,
		Additional:  req.Additional,
		Payment:     req.Payment,
	}
	if req.CabinType != nil {
		ct, err := pricing.ParseCabinType(*req.CabinType)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		}
		f.CabinType = &ct
	}

	var snap Session
	err := h.Store.Update(id, func(s *Session) error {
		s.UpdateFields(f)
		snap = *s
		return nil
	})
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"session": toView(snap)})
}

// Advance attempts to move the session to the next step. The current step's
// validation runs first; the summary and cabin steps additionally confirm
// their backend lookups before the transition commits.
func (h Handlers) Advance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var snap Session
	if err := h.Store.View(id, func(s Session) { snap = s }); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
		return
	}

	if errs := snap.ValidateStep(snap.Step); len(errs) > 0 {
		api.WriteFieldErrors(w, errs)
		return
	}

	var itinerary *Itinerary
	switch snap.Step {
	case StepSummary:
		it, err := h.Catalog.GetItinerary(r.Context(), snap.Destination)
		if errors.Is(err, reservex.ErrNotFound) {
			api.WriteFieldErrors(w, map[string]string{"destination": "no itinerary serves this destination"})
			return
		}
		if err != nil {
			api.WriteError(w, http.StatusBadGateway, "LOOKUP_FAILED", "itinerary lookup failed")
			return
		}
		ship, err := h.Catalog.GetShip(r.Context(), it.ShipID)
		if err != nil {
			api.WriteError(w, http.StatusBadGateway, "LOOKUP_FAILED", "ship lookup failed")
			return
		}
		itinerary = &Itinerary{
			ItineraryID: it.ID,
			Route:       it.Route,
			ShipID:      it.ShipID,
			ShipName:    ship.Name,
			StartDate:   it.StartDate,
			EndDate:     it.EndDate,
			BasePrice:   it.BasePrice,
		}

	case StepCabin:
		// Advisory re-check at the moment of selection; the booking-creation
		// call remains the authority and can still reject later.
		avail, err := h.Availability.Snapshot(r.Context(), snap.ShipID, snap.Route)
		if err != nil {
			api.WriteFieldErrors(w, map[string]string{"cabinType": "availability could not be confirmed"})
			return
		}
		if !avail.Selectable(snap.CabinType) {
			api.WriteFieldErrors(w, map[string]string{"cabinType": "this cabin type is sold out"})
			return
		}
	}

	var fieldErrs map[string]string
	err := h.Store.Update(id, func(s *Session) error {
		if itinerary != nil {
			s.SetItinerary(*itinerary)
		}
		_, fieldErrs = s.Advance()
		snap = *s
		return nil
	})
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
		return
	}
	if len(fieldErrs) > 0 {
		api.WriteFieldErrors(w, fieldErrs)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"session": toView(snap)})
}

// Back moves one step backward; never blocked, never clears later-step data.
func (h Handlers) Back(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var snap Session
	err := h.Store.Update(id, func(s *Session) error {
		s.Back()
		snap = *s
		return nil
	})
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"session": toView(snap)})
}

type cabinOption struct {
	Type          string  `json:"type"`
	Price         *string `json:"price,omitempty"`
	PriceUnknown  bool    `json:"priceUnknown"`
	Available     int     `json:"available"`
	TotalCapacity int     `json:"totalCapacity"`
	// OpenNow counts this ship's cabins of the type currently resolving to
	// Available; omitted when the cabin list could not be read.
	OpenNow    *int `json:"openNow,omitempty"`
	Selectable bool `json:"selectable"`
}

// Cabins lists the four cabin-type options with resolved prices and advisory
// availability. Types with no resolvable price or no remaining capacity are
// returned non-selectable instead of hidden.
func (h Handlers) Cabins(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var snap Session
	if err := h.Store.View(id, func(s Session) { snap = s }); err != nil {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
		return
	}
	if snap.ItineraryID == "" {
		api.WriteError(w, http.StatusConflict, "WRONG_STEP", "complete the summary step first")
		return
	}

	quote, quoteErr := h.Pricing.ResolveQuote(r.Context(), snap.ShipID, snap.Route, snap.BasePrice)
	if quoteErr == nil {
		_ = h.Store.Update(id, func(s *Session) error {
			s.SetQuote(quote)
			return nil
		})
	}

	avail, availErr := h.Availability.Snapshot(r.Context(), snap.ShipID, snap.Route)

	var openNow map[pricing.CabinType]int
	if cabins, err := h.Catalog.ListCabins(r.Context(), snap.ShipID); err == nil {
		openNow = countOpenCabins(cabins, time.Now())
	}

	options := make([]cabinOption, 0, 4)
	for _, t := range pricing.AllTypes() {
		opt := cabinOption{Type: string(t), PriceUnknown: true}

		if quoteErr == nil {
			if p, ok := quote.Price(t); ok {
				ps := p.String()
				opt.Price = &ps
				opt.PriceUnknown = false
			}
		}
		if availErr == nil {
			c := avail[t]
			opt.Available = c.Available
			opt.TotalCapacity = c.TotalCapacity
		}
		if openNow != nil {
			n := openNow[t]
			opt.OpenNow = &n
		}

		opt.Selectable = !opt.PriceUnknown && availErr == nil && avail.Selectable(t)
		options = append(options, opt)
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"cabins": options})
}

// countOpenCabins derives per-type counts of cabins whose status resolves to
// Available right now. Shares the one status resolver with the staff views.
func countOpenCabins(cabins []reservex.Cabin, today time.Time) map[pricing.CabinType]int {
	out := map[pricing.CabinType]int{}
	for _, c := range cabins {
		t, err := pricing.ParseCabinType(c.Type)
		if err != nil {
			continue
		}
		manual, err := cabin.ParseStatus(c.ManualStatus)
		if err != nil {
			manual = cabin.StatusAvailable
		}
		occ := cabin.Occupancy{Manual: manual, TripStart: c.TripStart, TripEnd: c.TripEnd}
		if cabin.Resolve(occ, today) == cabin.StatusAvailable {
			out[t]++
		}
	}
	return out
}

var (
	errWrongStep      = errors.New("booking: wrong step")
	errSubmitInFlight = errors.New("booking: submit in flight")
)

type validationErr struct{ fields map[string]string }

func (e validationErr) Error() string { return "validation failed" }

// Submit runs the final commit sequence. The session is snapshotted under the
// busy flag so a double-click cannot start a second submission, and it stays
// untouched when the booking-creation call fails so the user can retry.
func (h Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var snap Session
	err := h.Store.Update(id, func(s *Session) error {
		if s.Step != StepPayment {
			return errWrongStep
		}
		// A PATCH while parked on this step can invalidate earlier steps, so
		// every step revalidates before the irreversible create call fires.
		for step := StepSummary; step <= StepPayment; step++ {
			if errs := s.ValidateStep(step); len(errs) > 0 {
				return validationErr{fields: errs}
			}
		}
		if err := s.BeginSubmit(); err != nil {
			return errSubmitInFlight
		}
		snap = *s
		return nil
	})
	switch {
	case errors.Is(err, ErrSessionNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
		return
	case errors.Is(err, errWrongStep):
		api.WriteError(w, http.StatusConflict, "WRONG_STEP", "submission is only possible from the payment step")
		return
	case errors.Is(err, errSubmitInFlight):
		api.WriteError(w, http.StatusConflict, "SUBMIT_IN_FLIGHT", "a submission is already in flight")
		return
	case err != nil:
		var verr validationErr
		if errors.As(err, &verr) {
			api.WriteFieldErrors(w, verr.fields)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	result, submitErr := h.Orchestrator.Submit(r.Context(), toOrder(snap))

	_ = h.Store.Update(id, func(s *Session) error {
		s.EndSubmit()
		if submitErr == nil {
			s.MarkSuccess()
		}
		return nil
	})

	if submitErr != nil {
		// Fatal: the booking was not created. Session state is preserved for
		// an edit or a manual retry; nothing retries automatically.
		api.WriteError(w, http.StatusBadGateway, "SUBMIT_REJECTED", "booking could not be created")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": result})
}

// toOrder snapshots a session into the orchestrator's input, primary first.
func toOrder(s Session) submit.Order {
	roster := make([]reservex.PassengerRecord, 0, 1+len(s.Additional))
	for _, p := range s.Passengers() {
		roster = append(roster, reservex.PassengerRecord{
			FullName:    p.FullName,
			Gender:      p.Gender,
			Citizenship: p.Citizenship,
			Age:         p.Age,
			Email:       p.Email,
			IsChild:     p.IsChild,
		})
	}
	return submit.Order{
		ItineraryID: s.ItineraryID,
		ShipID:      s.ShipID,
		CabinType:   string(s.CabinType),
		Adults:      s.Adults,
		Children:    s.Children,
		Passengers:  roster,
		TotalPrice:  s.TotalPrice,
		Payment: reservex.PaymentSummary{
			CardholderName: s.Payment.CardholderName,
			CardNumber:     s.Payment.CardNumber,
			Expiry:         s.Payment.Expiry,
			CVC:            s.Payment.CVC,
		},
	}
}

// Complete acknowledges navigation away from the success view and resets the
// session to an empty first step.
func (h Handlers) Complete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var snap Session
	err := h.Store.Update(id, func(s *Session) error {
		if s.Step != StepSuccess {
			return errWrongStep
		}
		s.Reset()
		snap = *s
		return nil
	})
	switch {
	case errors.Is(err, ErrSessionNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
		return
	case errors.Is(err, errWrongStep):
		api.WriteError(w, http.StatusConflict, "WRONG_STEP", "no completed submission to acknowledge")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"session": toView(snap)})
}

// Destroy handles explicit user-initiated exit. Destroying a session mid-flow
// loses entered data, so the caller must confirm.
func (h Handlers) Destroy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if strings.ToLower(r.URL.Query().Get("confirm")) != "true" {
		api.WriteError(w, http.StatusBadRequest, "CONFIRM_REQUIRED", "pass confirm=true to discard the session")
		return
	}

	h.Store.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}
