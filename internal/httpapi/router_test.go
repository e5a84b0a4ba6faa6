package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cruiseline/internal/booking"
	"cruiseline/pkg/config"
	"cruiseline/pkg/reservex"
)

// fakeBackend is an in-memory reservations backend with switchable failures.
type fakeBackend struct {
	mu sync.Mutex

	rejectBookings bool
	failPassengers bool

	bookingCalls   int
	passengerCalls int
	confirmCalls   int
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/itineraries", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("destination") != "caribbean" {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "no itinerary"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"itinerary": map[string]any{
				"id": "it-100", "destination": "caribbean", "route": "miami-cozumel-nassau",
				"shipId": "ship-1",
				"startDate": time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
				"endDate":   time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC),
				"basePrice": 500,
			},
		})
	})
	mux.HandleFunc("GET /v1/ships/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"ship":    map[string]any{"id": r.PathValue("id"), "name": "MS Meridian Star"},
		})
	})
	mux.HandleFunc("GET /v1/cabin-pricing", func(w http.ResponseWriter, r *http.Request) {
		// No per-type record: the flow must synthesize from the base price.
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "no pricing record"})
	})
	mux.HandleFunc("GET /v1/cabin-availability", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"availability": map[string]any{
				"interior":  map[string]int{"available": 10, "totalCapacity": 40},
				"oceanView": map[string]int{"available": 5, "totalCapacity": 30},
				"balcony":   map[string]int{"available": 2, "totalCapacity": 20},
				"suite":     map[string]int{"available": 0, "totalCapacity": 8},
			},
		})
	})
	mux.HandleFunc("GET /v1/ships/{id}/cabins", func(w http.ResponseWriter, r *http.Request) {
		start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"cabins": []map[string]any{
				{"number": "A101", "type": "interior", "manualStatus": "Available"},
				{"number": "A102", "type": "interior", "manualStatus": "Maintenance"},
				{"number": "C301", "type": "balcony", "manualStatus": "Available", "tripStart": start, "tripEnd": end},
			},
		})
	})
	mux.HandleFunc("POST /v1/bookings", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.bookingCalls++
		reject := f.rejectBookings
		f.mu.Unlock()
		if reject {
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": "cabin type exhausted"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"booking": map[string]any{"bookingId": "bk-1", "cabinNumber": "B204"},
		})
	})
	mux.HandleFunc("POST /v1/bookings/{id}/passengers", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.passengerCalls++
		fail := f.failPassengers
		f.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "store down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("POST /v1/notifications/confirmation", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.confirmCalls++
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type testEnv struct {
	t       *testing.T
	api     *httptest.Server
	backend *fakeBackend
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := &fakeBackend{}
	backendSrv := httptest.NewServer(backend.handler())
	t.Cleanup(backendSrv.Close)

	cfg := config.Config{SubmitRatePerMinute: 600}
	router := NewRouter(Dependencies{
		Cfg:    cfg,
		Client: reservex.Client{BaseURL: backendSrv.URL},
		Store:  booking.NewStore(time.Hour),
	})
	api := httptest.NewServer(router)
	t.Cleanup(api.Close)

	return &testEnv{t: t, api: api, backend: backend}
}

func (e *testEnv) do(method, path string, body any) (int, map[string]any) {
	e.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.api.URL+path, &buf)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (e *testEnv) newSession() string {
	e.t.Helper()
	status, out := e.do(http.MethodPost, "/v1/sessions", nil)
	require.Equal(e.t, http.StatusCreated, status)
	sess := out["session"].(map[string]any)
	return sess["id"].(string)
}

// driveToPayment walks a session through summary, passengers and cabin.
func (e *testEnv) driveToPayment(id string) {
	e.t.Helper()
	base := "/v1/sessions/" + id

	status, _ := e.do(http.MethodPatch, base, map[string]any{
		"destination": "caribbean", "adults": 2, "children": 1,
	})
	require.Equal(e.t, http.StatusOK, status)
	status, out := e.do(http.MethodPost, base+"/advance", nil)
	require.Equal(e.t, http.StatusOK, status, "summary advance: %v", out)

	status, _ = e.do(http.MethodPatch, base, map[string]any{
		"primaryPassenger": map[string]any{
			"fullName": "Avery Lane", "gender": "female", "citizenship": "US",
			"age": 41, "email": "avery@example.com",
		},
		"additionalPassengers": []map[string]any{
			{"fullName": "Jordan Lane", "gender": "male", "citizenship": "US", "age": 39},
			{"fullName": "Sam Lane", "gender": "male", "citizenship": "US", "age": 8},
		},
	})
	require.Equal(e.t, http.StatusOK, status)
	status, out = e.do(http.MethodPost, base+"/advance", nil)
	require.Equal(e.t, http.StatusOK, status, "passengers advance: %v", out)

	// Listing cabins resolves and stores the quote.
	status, out = e.do(http.MethodGet, base+"/cabins", nil)
	require.Equal(e.t, http.StatusOK, status)

	status, _ = e.do(http.MethodPatch, base, map[string]any{"cabinType": "balcony"})
	require.Equal(e.t, http.StatusOK, status)
	status, out = e.do(http.MethodPost, base+"/advance", nil)
	require.Equal(e.t, http.StatusOK, status, "cabin advance: %v", out)

	status, _ = e.do(http.MethodPatch, base, map[string]any{
		"payment": map[string]any{
			"cardholderName": "Avery Lane", "cardNumber": "4242424242424242",
			"expiry": "12/28", "cvc": "123",
		},
	})
	require.Equal(e.t, http.StatusOK, status)
}

func TestFullBookingFlow(t *testing.T) {
	env := newTestEnv(t)
	id := env.newSession()
	base := "/v1/sessions/" + id

	env.driveToPayment(id)

	// Base price 500 synthesized -> balcony 750; 2 adults + 1 child -> 1875.
	status, out := env.do(http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	sess := out["session"].(map[string]any)
	require.Equal(t, "payment", sess["step"])
	require.Equal(t, "1875", sess["totalPrice"])

	status, out = env.do(http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, status, "submit: %v", out)
	res := out["booking"].(map[string]any)
	require.Equal(t, "bk-1", res["bookingId"])
	require.Equal(t, "B204", res["cabinNumber"])
	require.Equal(t, true, res["passengersPersisted"])
	require.Equal(t, true, res["confirmationSent"])

	// Navigating away from the success view resets the session.
	status, out = env.do(http.MethodPost, base+"/complete", nil)
	require.Equal(t, http.StatusOK, status)
	sess = out["session"].(map[string]any)
	require.Equal(t, "summary", sess["step"])
	require.NotContains(t, sess, "destination")
}

func TestCabinsListing(t *testing.T) {
	env := newTestEnv(t)
	id := env.newSession()
	base := "/v1/sessions/" + id

	status, _ := env.do(http.MethodPatch, base, map[string]any{"destination": "caribbean"})
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, status)

	status, out := env.do(http.MethodGet, base+"/cabins", nil)
	require.Equal(t, http.StatusOK, status)

	byType := map[string]map[string]any{}
	for _, raw := range out["cabins"].([]any) {
		opt := raw.(map[string]any)
		byType[opt["type"].(string)] = opt
	}

	require.Equal(t, "650", byType["oceanView"]["price"])
	require.Equal(t, true, byType["oceanView"]["selectable"])
	// Sold out: price known but not selectable.
	require.Equal(t, "1000", byType["suite"]["price"])
	require.Equal(t, false, byType["suite"]["selectable"])
}

func TestSubmitRejectionPreservesSession(t *testing.T) {
	env := newTestEnv(t)
	env.backend.rejectBookings = true

	id := env.newSession()
	base := "/v1/sessions/" + id
	env.driveToPayment(id)

	status, out := env.do(http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusBadGateway, status)
	errObj := out["error"].(map[string]any)
	require.Equal(t, "SUBMIT_REJECTED", errObj["code"])

	// No ancillary calls were attempted after the fatal failure.
	require.Equal(t, 1, env.backend.bookingCalls)
	require.Zero(t, env.backend.passengerCalls)
	require.Zero(t, env.backend.confirmCalls)

	// The session is intact on the payment step for a manual retry.
	status, out = env.do(http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	sess := out["session"].(map[string]any)
	require.Equal(t, "payment", sess["step"])
	require.Equal(t, "caribbean", sess["destination"])
	require.Equal(t, false, sess["submitting"])

	// Retrying after the backend recovers succeeds.
	env.backend.rejectBookings = false
	status, _ = env.do(http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestSubmitRevalidatesEarlierSteps(t *testing.T) {
	env := newTestEnv(t)
	id := env.newSession()
	base := "/v1/sessions/" + id
	env.driveToPayment(id)

	// Inflate the party past the cap while parked on the payment step. The
	// patch itself is accepted (patches never validate), but the submit must
	// refuse before anything irreversible happens.
	status, _ := env.do(http.MethodPatch, base, map[string]any{"adults": 9})
	require.Equal(t, http.StatusOK, status)

	status, out := env.do(http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	errObj := out["error"].(map[string]any)
	require.Equal(t, "VALIDATION_FAILED", errObj["code"])
	fields := errObj["fields"].(map[string]any)
	require.Contains(t, fields, "guests")

	require.Zero(t, env.backend.bookingCalls)

	// Restoring a valid party lets the submit through again.
	status, _ = env.do(http.MethodPatch, base, map[string]any{"adults": 2})
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestSubmitSucceedsWhenPassengerPersistFails(t *testing.T) {
	env := newTestEnv(t)
	env.backend.failPassengers = true

	id := env.newSession()
	env.driveToPayment(id)

	status, out := env.do(http.MethodPost, "/v1/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, status)
	res := out["booking"].(map[string]any)
	require.Equal(t, false, res["passengersPersisted"])
	require.Equal(t, true, res["confirmationSent"])
}

func TestValidationErrorsCarryFieldKeys(t *testing.T) {
	env := newTestEnv(t)
	id := env.newSession()
	base := "/v1/sessions/" + id

	status, _ := env.do(http.MethodPatch, base, map[string]any{"destination": "caribbean"})
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, status)

	// Advance the passengers step with an empty roster.
	status, out := env.do(http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	errObj := out["error"].(map[string]any)
	require.Equal(t, "VALIDATION_FAILED", errObj["code"])
	fields := errObj["fields"].(map[string]any)
	require.Contains(t, fields, "passenger.0.fullName")
	require.Contains(t, fields, "passenger.0.email")
}

func TestUnknownDestinationIsAFieldError(t *testing.T) {
	env := newTestEnv(t)
	id := env.newSession()
	base := "/v1/sessions/" + id

	status, _ := env.do(http.MethodPatch, base, map[string]any{"destination": "atlantis"})
	require.Equal(t, http.StatusOK, status)

	status, out := env.do(http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	fields := out["error"].(map[string]any)["fields"].(map[string]any)
	require.Contains(t, fields, "destination")
}

func TestDestroyRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)
	id := env.newSession()
	base := "/v1/sessions/" + id

	status, out := env.do(http.MethodDelete, base, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "CONFIRM_REQUIRED", out["error"].(map[string]any)["code"])

	status, _ = env.do(http.MethodDelete, base+"?confirm=true", nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = env.do(http.MethodGet, base, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestStaffInventoryDerivesStatus(t *testing.T) {
	env := newTestEnv(t)

	// Pinned before the cruise window, so C301 resolves to Booked.
	status, out := env.do(http.MethodGet, "/v1/inventory/ship-1/cabins?date=2026-09-15", nil)
	require.Equal(t, http.StatusOK, status)

	byNumber := map[string]map[string]any{}
	for _, raw := range out["cabins"].([]any) {
		row := raw.(map[string]any)
		byNumber[row["number"].(string)] = row
	}

	require.Equal(t, "Available", byNumber["A101"]["status"])
	require.Equal(t, "Maintenance", byNumber["A102"]["status"])
	require.Equal(t, "Booked", byNumber["C301"]["status"])

	// Filtered view.
	status, out = env.do(http.MethodGet, "/v1/inventory/ship-1/cabins?status=Maintenance", nil)
	require.Equal(t, http.StatusOK, status)
	rows := out["cabins"].([]any)
	require.Len(t, rows, 1)
	require.Equal(t, "A102", rows[0].(map[string]any)["number"])
}
