package cabin

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cruiseline/internal/api"
	"cruiseline/pkg/reservex"
)

// Fleet is the slice of the reservations backend the inventory view reads.
type Fleet interface {
	ListCabins(ctx context.Context, shipID string) ([]reservex.Cabin, error)
}

type Handlers struct {
	Fleet Fleet
}

type inventoryRow struct {
	Number       string     `json:"number"`
	Type         string     `json:"type"`
	Status       Status     `json:"status"`
	ManualStatus string     `json:"manualStatus"`
	TripStart    *time.Time `json:"tripStart,omitempty"`
	TripEnd      *time.Time `json:"tripEnd,omitempty"`
}

// Inventory is the staff-facing per-cabin status listing for a ship. Status
// is derived on every request through Resolve and never stored.
// An optional ?status= query filters rows; ?date=YYYY-MM-DD overrides "today"
// for planning ahead.
func (h Handlers) Inventory(w http.ResponseWriter, r *http.Request) {
	shipID := chi.URLParam(r, "shipID")
	if shipID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing ship id")
		return
	}

	today := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "date must be YYYY-MM-DD")
			return
		}
		today = t
	}

	var filter Status
	if f := r.URL.Query().Get("status"); f != "" {
		s, err := ParseStatus(f)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
			return
		}
		filter = s
	}

	cabins, err := h.Fleet.ListCabins(r.Context(), shipID)
	if err != nil {
		api.WriteError(w, http.StatusBadGateway, "LOOKUP_FAILED", "cabin list lookup failed")
		return
	}

	rows := make([]inventoryRow, 0, len(cabins))
	for _, c := range cabins {
		manual, err := ParseStatus(c.ManualStatus)
		if err != nil {
			manual = StatusAvailable
		}
		status := Resolve(Occupancy{Manual: manual, TripStart: c.TripStart, TripEnd: c.TripEnd}, today)
		if filter != "" && status != filter {
			continue
		}
		rows = append(rows, inventoryRow{
			Number:       c.Number,
			Type:         c.Type,
			Status:       status,
			ManualStatus: c.ManualStatus,
			TripStart:    c.TripStart,
			TripEnd:      c.TripEnd,
		})
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"cabins": rows})
}
