// simbackend is a throwaway in-memory stand-in for the reservations backend,
// good enough to exercise the whole booking flow locally. Flags simulate the
// failure modes the workflow has to survive.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

var bookingSeq = 1000

func main() {
	var (
		addr           = flag.String("addr", ":9090", "listen address")
		basePrice      = flag.Int("base-price", 500, "itinerary base price per person")
		withPricing    = flag.Bool("pricing-record", true, "serve a per-type pricing record (false forces base-price fallback)")
		soldOut        = flag.String("sold-out", "", "cabin type to report as sold out (e.g. suite)")
		rejectBookings = flag.Bool("reject-bookings", false, "reject all booking creations")
		failPassengers = flag.Bool("fail-passengers", false, "fail the passenger batch-add call")
		failEmail      = flag.Bool("fail-email", false, "fail the confirmation dispatch call")
	)
	flag.Parse()

	start := time.Now().AddDate(0, 1, 0)
	end := start.AddDate(0, 0, 7)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/itineraries", func(w http.ResponseWriter, r *http.Request) {
		dest := strings.ToLower(r.URL.Query().Get("destination"))
		if dest != "caribbean" {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "no itinerary for destination"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"itinerary": map[string]any{
				"id":          "it-100",
				"destination": "caribbean",
				"route":       "miami-cozumel-nassau",
				"shipId":      "ship-1",
				"startDate":   start,
				"endDate":     end,
				"basePrice":   *basePrice,
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
		if !*withPricing {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "no pricing record"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"pricing": map[string]any{"interior": 450, "oceanView": 580, "balcony": 690, "suite": 950},
		})
	})

	mux.HandleFunc("GET /v1/cabin-availability", func(w http.ResponseWriter, r *http.Request) {
		counts := map[string]map[string]int{
			"interior":  {"available": 12, "totalCapacity": 40},
			"oceanView": {"available": 6, "totalCapacity": 30},
			"balcony":   {"available": 3, "totalCapacity": 20},
			"suite":     {"available": 1, "totalCapacity": 8},
		}
		if *soldOut != "" {
			if c, ok := counts[*soldOut]; ok {
				c["available"] = 0
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "availability": counts})
	})

	mux.HandleFunc("GET /v1/ships/{id}/cabins", func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		past := now.AddDate(0, 0, -10)
		recent := now.AddDate(0, 0, -2)
		soon := now.AddDate(0, 0, 5)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"cabins": []map[string]any{
				{"number": "A101", "type": "interior", "manualStatus": "Available"},
				{"number": "A102", "type": "interior", "manualStatus": "Maintenance"},
				{"number": "B201", "type": "oceanView", "manualStatus": "Available", "tripStart": recent, "tripEnd": soon},
				{"number": "C301", "type": "balcony", "manualStatus": "Available", "tripStart": soon, "tripEnd": soon.AddDate(0, 0, 7)},
				{"number": "D401", "type": "suite", "manualStatus": "Booked", "tripStart": past, "tripEnd": recent},
			},
		})
	})

	mux.HandleFunc("POST /v1/bookings", func(w http.ResponseWriter, r *http.Request) {
		if *rejectBookings {
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": "cabin type exhausted"})
			return
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		bookingSeq++
		log.Printf("booking created: %v total=%v", bookingSeq, req["totalPrice"])
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"booking": map[string]any{"bookingId": fmt.Sprintf("bk-%d", bookingSeq), "cabinNumber": "B204"},
		})
	})

	mux.HandleFunc("POST /v1/bookings/{id}/passengers", func(w http.ResponseWriter, r *http.Request) {
		if *failPassengers {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "passenger store unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	mux.HandleFunc("POST /v1/notifications/confirmation", func(w http.ResponseWriter, r *http.Request) {
		if *failEmail {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "smtp unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	log.Printf("simbackend listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
