package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cruiseline/internal/api"
	"cruiseline/internal/availability"
	"cruiseline/internal/booking"
	"cruiseline/internal/cabin"
	"cruiseline/internal/pricing"
	"cruiseline/internal/submit"
	"cruiseline/pkg/config"
	"cruiseline/pkg/reservex"
)

type Dependencies struct {
	Cfg    config.Config
	Client reservex.Client
	Store  *booking.Store
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	bookingHandlers := booking.Handlers{
		Store:        deps.Store,
		Catalog:      deps.Client,
		Pricing:      pricing.Engine{Catalog: deps.Client},
		Availability: availability.Service{Catalog: deps.Client},
		Orchestrator: submit.Orchestrator{Backend: deps.Client},
	}
	inventoryHandlers := cabin.Handlers{Fleet: deps.Client}

	submitLimiter := api.NewSubmitLimiter(deps.Cfg.SubmitRatePerMinute)
	sessionKey := func(r *http.Request) string { return chi.URLParam(r, "id") }

	r.Route("/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Use(api.CORSMiddleware(api.CORSOptions{
				AllowedOrigins: deps.Cfg.BookingAllowedOrigins,
			}))

			// Dropping the session's limiter entry alongside the session
			// keeps the limiter map from outliving the sessions it guards.
			forgetLimiter := func(next http.HandlerFunc) http.HandlerFunc {
				return func(w http.ResponseWriter, req *http.Request) {
					next(w, req)
					submitLimiter.Forget(chi.URLParam(req, "id"))
				}
			}

			r.Post("/", bookingHandlers.Create)
			r.Get("/{id}", bookingHandlers.Get)
			r.Patch("/{id}", bookingHandlers.Patch)
			r.Delete("/{id}", forgetLimiter(bookingHandlers.Destroy))

			r.Post("/{id}/advance", bookingHandlers.Advance)
			r.Post("/{id}/back", bookingHandlers.Back)
			r.Get("/{id}/cabins", bookingHandlers.Cabins)
			r.Post("/{id}/complete", forgetLimiter(bookingHandlers.Complete))

			r.Group(func(r chi.Router) {
				r.Use(submitLimiter.Middleware(sessionKey))
				r.Post("/{id}/submit", bookingHandlers.Submit)
			})
		})

		// Staff inventory
		r.Get("/inventory/{shipID}/cabins", inventoryHandlers.Inventory)
	})

	return r
}
