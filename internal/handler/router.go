package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	custommiddleware "github.com/mmeshcher/rental-pricing/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса бронирований.
func (h *Handler) SetupRouter(allowedOrigins ...string) *chi.Mux {
	r := chi.NewRouter()

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(custommiddleware.Gzip(writeMalformedBody))
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/policies", h.GetPolicies)
		r.Get("/listings/{id}", h.GetListing)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/quotes", h.CreateQuote)

			r.Post("/bookings", h.CreateBooking)
			r.Get("/bookings", h.ListBookings)
			r.Get("/bookings/{id}", h.GetBooking)
			r.Get("/bookings/{id}/refund", h.GetRefundPreview)
			r.Post("/bookings/{id}/cancel", h.CancelBooking)

			r.Post("/host/listings", h.CreateListing)
			r.Get("/host/payouts", h.GetPayouts)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeInvalidRequest, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
