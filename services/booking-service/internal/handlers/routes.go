package handlers

import (
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
)

// Register mounts the public and admin routes on mux. Admin routes rely on the gateway
// for authentication.
func Register(mux *http.ServeMux, engine *scheduling.Engine, logger *slog.Logger) {
	avail := NewAvailabilityHandler(engine, logger)
	booking := NewBookingHandler(engine, logger)

	mux.HandleFunc("/api/v1/public/availability", avail.List)
	mux.HandleFunc("/api/v1/public/occupancy", avail.Occupancy)
	mux.HandleFunc("/api/v1/public/slots", avail.Slots)
	mux.HandleFunc("/api/v1/public/book", booking.Create)

	mux.HandleFunc("/api/v1/admin/availability", avail.Collection)
	mux.HandleFunc("/api/v1/admin/availability/{id}", avail.Item)
	mux.HandleFunc("/api/v1/admin/availability/{id}/deletable", avail.Deletable)
	mux.HandleFunc("/api/v1/admin/bookings", booking.List)
}
