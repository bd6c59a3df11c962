package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
)

// IdempotencyHeader lets clients retry a booking without creating a second one.
const IdempotencyHeader = "Idempotency-Key"

type BookingHandler struct {
	engine *scheduling.Engine
	logger *slog.Logger
}

func NewBookingHandler(engine *scheduling.Engine, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{engine: engine, logger: logger}
}

type createBookingRequest struct {
	DoctorID    int64  `json:"doctor_id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	PatientName string `json:"patient_name"`
	OPNumber    string `json:"op_number"`
	Mobile      string `json:"mobile"`
	Email       string `json:"email"`
}

type bookingItem struct {
	BookingID      string `json:"booking_id"`
	DoctorID       int64  `json:"doctor_id"`
	DoctorName     string `json:"doctor_name"`
	DepartmentName string `json:"department_name,omitempty"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	PatientName    string `json:"patient_name"`
	OPNumber       string `json:"op_number"`
	Mobile         string `json:"mobile"`
	Email          string `json:"email"`
	CreatedAt      string `json:"created_at"`
}

type createBookingResponse struct {
	Message  string      `json:"message"`
	Replayed bool        `json:"replayed,omitempty"`
	Booking  bookingItem `json:"booking"`
}

// Create is the public booking endpoint.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodPost) {
		return
	}
	var req createBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, string(scheduling.ReasonInvalidField), err.Error())
		return
	}

	adm, err := h.engine.TryBook(r.Context(), scheduling.BookingRequest{
		DoctorID:       req.DoctorID,
		Date:           req.Date,
		Time:           req.Time,
		PatientName:    req.PatientName,
		OPNumber:       req.OPNumber,
		Mobile:         req.Mobile,
		Email:          req.Email,
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	})
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}

	status := http.StatusCreated
	if adm.Replayed {
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, createBookingResponse{
		Message:  "Appointment booked successfully",
		Replayed: adm.Replayed,
		Booking:  toBookingItem(adm.Booking),
	})
}

// List is the admin listing, filtered by ?date=&doctor=&patient=.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	bookings, err := h.engine.ListBookings(r.Context(), q.Get("date"), q.Get("doctor"), q.Get("patient"))
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}
	items := make([]bookingItem, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, toBookingItem(b))
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func toBookingItem(b model.Booking) bookingItem {
	return bookingItem{
		BookingID:      b.ID,
		DoctorID:       b.DoctorID,
		DoctorName:     b.DoctorName,
		DepartmentName: b.DepartmentName,
		Date:           b.Date.String(),
		Time:           b.Time.String(),
		PatientName:    b.PatientName,
		OPNumber:       b.OPNumber,
		Mobile:         b.Mobile,
		Email:          strings.ToLower(b.Email),
		CreatedAt:      b.CreatedAt.UTC().Format(time.RFC3339),
	}
}
