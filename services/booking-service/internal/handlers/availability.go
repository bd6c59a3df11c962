package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
)

type AvailabilityHandler struct {
	engine *scheduling.Engine
	logger *slog.Logger
}

func NewAvailabilityHandler(engine *scheduling.Engine, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{engine: engine, logger: logger}
}

type windowItem struct {
	ID        string `json:"id"`
	DoctorID  int64  `json:"doctor_id"`
	Date      string `json:"date"`
	DayOfWeek string `json:"day_of_week"`
	Session   string `json:"session"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	UpdatedAt string `json:"updated_at"`
}

type createWindowRequest struct {
	DoctorID  int64  `json:"doctor_id"`
	Date      string `json:"date"`
	Session   string `json:"session"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type updateWindowRequest struct {
	Date      *string `json:"date"`
	Session   *string `json:"session"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

type slotItem struct {
	Time      string `json:"time"`
	Session   string `json:"session"`
	Booked    int    `json:"booked"`
	Available int    `json:"available"`
	Full      bool   `json:"full"`
}

type slotsResponse struct {
	DoctorID int64      `json:"doctor_id"`
	Date     string     `json:"date"`
	Capacity int        `json:"capacity"`
	Slots    []slotItem `json:"slots"`
}

type occupancyResponse struct {
	DoctorID  int64          `json:"doctor_id"`
	Date      string         `json:"date"`
	Occupancy map[string]int `json:"occupancy"`
}

// List answers GET ?doctor_id= with the doctor's windows ordered by date and start.
func (h *AvailabilityHandler) List(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodGet) {
		return
	}
	doctorID, ok := doctorParam(w, r)
	if !ok {
		return
	}
	windows, err := h.engine.ListWindows(r.Context(), doctorID)
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toWindowItems(windows))
}

// Collection serves the admin GET (list) and POST (create) on /availability.
func (h *AvailabilityHandler) Collection(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodGet {
		h.List(w, r)
		return
	}

	var req createWindowRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, string(scheduling.ReasonInvalidField), err.Error())
		return
	}
	if req.DoctorID <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, string(scheduling.ReasonMissingFields), "missing required fields: doctor_id")
		return
	}
	win, err := h.engine.CreateWindow(r.Context(), req.DoctorID, scheduling.WindowInput{
		Date:      req.Date,
		Session:   req.Session,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toWindowItem(win))
}

// Item serves PATCH and DELETE on /availability/{id}.
func (h *AvailabilityHandler) Item(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodPatch, http.MethodPut, http.MethodDelete) {
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))

	if r.Method == http.MethodDelete {
		if err := h.engine.DeleteWindow(r.Context(), id); err != nil {
			writeEngineError(w, r, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var req updateWindowRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, string(scheduling.ReasonInvalidField), err.Error())
		return
	}
	win, err := h.engine.UpdateWindow(r.Context(), id, scheduling.WindowPatch{
		Date:      req.Date,
		Session:   req.Session,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toWindowItem(win))
}

// Deletable reports whether DELETE would succeed without deleting anything.
func (h *AvailabilityHandler) Deletable(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodGet) {
		return
	}
	if err := h.engine.CanDelete(r.Context(), r.PathValue("id")); err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"deletable": true})
}

func (h *AvailabilityHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodGet) {
		return
	}
	doctorID, ok := doctorParam(w, r)
	if !ok {
		return
	}
	date := r.URL.Query().Get("date")
	occ, err := h.engine.Occupancy(r.Context(), doctorID, date)
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}
	resp := occupancyResponse{DoctorID: doctorID, Date: strings.TrimSpace(date), Occupancy: make(map[string]int, len(occ))}
	for t, n := range occ {
		resp.Occupancy[t.String()] = n
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodGet) {
		return
	}
	doctorID, ok := doctorParam(w, r)
	if !ok {
		return
	}
	date := r.URL.Query().Get("date")
	slots, err := h.engine.Slots(r.Context(), doctorID, date)
	if err != nil {
		writeEngineError(w, r, h.logger, err)
		return
	}
	resp := slotsResponse{
		DoctorID: doctorID,
		Date:     strings.TrimSpace(date),
		Capacity: h.engine.Capacity(),
		Slots:    make([]slotItem, 0, len(slots)),
	}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, slotItem{
			Time:      s.Time.String(),
			Session:   string(s.Session),
			Booked:    s.Booked,
			Available: max(s.Capacity-s.Booked, 0),
			Full:      s.Full(),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func doctorParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("doctor_id"))
	if raw == "" {
		httpx.WriteError(w, http.StatusBadRequest, string(scheduling.ReasonMissingFields), "doctor_id is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, string(scheduling.ReasonInvalidField), "doctor_id must be a positive integer")
		return 0, false
	}
	return id, true
}

func toWindowItems(windows []model.AvailabilityWindow) []windowItem {
	items := make([]windowItem, 0, len(windows))
	for _, win := range windows {
		items = append(items, toWindowItem(win))
	}
	return items
}

func toWindowItem(win model.AvailabilityWindow) windowItem {
	return windowItem{
		ID:        win.ID,
		DoctorID:  win.DoctorID,
		Date:      win.Date.String(),
		DayOfWeek: win.DayOfWeek().String()[:3],
		Session:   string(win.Session),
		StartTime: win.Start.String(),
		EndTime:   win.End.String(),
		UpdatedAt: win.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
