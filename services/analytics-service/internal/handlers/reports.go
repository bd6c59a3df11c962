package handlers

import (
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/services/analytics-service/internal/reports"
)

type ReportHandler struct {
	service *reports.Service
	logger  *slog.Logger
}

func Register(mux *http.ServeMux, service *reports.Service, logger *slog.Logger) {
	h := &ReportHandler{service: service, logger: logger}
	mux.HandleFunc("/api/v1/admin/reports", h.Get)
}

// Get serves ?period=weekly|monthly&date=YYYY-MM-DD.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !httpx.AllowMethods(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	period, err := reports.ParsePeriod(q.Get("period"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "InvalidPeriod", err.Error())
		return
	}
	var day calendar.Date
	if raw := q.Get("date"); raw != "" {
		day, err = calendar.ParseDate(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "InvalidDate", err.Error())
			return
		}
	}
	report, err := h.service.Build(r.Context(), period, day)
	if err != nil {
		h.logger.Error("report failed", "err", err, "period", period, "request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusInternalServerError, "StorageUnavailable", "internal error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}
