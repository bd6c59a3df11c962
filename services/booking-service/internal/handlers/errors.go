package handlers

import (
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
)

func statusFor(kind scheduling.Kind) int {
	switch kind {
	case scheduling.KindValidation:
		return http.StatusBadRequest
	case scheduling.KindConflict, scheduling.KindCapacity, scheduling.KindDependentState:
		return http.StatusConflict
	case scheduling.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError renders an engine failure. Persistence details stay in the log.
func writeEngineError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := scheduling.KindOf(err)
	reason := string(scheduling.ReasonOf(err))
	if kind == scheduling.KindPersistence {
		logger.Error("request failed", "err", err, "path", r.URL.Path, "request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusInternalServerError, string(scheduling.ReasonStorageUnavailable), "internal error")
		return
	}
	httpx.WriteError(w, statusFor(kind), reason, err.Error())
}
