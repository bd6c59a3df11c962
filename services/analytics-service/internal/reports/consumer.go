package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/md-rashed-zaman/clinicslots/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// Counter adds one booking to the daily metrics. It returns false when eventID was
// already counted.
type Counter interface {
	Count(ctx context.Context, eventID string, b Booked) (bool, error)
}

type bookedPayload struct {
	BookingID      string        `json:"booking_id"`
	DoctorID       int64         `json:"doctor_id"`
	DoctorName     string        `json:"doctor_name"`
	DepartmentID   int64         `json:"department_id"`
	DepartmentName string        `json:"department_name"`
	Date           calendar.Date `json:"date"`
}

// BookedHandler returns the kafkax.Handler for appointment-booked events.
func BookedHandler(counter Counter, logger *slog.Logger) kafkax.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var p bookedPayload
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			logger.Error("invalid booked payload", "err", err)
			return nil
		}
		if p.BookingID == "" || p.DoctorID <= 0 || p.Date.IsZero() {
			logger.Error("booked event missing fields", "booking_id", p.BookingID)
			return nil
		}
		meta := kafkax.ExtractEventMeta(msg)
		if meta.EventID == "" {
			meta.EventID = p.BookingID
		}
		fresh, err := counter.Count(ctx, meta.EventID, Booked{
			BookingID:      p.BookingID,
			DoctorID:       p.DoctorID,
			DoctorName:     p.DoctorName,
			DepartmentID:   p.DepartmentID,
			DepartmentName: p.DepartmentName,
			Date:           p.Date,
		})
		if err != nil {
			return fmt.Errorf("count booking %s: %w", p.BookingID, err)
		}
		if !fresh {
			logger.Info("duplicate booked event ignored", "event_id", meta.EventID)
			return nil
		}
		logger.Info("booking metric recorded", "booking_id", p.BookingID, "doctor_id", p.DoctorID, "date", p.Date.String())
		return nil
	}
}
