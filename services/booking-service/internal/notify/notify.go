// Package notify hands booking confirmations to the notification pipeline.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/md-rashed-zaman/clinicslots/libs/kafkax"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
)

// Appender is satisfied by *outbox.Repository.
type Appender interface {
	Append(ctx context.Context, evt outbox.Event) error
}

// Outbox records an appointment-booked event; the publisher relays it to Kafka and the
// notification service sends the email.
type Outbox struct {
	events Appender
}

func NewOutbox(events Appender) *Outbox {
	return &Outbox{events: events}
}

func (o *Outbox) BookingConfirmed(ctx context.Context, n scheduling.Notice) error {
	payload, err := json.Marshal(Payload(n))
	if err != nil {
		return fmt.Errorf("encode booked event: %w", err)
	}
	return o.events.Append(ctx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   n.BookingID,
		EventType:     kafkax.TopicAppointmentBooked,
		Payload:       payload,
	})
}

func Payload(n scheduling.Notice) outbox.AppointmentBooked {
	return outbox.AppointmentBooked{
		BookingID:      n.BookingID,
		DoctorID:       n.DoctorID,
		DoctorName:     n.DoctorName,
		DepartmentID:   n.DepartmentID,
		DepartmentName: n.DepartmentName,
		Date:           n.Date,
		Time:           n.Time,
		PatientName:    n.PatientName,
		OPNumber:       n.OPNumber,
		Email:          n.Email,
		Mobile:         n.Mobile,
		BookedAt:       n.BookedAt,
	}
}

// Log only writes the confirmation to the service log. It is used in memory mode.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) BookingConfirmed(_ context.Context, n scheduling.Notice) error {
	l.logger.Info("booking confirmation",
		"booking_id", n.BookingID,
		"doctor", n.DoctorName,
		"date", n.Date.String(),
		"time", n.Time.String(),
		"email", n.Email)
	return nil
}
