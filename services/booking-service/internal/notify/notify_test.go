package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/md-rashed-zaman/clinicslots/libs/kafkax"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
)

type captureAppender struct {
	events []outbox.Event
}

func (c *captureAppender) Append(_ context.Context, evt outbox.Event) error {
	c.events = append(c.events, evt)
	return nil
}

func TestOutboxWritesBookedEvent(t *testing.T) {
	sink := &captureAppender{}
	n := NewOutbox(sink)
	err := n.BookingConfirmed(context.Background(), scheduling.Notice{
		BookingID:   "b-1",
		DoctorID:    101,
		DoctorName:  "Dr. Asha Menon",
		PatientName: "Alice",
		Date:        calendar.MustParseDate("2024-06-10"),
		Time:        calendar.MustParseClock("09:30"),
		Email:       "alice@example.com",
		BookedAt:    time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("BookingConfirmed failed: %v", err)
	}
	if len(sink.events) != 1 {
		t.Fatalf("expected one event, got %d", len(sink.events))
	}
	evt := sink.events[0]
	if evt.EventType != kafkax.TopicAppointmentBooked || evt.AggregateID != "b-1" {
		t.Fatalf("unexpected event: %+v", evt)
	}
	var body map[string]any
	if err := json.Unmarshal(evt.Payload, &body); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if body["date"] != "2024-06-10" || body["time"] != "09:30" || body["doctor_name"] != "Dr. Asha Menon" {
		t.Fatalf("unexpected payload: %s", evt.Payload)
	}
}
