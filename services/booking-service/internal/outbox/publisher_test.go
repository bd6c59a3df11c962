package outbox

import (
	"context"
	"testing"

	"github.com/md-rashed-zaman/clinicslots/libs/kafkax"
)

func TestToMessageCarriesEventMeta(t *testing.T) {
	msg := toMessage(context.Background(), Record{
		ID:          7,
		EventID:     "3f0c3c9e-9d7a-4a4e-8f55-0b1f63e0a0a1",
		AggregateID: "booking-1",
		EventType:   kafkax.TopicAppointmentBooked,
		Payload:     []byte(`{"booking_id":"booking-1"}`),
	})
	if msg.Topic != kafkax.TopicAppointmentBooked {
		t.Fatalf("unexpected topic %q", msg.Topic)
	}
	if string(msg.Key) != "booking-1" {
		t.Fatalf("unexpected key %q", msg.Key)
	}
	meta := kafkax.ExtractEventMeta(msg)
	if meta.EventID != "3f0c3c9e-9d7a-4a4e-8f55-0b1f63e0a0a1" || meta.EventType != kafkax.TopicAppointmentBooked {
		t.Fatalf("unexpected meta %+v", meta)
	}
}
