package kafkax

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
)

type memInbox struct {
	seen map[string]bool
	err  error
}

func (m *memInbox) Record(_ context.Context, eventID, _ string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

func TestConsumerProcessDeduplicates(t *testing.T) {
	inbox := &memInbox{seen: map[string]bool{}}
	calls := 0
	c := &Consumer{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		inbox:   inbox,
		handler: func(context.Context, kafka.Message) error { calls++; return nil },
	}

	msg := kafka.Message{
		Topic:   TopicAppointmentBooked,
		Headers: EventMeta{EventID: "evt-1", EventType: TopicAppointmentBooked}.Headers(),
	}
	c.process(context.Background(), msg)
	c.process(context.Background(), msg)
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}

	inbox.err = errors.New("db down")
	c.process(context.Background(), kafka.Message{Topic: TopicAppointmentBooked, Key: []byte("evt-2")})
	if calls != 1 {
		t.Fatalf("handler must not run when the inbox fails")
	}
}

func TestExtractEventMetaFallsBackToKeyAndTopic(t *testing.T) {
	meta := ExtractEventMeta(kafka.Message{Topic: "t", Key: []byte("k")})
	if meta.EventID != "k" || meta.EventType != "t" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestNewMessageCarriesMeta(t *testing.T) {
	msg := NewMessage(context.Background(), EventMeta{EventID: "e", EventType: TopicAppointmentBooked}, "booking-1", []byte("{}"))
	if msg.Topic != TopicAppointmentBooked || string(msg.Key) != "booking-1" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if meta := ExtractEventMeta(msg); meta.EventID != "e" {
		t.Fatalf("event id lost: %+v", meta)
	}
	if got := SplitBrokers(" a:9092, ,b:9092"); len(got) != 2 {
		t.Fatalf("SplitBrokers = %v", got)
	}
}
