package kafkax

import (
	"context"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TopicAppointmentBooked carries one message per admitted booking. Topic names double
// as event types.
const TopicAppointmentBooked = "booking.appointment.booked.v1"

const (
	headerEventID   = "event_id"
	headerEventType = "event_type"
)

type EventMeta struct {
	EventID   string
	EventType string
}

// ExtractEventMeta reads the event headers, falling back to the message key for the id
// and the topic for the type.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	h := headerCarrier(msg.Headers)
	meta := EventMeta{EventID: h.Get(headerEventID), EventType: h.Get(headerEventType)}
	if meta.EventID == "" {
		meta.EventID = string(msg.Key)
	}
	if meta.EventType == "" {
		meta.EventType = msg.Topic
	}
	return meta
}

func (m EventMeta) Headers() []kafka.Header {
	return []kafka.Header{
		{Key: headerEventID, Value: []byte(m.EventID)},
		{Key: headerEventType, Value: []byte(m.EventType)},
	}
}

// NewMessage builds a message on meta.EventType with the event headers and the trace
// context found in ctx.
func NewMessage(ctx context.Context, meta EventMeta, key string, value []byte) kafka.Message {
	h := headerCarrier(meta.Headers())
	otel.GetTextMapPropagator().Inject(ctx, &h)
	return kafka.Message{
		Topic:   meta.EventType,
		Key:     []byte(key),
		Value:   value,
		Headers: h,
	}
}

// ExtractTraceContext continues the producer's trace, if the message carries one.
func ExtractTraceContext(ctx context.Context, msg kafka.Message) context.Context {
	h := headerCarrier(msg.Headers)
	return otel.GetTextMapPropagator().Extract(ctx, &h)
}

func SplitBrokers(raw string) []string {
	var out []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

type headerCarrier []kafka.Header

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)

func (h *headerCarrier) Get(key string) string {
	for _, kv := range *h {
		if kv.Key == key {
			return string(kv.Value)
		}
	}
	return ""
}

func (h *headerCarrier) Set(key, value string) {
	for i := range *h {
		if (*h)[i].Key == key {
			(*h)[i].Value = []byte(value)
			return
		}
	}
	*h = append(*h, kafka.Header{Key: key, Value: []byte(value)})
}

func (h *headerCarrier) Keys() []string {
	keys := make([]string, len(*h))
	for i, kv := range *h {
		keys[i] = kv.Key
	}
	return keys
}
