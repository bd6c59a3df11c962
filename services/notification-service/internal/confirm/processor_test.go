package confirm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/md-rashed-zaman/clinicslots/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/clinicslots/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

type fakeMail struct {
	to, subject, body string
	err               error
}

func (f *fakeMail) Send(to, subject, body string) error {
	f.to, f.subject, f.body = to, subject, body
	return f.err
}

type memRecorder struct {
	rows []storage.Notification
}

func (m *memRecorder) Insert(_ context.Context, n storage.Notification) error {
	m.rows = append(m.rows, n)
	return nil
}

const payload = `{"booking_id":"b-1","doctor_id":101,"doctor_name":"Dr. Asha Menon","date":"2024-06-10","time":"09:30",
"patient_name":"Alice","op_number":"OP7","email":"alice@example.com","mobile":"9876543210"}`

func newProcessor(mail *fakeMail, rec *memRecorder) *Processor {
	return NewProcessor(mail, sms.NewNoopSender(), rec, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleSendsConfirmation(t *testing.T) {
	mail := &fakeMail{}
	rec := &memRecorder{}
	if err := newProcessor(mail, rec).Handle(context.Background(), kafka.Message{Value: []byte(payload)}); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if mail.to != "alice@example.com" || mail.subject != Subject {
		t.Fatalf("unexpected mail: %+v", mail)
	}
	if !strings.Contains(mail.body, "Dear Alice,") || !strings.Contains(mail.body, "Your appointment with Dr. Asha Menon is confirmed.") ||
		!strings.Contains(mail.body, "Date: 2024-06-10\nTime: 09:30") {
		t.Fatalf("unexpected body: %q", mail.body)
	}
	if len(rec.rows) != 2 || rec.rows[0].Status != storage.StatusSent || rec.rows[1].Channel != "sms" {
		t.Fatalf("unexpected records: %+v", rec.rows)
	}
}

func TestHandleRecordsFailure(t *testing.T) {
	mail := &fakeMail{err: errors.New("connection refused")}
	rec := &memRecorder{}
	if err := newProcessor(mail, rec).Handle(context.Background(), kafka.Message{Value: []byte(payload)}); err != nil {
		t.Fatalf("send failures must not fail the handler: %v", err)
	}
	if rec.rows[0].Status != storage.StatusFailed || rec.rows[0].Error != "connection refused" {
		t.Fatalf("unexpected email record: %+v", rec.rows[0])
	}
}

func TestHandleDropsMalformedPayload(t *testing.T) {
	rec := &memRecorder{}
	if err := newProcessor(&fakeMail{}, rec).Handle(context.Background(), kafka.Message{Value: []byte("{")}); err != nil {
		t.Fatalf("malformed payload should be dropped, got %v", err)
	}
	if len(rec.rows) != 0 {
		t.Fatalf("nothing should be recorded")
	}
}
