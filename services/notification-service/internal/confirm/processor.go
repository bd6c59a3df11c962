// Package confirm turns appointment-booked events into patient confirmations.
package confirm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/md-rashed-zaman/clinicslots/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/clinicslots/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/clinicslots/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

// Booked mirrors the booking service's appointment-booked payload.
type Booked struct {
	BookingID      string `json:"booking_id"`
	DoctorID       int64  `json:"doctor_id"`
	DoctorName     string `json:"doctor_name"`
	DepartmentName string `json:"department_name"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	PatientName    string `json:"patient_name"`
	OPNumber       string `json:"op_number"`
	Email          string `json:"email"`
	Mobile         string `json:"mobile"`
}

// Recorder stores one delivery outcome per booking and channel.
type Recorder interface {
	Insert(ctx context.Context, n storage.Notification) error
}

type Processor struct {
	email    email.Sender
	sms      sms.Sender
	recorder Recorder
	logger   *slog.Logger
}

func NewProcessor(emailSender email.Sender, smsSender sms.Sender, recorder Recorder, logger *slog.Logger) *Processor {
	return &Processor{email: emailSender, sms: smsSender, recorder: recorder, logger: logger}
}

// Handle is a kafkax.Handler. Malformed payloads are logged and dropped; only storage
// failures are returned.
func (p *Processor) Handle(ctx context.Context, msg kafka.Message) error {
	var evt Booked
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		p.logger.Error("invalid booked payload", "err", err, "topic", msg.Topic)
		return nil
	}
	if evt.BookingID == "" || evt.PatientName == "" {
		p.logger.Error("booked event missing fields", "booking_id", evt.BookingID)
		return nil
	}

	emailOutcome := p.sendEmail(evt)
	if err := p.recorder.Insert(ctx, emailOutcome); err != nil {
		return fmt.Errorf("record email notification: %w", err)
	}
	smsOutcome := p.sendSMS(ctx, evt)
	if err := p.recorder.Insert(ctx, smsOutcome); err != nil {
		return fmt.Errorf("record sms notification: %w", err)
	}

	p.logger.Info("confirmation processed",
		"booking_id", evt.BookingID, "email", emailOutcome.Status, "sms", smsOutcome.Status)
	return nil
}

func (p *Processor) sendEmail(evt Booked) storage.Notification {
	n := storage.Notification{BookingID: evt.BookingID, Channel: "email", Recipient: strings.TrimSpace(evt.Email)}
	if n.Recipient == "" || p.email == nil {
		n.Status = storage.StatusSkipped
		return n
	}
	if err := p.email.Send(n.Recipient, Subject, EmailBody(evt)); err != nil {
		p.logger.Error("email send failed", "err", err, "booking_id", evt.BookingID)
		n.Status, n.Error = storage.StatusFailed, err.Error()
		return n
	}
	n.Status = storage.StatusSent
	return n
}

func (p *Processor) sendSMS(ctx context.Context, evt Booked) storage.Notification {
	n := storage.Notification{BookingID: evt.BookingID, Channel: "sms", Recipient: strings.TrimSpace(evt.Mobile)}
	if n.Recipient == "" || p.sms == nil {
		n.Status = storage.StatusSkipped
		return n
	}
	if err := p.sms.Send(ctx, n.Recipient, SMSBody(evt)); err != nil {
		p.logger.Error("sms send failed", "err", err, "booking_id", evt.BookingID, "provider", p.sms.ProviderID())
		n.Status, n.Error = storage.StatusFailed, err.Error()
		return n
	}
	n.Status = storage.StatusSent
	return n
}

const Subject = "Appointment Confirmation"

func EmailBody(evt Booked) string {
	return fmt.Sprintf("Dear %s,\n\nYour appointment with %s is confirmed.\n\nDate: %s\nTime: %s\n\n"+
		"Thank you for choosing our clinic!\n\nBest regards,\nClinic Team",
		evt.PatientName, evt.DoctorName, evt.Date, evt.Time)
}

func SMSBody(evt Booked) string {
	return fmt.Sprintf("Appointment confirmed with %s on %s at %s. OP: %s", evt.DoctorName, evt.Date, evt.Time, evt.OPNumber)
}
