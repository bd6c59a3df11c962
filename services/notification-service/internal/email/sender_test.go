package email

import (
	"strings"
	"testing"
)

func TestBuildMessageUsesCRLF(t *testing.T) {
	msg := buildMessage("clinic@example.com", "alice@example.com", "Appointment Confirmation", "Dear Alice,\n\nSee you soon.")
	if !strings.HasPrefix(msg, "From: clinic@example.com\r\nTo: alice@example.com\r\nSubject: Appointment Confirmation\r\n") {
		t.Fatalf("unexpected headers: %q", msg)
	}
	if !strings.Contains(msg, "Dear Alice,\r\n\r\nSee you soon.\r\n") {
		t.Fatalf("body lines must use CRLF: %q", msg)
	}
}

func TestDefaultFromAddress(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "mailpit", Port: "1025"})
	if s.from != "no-reply@clinicslots.local" || s.addr != "mailpit:1025" || s.auth != nil {
		t.Fatalf("unexpected sender: %+v", s)
	}
}
