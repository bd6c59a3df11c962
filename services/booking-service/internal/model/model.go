package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
)

type Session string

const (
	SessionMorning   Session = "Morning"
	SessionAfternoon Session = "Afternoon"
	SessionEvening   Session = "Evening"
)

func ParseSession(raw string) (Session, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "morning":
		return SessionMorning, nil
	case "afternoon":
		return SessionAfternoon, nil
	case "evening":
		return SessionEvening, nil
	default:
		return "", fmt.Errorf("invalid session %q (want Morning, Afternoon or Evening)", raw)
	}
}

// AvailabilityWindow is an admin-declared interval [Start, End) on one date during which
// a doctor can be booked.
type AvailabilityWindow struct {
	ID        string
	DoctorID  int64
	Date      calendar.Date
	Session   Session
	Start     calendar.Clock
	End       calendar.Clock
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w AvailabilityWindow) DayOfWeek() time.Weekday {
	return w.Date.Weekday()
}

// Booking is append-only: it is written once by admission and never updated.
type Booking struct {
	ID             string
	DoctorID       int64
	DoctorName     string
	DepartmentID   int64
	DepartmentName string
	Date           calendar.Date
	Time           calendar.Clock
	PatientName    string
	OPNumber       string
	Mobile         string
	Email          string
	IdempotencyKey string
	CreatedAt      time.Time
}

// SlotKey identifies one bookable slot; capacity is enforced per key.
type SlotKey struct {
	DoctorID int64
	Date     calendar.Date
	Time     calendar.Clock
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.DoctorID, k.Date, k.Time)
}

func (b Booking) Key() SlotKey {
	return SlotKey{DoctorID: b.DoctorID, Date: b.Date, Time: b.Time}
}

// Slot is one generated time point of a window with its live occupancy.
type Slot struct {
	WindowID string
	Session  Session
	Time     calendar.Clock
	Booked   int
	Capacity int
}

func (s Slot) Full() bool {
	return s.Booked >= s.Capacity
}

type Doctor struct {
	ID             int64
	Name           string
	DepartmentID   int64
	DepartmentName string
}

// BookingFilter narrows booking listings. Name filters are case-insensitive substrings.
type BookingFilter struct {
	Date        calendar.Date
	DoctorName  string
	PatientName string
}
