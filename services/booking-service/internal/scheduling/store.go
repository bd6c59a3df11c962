package scheduling

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

// WindowStore persists availability windows.
type WindowStore interface {
	// ListWindows returns a doctor's windows ordered by date, then start.
	ListWindows(ctx context.Context, doctorID int64) ([]model.AvailabilityWindow, error)
	// WindowsOn returns the windows of one doctor and date ordered by start.
	WindowsOn(ctx context.Context, doctorID int64, date calendar.Date) ([]model.AvailabilityWindow, error)
	GetWindow(ctx context.Context, id string) (model.AvailabilityWindow, error)
	// InsertWindow returns ErrOverlappingRows if the store itself detects an overlap.
	InsertWindow(ctx context.Context, w model.AvailabilityWindow) error
	UpdateWindow(ctx context.Context, w model.AvailabilityWindow) error
	DeleteWindow(ctx context.Context, id string) error
}

// BookingStore persists bookings and provides the per-slot critical section.
type BookingStore interface {
	// Occupancy counts bookings of one doctor and date grouped by time.
	Occupancy(ctx context.Context, doctorID int64, date calendar.Date) (map[calendar.Clock]int, error)
	// CountBetween counts bookings of one doctor and date with from <= time <= to.
	CountBetween(ctx context.Context, doctorID int64, date calendar.Date, from, to calendar.Clock) (int, error)
	// ListBookings returns matching bookings ordered by date, then time.
	ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error)
	FindByIdempotencyKey(ctx context.Context, key string) (model.Booking, error)
	// WithSlot runs fn while holding the critical section for key: no other WithSlot call
	// for the same key runs concurrently, calls for other keys do not wait, and nothing
	// fn inserted survives if fn returns an error.
	WithSlot(ctx context.Context, key model.SlotKey, fn func(ctx context.Context, tx SlotTx) error) error
}

// SlotTx is the view of one slot inside WithSlot.
type SlotTx interface {
	// Count returns the committed bookings for the slot plus those inserted by this tx.
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, b model.Booking) error
}

// Directory answers doctor lookups. Unknown doctors yield ErrNoRecord.
type Directory interface {
	Doctor(ctx context.Context, id int64) (model.Doctor, error)
}

// Notice is what the confirmation channel needs to know about a new booking.
type Notice struct {
	BookingID      string
	DoctorID       int64
	DoctorName     string
	DepartmentID   int64
	DepartmentName string
	PatientName    string
	OPNumber       string
	Date           calendar.Date
	Time           calendar.Clock
	Email          string
	Mobile         string
	BookedAt       time.Time
}

// Notifier dispatches booking confirmations. It runs after commit and its failures
// never affect the booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, n Notice) error
}
