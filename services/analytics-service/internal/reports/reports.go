// Package reports aggregates booked appointments by doctor and by department over a
// calendar week (Sunday to Saturday) or a calendar month.
package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
)

type Period string

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

var ErrInvalidPeriod = errors.New("period must be weekly or monthly")

func ParsePeriod(raw string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(raw))) {
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
}

// Bounds returns the inclusive first and last day of the period containing day.
func (p Period) Bounds(day calendar.Date) (calendar.Date, calendar.Date) {
	if p == Monthly {
		return day.StartOfMonth(), day.EndOfMonth()
	}
	start := day.StartOfWeek()
	return start, start.AddDays(6)
}

type DoctorCount struct {
	DoctorID     int64  `json:"doctorId"`
	DoctorName   string `json:"doctorName"`
	DepartmentID int64  `json:"department"`
	Count        int    `json:"count"`
}

type DepartmentCount struct {
	DepartmentID   int64  `json:"departmentId"`
	DepartmentName string `json:"departmentName"`
	Count          int    `json:"count"`
}

type Report struct {
	ByDoctor     []DoctorCount     `json:"byDoctor"`
	ByDepartment []DepartmentCount `json:"byDepartment"`
	Period       Period            `json:"period"`
	StartDate    calendar.Date     `json:"startDate"`
	EndDate      calendar.Date     `json:"endDate"`
}

// Booked is one appointment counted into the daily metrics.
type Booked struct {
	BookingID      string
	DoctorID       int64
	DoctorName     string
	DepartmentID   int64
	DepartmentName string
	Date           calendar.Date
}

// Store reads and writes daily_appointment_metrics. Both read methods return rows sorted
// by count descending.
type Store interface {
	ByDoctor(ctx context.Context, from, to calendar.Date) ([]DoctorCount, error)
	ByDepartment(ctx context.Context, from, to calendar.Date) ([]DepartmentCount, error)
}

type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, now: time.Now}
}

// Build returns the report for the period containing day; a zero day means today in the
// clinic's time zone.
func (s *Service) Build(ctx context.Context, period Period, day calendar.Date) (Report, error) {
	if day.IsZero() {
		day = calendar.DateOf(s.now().In(s.loc))
	}
	from, to := period.Bounds(day)
	byDoctor, err := s.store.ByDoctor(ctx, from, to)
	if err != nil {
		return Report{}, fmt.Errorf("count by doctor: %w", err)
	}
	byDept, err := s.store.ByDepartment(ctx, from, to)
	if err != nil {
		return Report{}, fmt.Errorf("count by department: %w", err)
	}
	if byDoctor == nil {
		byDoctor = []DoctorCount{}
	}
	if byDept == nil {
		byDept = []DepartmentCount{}
	}
	return Report{
		ByDoctor:     byDoctor,
		ByDepartment: byDept,
		Period:       period,
		StartDate:    from,
		EndDate:      to,
	}, nil
}
