package reports

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/segmentio/kafka-go"
)

type memCounter struct {
	seen    map[string]bool
	metrics map[calendar.Date]map[int64]int
	booked  []Booked
}

func newMemCounter() *memCounter {
	return &memCounter{seen: map[string]bool{}, metrics: map[calendar.Date]map[int64]int{}}
}

func (m *memCounter) Count(_ context.Context, eventID string, b Booked) (bool, error) {
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	if m.metrics[b.Date] == nil {
		m.metrics[b.Date] = map[int64]int{}
	}
	m.metrics[b.Date][b.DoctorID]++
	m.booked = append(m.booked, b)
	return true, nil
}

func (m *memCounter) ByDoctor(_ context.Context, from, to calendar.Date) ([]DoctorCount, error) {
	totals := map[int64]int{}
	for day, byDoc := range m.metrics {
		if day.Before(from) || day.After(to) {
			continue
		}
		for id, n := range byDoc {
			totals[id] += n
		}
	}
	var out []DoctorCount
	for id, n := range totals {
		out = append(out, DoctorCount{DoctorID: id, Count: n})
	}
	return out, nil
}

func (m *memCounter) ByDepartment(context.Context, calendar.Date, calendar.Date) ([]DepartmentCount, error) {
	return nil, nil
}

type failingStore struct{}

func (failingStore) ByDoctor(context.Context, calendar.Date, calendar.Date) ([]DoctorCount, error) {
	return nil, errors.New("db down")
}

func (failingStore) ByDepartment(context.Context, calendar.Date, calendar.Date) ([]DepartmentCount, error) {
	return nil, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParsePeriod(t *testing.T) {
	if p, err := ParsePeriod(" Weekly "); err != nil || p != Weekly {
		t.Fatalf("ParsePeriod weekly = %q, %v", p, err)
	}
	if p, err := ParsePeriod("monthly"); err != nil || p != Monthly {
		t.Fatalf("ParsePeriod monthly = %q, %v", p, err)
	}
	if _, err := ParsePeriod("daily"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestBounds(t *testing.T) {
	// 2024-02-14 is a Wednesday in a leap year.
	day := calendar.MustParseDate("2024-02-14")
	from, to := Weekly.Bounds(day)
	if from.String() != "2024-02-11" || to.String() != "2024-02-17" {
		t.Fatalf("weekly bounds = %s..%s", from, to)
	}
	from, to = Monthly.Bounds(day)
	if from.String() != "2024-02-01" || to.String() != "2024-02-29" {
		t.Fatalf("monthly bounds = %s..%s", from, to)
	}
	// A Sunday starts its own week.
	from, to = Weekly.Bounds(calendar.MustParseDate("2024-03-03"))
	if from.String() != "2024-03-03" || to.String() != "2024-03-09" {
		t.Fatalf("sunday bounds = %s..%s", from, to)
	}
}

func TestBuildDefaultsToToday(t *testing.T) {
	store := newMemCounter()
	ctx := context.Background()
	for i, date := range []string{"2024-06-09", "2024-06-12", "2024-06-15", "2024-06-16"} {
		_, _ = store.Count(ctx, string(rune('a'+i)), Booked{BookingID: date, DoctorID: 101, Date: calendar.MustParseDate(date)})
	}
	svc := NewService(store, time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC) }

	report, err := svc.Build(ctx, Weekly, calendar.Date{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if report.StartDate.String() != "2024-06-09" || report.EndDate.String() != "2024-06-15" {
		t.Fatalf("unexpected range %s..%s", report.StartDate, report.EndDate)
	}
	if len(report.ByDoctor) != 1 || report.ByDoctor[0].Count != 3 {
		t.Fatalf("unexpected by-doctor rows: %+v", report.ByDoctor)
	}
	if report.ByDepartment == nil {
		t.Fatalf("empty department list should be [] not nil")
	}
}

func TestBuildWrapsStoreError(t *testing.T) {
	svc := NewService(failingStore{}, nil)
	if _, err := svc.Build(context.Background(), Monthly, calendar.MustParseDate("2024-06-01")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBookedHandlerCountsOnce(t *testing.T) {
	store := newMemCounter()
	handle := BookedHandler(store, discard())
	body, _ := json.Marshal(map[string]any{
		"booking_id":      "b-1",
		"doctor_id":       101,
		"doctor_name":     "Dr. Meera Nair",
		"department_id":   1,
		"department_name": "Cardiology",
		"date":            "2024-06-12",
		"time":            "09:30",
	})
	msg := kafka.Message{Topic: "booking.appointment.booked.v1", Key: []byte("evt-1"), Value: body}

	for i := 0; i < 2; i++ {
		if err := handle(context.Background(), msg); err != nil {
			t.Fatalf("handle failed: %v", err)
		}
	}
	if len(store.booked) != 1 {
		t.Fatalf("expected a single count, got %d", len(store.booked))
	}
	got := store.booked[0]
	if got.DepartmentName != "Cardiology" || got.Date.String() != "2024-06-12" {
		t.Fatalf("unexpected booked row: %+v", got)
	}
}

func TestBookedHandlerDropsMalformed(t *testing.T) {
	store := newMemCounter()
	handle := BookedHandler(store, discard())
	for _, raw := range []string{"not json", `{"booking_id":"x"}`, `{"doctor_id":1,"date":"2024-06-12"}`} {
		if err := handle(context.Background(), kafka.Message{Value: []byte(raw)}); err != nil {
			t.Fatalf("malformed payload should be dropped, got %v", err)
		}
	}
	if len(store.booked) != 0 {
		t.Fatalf("nothing should be counted, got %d", len(store.booked))
	}
}
