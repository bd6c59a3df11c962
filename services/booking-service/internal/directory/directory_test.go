package directory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
)

func TestStaticUnknownDoctor(t *testing.T) {
	s := NewStatic(DemoDoctors()...)
	if _, err := s.Doctor(context.Background(), 999); !errors.Is(err, scheduling.ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
	d, err := s.Doctor(context.Background(), 101)
	if err != nil || d.DepartmentName != "Cardiology" {
		t.Fatalf("unexpected lookup: %+v %v", d, err)
	}
}

func TestCacheExpires(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	c := newCache(time.Minute, func() time.Time { return now })
	c.put(model.Doctor{ID: 7, Name: "Dr. Rao"})

	if _, ok := c.get(7); !ok {
		t.Fatalf("expected cache hit")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.get(7); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestDialWithoutAddressUsesFallback(t *testing.T) {
	fallback := NewStatic()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir, closeFn, err := Dial(context.Background(), logger, "", time.Minute, fallback)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer closeFn()
	if dir != scheduling.Directory(fallback) {
		t.Fatalf("expected fallback directory")
	}
}
