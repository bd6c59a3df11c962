package storage_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/migrations"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/directory"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/storage"
)

// openTestDB connects to CLINICSLOTS_TEST_DATABASE_URL and applies the booking
// migrations. Without it the test is skipped.
func openTestDB(t *testing.T) *db.Pool {
	t.Helper()
	url := os.Getenv("CLINICSLOTS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CLINICSLOTS_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, url, db.Options{MaxConns: 24})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(pool.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := db.NewMigrator(pool, migrations.FS, "booking", logger).Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func TestPostgresSlotAdmissionRespectsCapacity(t *testing.T) {
	pool := openTestDB(t)
	ctx := context.Background()

	// A doctor id no other run uses keeps parallel runs and leftovers apart.
	doctorID := 1_000_000 + time.Now().UnixNano()%1_000_000_000
	t.Cleanup(func() {
		for _, table := range []string{"bookings", "slot_locks", "availability_windows"} {
			_, _ = pool.Exec(context.Background(), fmt.Sprintf("DELETE FROM %s WHERE doctor_id = $1", table), doctorID)
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := directory.NewStatic(model.Doctor{ID: doctorID, Name: "Dr. Test", DepartmentID: 1, DepartmentName: "Cardiology"})
	eng := scheduling.NewEngine(storage.NewWindowRepository(pool), storage.NewBookingRepository(pool), dir, nil, logger, scheduling.Config{})
	t.Cleanup(eng.Drain)

	if _, err := eng.CreateWindow(ctx, doctorID, scheduling.WindowInput{
		Date: "2030-01-07", Session: "Morning", StartTime: "09:00", EndTime: "10:00",
	}); err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}

	const callers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		full     int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := eng.TryBook(ctx, scheduling.BookingRequest{
				DoctorID:    doctorID,
				Date:        "2030-01-07",
				Time:        "09:30",
				PatientName: fmt.Sprintf("p%d", i),
				OPNumber:    fmt.Sprintf("OP%d", i),
				Mobile:      "9876543210",
				Email:       "patient@example.com",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, scheduling.ErrCapacity):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if admitted != scheduling.DefaultCapacity || full != callers-scheduling.DefaultCapacity {
		t.Fatalf("admitted=%d full=%d", admitted, full)
	}
	var stored int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE doctor_id = $1`, doctorID).Scan(&stored); err != nil {
		t.Fatalf("count bookings: %v", err)
	}
	if stored != scheduling.DefaultCapacity {
		t.Fatalf("expected %d stored bookings, got %d", scheduling.DefaultCapacity, stored)
	}
}
