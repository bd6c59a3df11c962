package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
)

type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

var _ scheduling.BookingStore = (*BookingRepository)(nil)

const bookingColumns = `id::text, doctor_id, doctor_name, department_id, department_name, date, minute,
	patient_name, op_number, mobile, email, COALESCE(idempotency_key, ''), created_at`

func (r *BookingRepository) Occupancy(ctx context.Context, doctorID int64, date calendar.Date) (map[calendar.Clock]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT minute, count(*)
		FROM bookings
		WHERE doctor_id = $1 AND date = $2
		GROUP BY minute
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occ := make(map[calendar.Clock]int)
	for rows.Next() {
		var minute, n int
		if err := rows.Scan(&minute, &n); err != nil {
			return nil, err
		}
		occ[calendar.Clock(minute)] = n
	}
	return occ, rows.Err()
}

func (r *BookingRepository) CountBetween(ctx context.Context, doctorID int64, date calendar.Date, from, to calendar.Clock) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM bookings
		WHERE doctor_id = $1 AND date = $2 AND minute BETWEEN $3 AND $4
	`, doctorID, date, int(from), int(to)).Scan(&n)
	return n, err
}

func (r *BookingRepository) ListBookings(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	var (
		where []string
		args  []any
	)
	if !f.Date.IsZero() {
		args = append(args, f.Date)
		where = append(where, fmt.Sprintf("date = $%d", len(args)))
	}
	if f.DoctorName != "" {
		args = append(args, "%"+escapeLike(f.DoctorName)+"%")
		where = append(where, fmt.Sprintf("doctor_name ILIKE $%d", len(args)))
	}
	if f.PatientName != "" {
		args = append(args, "%"+escapeLike(f.PatientName)+"%")
		where = append(where, fmt.Sprintf("patient_name ILIKE $%d", len(args)))
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date ASC, minute ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BookingRepository) FindByIdempotencyKey(ctx context.Context, key string) (model.Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE idempotency_key = $1`, key)
	b, err := scanBooking(row)
	if err != nil {
		if db.IsNotFound(err) {
			return model.Booking{}, scheduling.ErrNoRecord
		}
		return model.Booking{}, err
	}
	return b, nil
}

// WithSlot locks the slot_locks row of key for the duration of one transaction.
// The row is created on first use so there is always something to lock.
func (r *BookingRepository) WithSlot(ctx context.Context, key model.SlotKey, fn func(context.Context, scheduling.SlotTx) error) error {
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockSlot(ctx, tx, key); err != nil {
			return err
		}
		return fn(ctx, &slotTx{tx: tx, key: key})
	})
}

func lockSlot(ctx context.Context, tx pgx.Tx, key model.SlotKey) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO slot_locks (doctor_id, date, minute)
		VALUES ($1, $2, $3)
		ON CONFLICT (doctor_id, date, minute) DO NOTHING
	`, key.DoctorID, key.Date, int(key.Time)); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
		SELECT 1
		FROM slot_locks
		WHERE doctor_id = $1 AND date = $2 AND minute = $3
		FOR UPDATE
	`, key.DoctorID, key.Date, int(key.Time))
	return err
}

type slotTx struct {
	tx  pgx.Tx
	key model.SlotKey
}

func (s *slotTx) Count(ctx context.Context) (int, error) {
	var n int
	err := s.tx.QueryRow(ctx, `
		SELECT count(*)
		FROM bookings
		WHERE doctor_id = $1 AND date = $2 AND minute = $3
	`, s.key.DoctorID, s.key.Date, int(s.key.Time)).Scan(&n)
	return n, err
}

func (s *slotTx) Insert(ctx context.Context, b model.Booking) error {
	var idem any
	if b.IdempotencyKey != "" {
		idem = b.IdempotencyKey
	}
	_, err := s.tx.Exec(ctx, `
		INSERT INTO bookings
			(id, doctor_id, doctor_name, department_id, department_name, date, minute,
			 patient_name, op_number, mobile, email, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, b.ID, b.DoctorID, b.DoctorName, b.DepartmentID, b.DepartmentName, b.Date, int(b.Time),
		b.PatientName, b.OPNumber, b.Mobile, b.Email, idem, b.CreatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", scheduling.ErrDuplicateKey, err)
	}
	return err
}

func scanBooking(row pgx.Row) (model.Booking, error) {
	var (
		b      model.Booking
		minute int
	)
	err := row.Scan(&b.ID, &b.DoctorID, &b.DoctorName, &b.DepartmentID, &b.DepartmentName, &b.Date, &minute,
		&b.PatientName, &b.OPNumber, &b.Mobile, &b.Email, &b.IdempotencyKey, &b.CreatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	b.Time = calendar.Clock(minute)
	return b, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
