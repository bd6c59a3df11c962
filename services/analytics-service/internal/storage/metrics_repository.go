package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/libs/kafkax"
	"github.com/md-rashed-zaman/clinicslots/services/analytics-service/internal/reports"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

var (
	_ reports.Store   = (*Repository)(nil)
	_ reports.Counter = (*Repository)(nil)
)

// Count records eventID in the inbox and bumps the day's counter in one transaction, so
// a redelivered event is never counted twice.
func (r *Repository) Count(ctx context.Context, eventID string, b reports.Booked) (bool, error) {
	fresh := false
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO analytics_inbox (event_id, event_type)
			VALUES ($1, $2)
			ON CONFLICT (event_id) DO NOTHING
		`, eventID, kafkax.TopicAppointmentBooked)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		fresh = true
		_, err = tx.Exec(ctx, `
			INSERT INTO daily_appointment_metrics (date, doctor_id, doctor_name, department_id, department_name, booked)
			VALUES ($1, $2, $3, $4, $5, 1)
			ON CONFLICT (date, doctor_id)
			DO UPDATE SET booked = daily_appointment_metrics.booked + 1,
			              doctor_name = EXCLUDED.doctor_name,
			              department_id = EXCLUDED.department_id,
			              department_name = EXCLUDED.department_name,
			              updated_at = now()
		`, b.Date, b.DoctorID, b.DoctorName, b.DepartmentID, b.DepartmentName)
		return err
	})
	return fresh, err
}

func (r *Repository) ByDoctor(ctx context.Context, from, to calendar.Date) ([]reports.DoctorCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doctor_id, max(doctor_name), max(department_id), sum(booked)::int AS total
		FROM daily_appointment_metrics
		WHERE date BETWEEN $1 AND $2
		GROUP BY doctor_id
		ORDER BY total DESC, doctor_id ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []reports.DoctorCount{}
	for rows.Next() {
		var c reports.DoctorCount
		if err := rows.Scan(&c.DoctorID, &c.DoctorName, &c.DepartmentID, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) ByDepartment(ctx context.Context, from, to calendar.Date) ([]reports.DepartmentCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT department_id, max(department_name), sum(booked)::int AS total
		FROM daily_appointment_metrics
		WHERE date BETWEEN $1 AND $2
		GROUP BY department_id
		ORDER BY total DESC, department_id ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []reports.DepartmentCount{}
	for rows.Next() {
		var c reports.DepartmentCount
		if err := rows.Scan(&c.DepartmentID, &c.DepartmentName, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
