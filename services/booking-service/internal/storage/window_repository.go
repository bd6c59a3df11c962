package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/scheduling"
)

type WindowRepository struct {
	pool *db.Pool
}

func NewWindowRepository(pool *db.Pool) *WindowRepository {
	return &WindowRepository{pool: pool}
}

var _ scheduling.WindowStore = (*WindowRepository)(nil)

const windowColumns = `id::text, doctor_id, date, session, start_minute, end_minute, created_at, updated_at`

func (r *WindowRepository) ListWindows(ctx context.Context, doctorID int64) ([]model.AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+windowColumns+`
		FROM availability_windows
		WHERE doctor_id = $1
		ORDER BY date ASC, start_minute ASC
	`, doctorID)
	if err != nil {
		return nil, err
	}
	return collectWindows(rows)
}

func (r *WindowRepository) WindowsOn(ctx context.Context, doctorID int64, date calendar.Date) ([]model.AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+windowColumns+`
		FROM availability_windows
		WHERE doctor_id = $1 AND date = $2
		ORDER BY start_minute ASC
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	return collectWindows(rows)
}

func (r *WindowRepository) GetWindow(ctx context.Context, id string) (model.AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+windowColumns+`
		FROM availability_windows
		WHERE id = $1
	`, id)
	if err != nil {
		return model.AvailabilityWindow{}, err
	}
	windows, err := collectWindows(rows)
	if err != nil {
		return model.AvailabilityWindow{}, err
	}
	if len(windows) == 0 {
		return model.AvailabilityWindow{}, scheduling.ErrNoRecord
	}
	return windows[0], nil
}

func (r *WindowRepository) InsertWindow(ctx context.Context, w model.AvailabilityWindow) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_windows
			(id, doctor_id, date, session, start_minute, end_minute, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, w.ID, w.DoctorID, w.Date, string(w.Session), int(w.Start), int(w.End), w.CreatedAt, w.UpdatedAt)
	return mapWindowErr(err)
}

func (r *WindowRepository) UpdateWindow(ctx context.Context, w model.AvailabilityWindow) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE availability_windows
		SET date = $2,
			session = $3,
			start_minute = $4,
			end_minute = $5,
			updated_at = $6
		WHERE id = $1
	`, w.ID, w.Date, string(w.Session), int(w.Start), int(w.End), w.UpdatedAt)
	if err != nil {
		return mapWindowErr(err)
	}
	if tag.RowsAffected() == 0 {
		return scheduling.ErrNoRecord
	}
	return nil
}

func (r *WindowRepository) DeleteWindow(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM availability_windows WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return scheduling.ErrNoRecord
	}
	return nil
}

func collectWindows(rows pgx.Rows) ([]model.AvailabilityWindow, error) {
	defer rows.Close()
	out := []model.AvailabilityWindow{}
	for rows.Next() {
		var (
			w          model.AvailabilityWindow
			session    string
			start, end int
		)
		if err := rows.Scan(&w.ID, &w.DoctorID, &w.Date, &session, &start, &end, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		w.Session = model.Session(session)
		w.Start = calendar.Clock(start)
		w.End = calendar.Clock(end)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func mapWindowErr(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsExclusionViolation(err):
		return fmt.Errorf("%w: %v", scheduling.ErrOverlappingRows, err)
	}
	return err
}
