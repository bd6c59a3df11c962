package rollover

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

func (r *Repository) Past(ctx context.Context, today calendar.Date) ([]Window, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, doctor_id, date, start_minute, end_minute
		FROM availability_windows
		WHERE date < $1
		ORDER BY date ASC, doctor_id ASC, start_minute ASC
	`, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Window
	for rows.Next() {
		var (
			w          Window
			start, end int
		)
		if err := rows.Scan(&w.ID, &w.DoctorID, &w.Date, &start, &end); err != nil {
			return nil, err
		}
		w.Start = calendar.Clock(start)
		w.End = calendar.Clock(end)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Move relies on the availability_windows exclusion constraint to reject overlaps.
func (r *Repository) Move(ctx context.Context, id string, to calendar.Date) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE availability_windows
		SET date = $2, updated_at = now()
		WHERE id = $1
	`, id, to)
	if db.IsExclusionViolation(err) {
		return fmt.Errorf("%w: %v", ErrOverlap, err)
	}
	return err
}
