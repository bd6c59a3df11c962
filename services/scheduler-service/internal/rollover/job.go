// Package rollover carries availability windows whose date has passed forward to the
// next date that falls on the same weekday.
package rollover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule fires at local midnight.
const DefaultSchedule = "0 0 * * *"

// ErrOverlap is returned by Store.Move when the target date already holds a window that
// intersects the moved one.
var ErrOverlap = errors.New("rollover: overlapping window on target date")

type Window struct {
	ID       string
	DoctorID int64
	Date     calendar.Date
	Start    calendar.Clock
	End      calendar.Clock
}

type Store interface {
	Past(ctx context.Context, today calendar.Date) ([]Window, error)
	Move(ctx context.Context, id string, to calendar.Date) error
}

type Result struct {
	Moved   int
	Skipped int
}

type Job struct {
	store  Store
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewJob(store Store, logger *slog.Logger, loc *time.Location) *Job {
	if loc == nil {
		loc = time.UTC
	}
	return &Job{store: store, logger: logger, loc: loc, now: time.Now}
}

// NextOccurrence returns the first date on or after today that falls on wd.
func NextOccurrence(today calendar.Date, wd time.Weekday) calendar.Date {
	return today.OnOrAfter(wd)
}

func (j *Job) today() calendar.Date {
	return calendar.DateOf(j.now().In(j.loc))
}

// Run moves every past window once. Overlapping moves are skipped; other failures are
// collected and the remaining windows are still attempted.
func (j *Job) Run(ctx context.Context) (Result, error) {
	today := j.today()
	past, err := j.store.Past(ctx, today)
	if err != nil {
		return Result{}, fmt.Errorf("list past windows: %w", err)
	}

	var (
		res  Result
		errs []error
	)
	for _, w := range past {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		target := NextOccurrence(today, w.Date.Weekday())
		err := j.store.Move(ctx, w.ID, target)
		switch {
		case err == nil:
			res.Moved++
		case errors.Is(err, ErrOverlap):
			res.Skipped++
			j.logger.Warn("rollover skipped overlapping window",
				"window_id", w.ID, "doctor_id", w.DoctorID, "from", w.Date.String(), "to", target.String())
		default:
			errs = append(errs, fmt.Errorf("move window %s: %w", w.ID, err))
		}
	}
	j.logger.Info("rollover complete", "today", today.String(), "moved", res.Moved, "skipped", res.Skipped)
	return res, errors.Join(errs...)
}

// Schedule registers the job on c using expr (standard five-field cron syntax).
func (j *Job) Schedule(ctx context.Context, c *cron.Cron, expr string) (cron.EntryID, error) {
	if expr == "" {
		expr = DefaultSchedule
	}
	return c.AddFunc(expr, func() {
		if _, err := j.Run(ctx); err != nil {
			j.logger.Error("rollover failed", "err", err)
		}
	})
}
