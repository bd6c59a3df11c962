package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/booking-service/internal/model"
)

// DefaultCapacity is the number of patients one slot admits.
const DefaultCapacity = 2

type Config struct {
	Capacity      int
	NotifyTimeout time.Duration
}

// Engine owns availability windows and booking admission for every doctor.
type Engine struct {
	windows   WindowStore
	bookings  BookingStore
	directory Directory
	notifier  Notifier
	logger    *slog.Logger
	validate  *validator.Validate

	capacity      int
	notifyTimeout time.Duration
	now           func() time.Time
	inflight      sync.WaitGroup
}

func NewEngine(windows WindowStore, bookings BookingStore, directory Directory, notifier Notifier, logger *slog.Logger, cfg Config) *Engine {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		windows:       windows,
		bookings:      bookings,
		directory:     directory,
		notifier:      notifier,
		logger:        logger,
		validate:      newValidator(),
		capacity:      cfg.Capacity,
		notifyTimeout: cfg.NotifyTimeout,
		now:           time.Now,
	}
}

func (e *Engine) Capacity() int { return e.capacity }

// Drain waits for in-flight notification dispatches.
func (e *Engine) Drain() { e.inflight.Wait() }

// WindowInput carries the raw admin fields of a new window.
type WindowInput struct {
	Date      string `validate:"required"`
	Session   string `validate:"required"`
	StartTime string `validate:"required"`
	EndTime   string `validate:"required"`
}

// WindowPatch changes only the non-nil fields.
type WindowPatch struct {
	Date      *string
	Session   *string
	StartTime *string
	EndTime   *string
}

func (e *Engine) ListWindows(ctx context.Context, doctorID int64) ([]model.AvailabilityWindow, error) {
	if _, err := e.doctor(ctx, doctorID); err != nil {
		return nil, err
	}
	windows, err := e.windows.ListWindows(ctx, doctorID)
	if err != nil {
		return nil, persistence("list availability", err)
	}
	sortWindows(windows)
	return windows, nil
}

func (e *Engine) CreateWindow(ctx context.Context, doctorID int64, in WindowInput) (model.AvailabilityWindow, error) {
	if err := e.validate.Struct(in); err != nil {
		return model.AvailabilityWindow{}, classify(err)
	}
	w := model.AvailabilityWindow{DoctorID: doctorID}
	if err := applyWindowFields(&w, &in.Date, &in.Session, &in.StartTime, &in.EndTime); err != nil {
		return model.AvailabilityWindow{}, err
	}
	if _, err := e.doctor(ctx, doctorID); err != nil {
		return model.AvailabilityWindow{}, err
	}
	if err := e.validateNoOverlap(ctx, w); err != nil {
		return model.AvailabilityWindow{}, err
	}

	now := e.now().UTC()
	w.ID = uuid.NewString()
	w.CreatedAt = now
	w.UpdatedAt = now
	if err := e.windows.InsertWindow(ctx, w); err != nil {
		if errors.Is(err, ErrOverlappingRows) {
			return model.AvailabilityWindow{}, overlapError()
		}
		return model.AvailabilityWindow{}, persistence("create availability", err)
	}
	e.logger.Info("availability window created",
		"window_id", w.ID, "doctor_id", w.DoctorID, "date", w.Date.String(),
		"start", w.Start.String(), "end", w.End.String())
	return w, nil
}

// UpdateWindow applies patch and re-validates the result against the doctor's other
// windows on the (possibly new) date.
func (e *Engine) UpdateWindow(ctx context.Context, id string, patch WindowPatch) (model.AvailabilityWindow, error) {
	w, err := e.window(ctx, id)
	if err != nil {
		return model.AvailabilityWindow{}, err
	}
	if err := applyWindowFields(&w, patch.Date, patch.Session, patch.StartTime, patch.EndTime); err != nil {
		return model.AvailabilityWindow{}, err
	}
	if err := e.validateNoOverlap(ctx, w); err != nil {
		return model.AvailabilityWindow{}, err
	}

	w.UpdatedAt = e.now().UTC()
	if err := e.windows.UpdateWindow(ctx, w); err != nil {
		switch {
		case errors.Is(err, ErrOverlappingRows):
			return model.AvailabilityWindow{}, overlapError()
		case errors.Is(err, ErrNoRecord):
			return model.AvailabilityWindow{}, reject(KindNotFound, ReasonWindowNotFound, "schedule not found")
		}
		return model.AvailabilityWindow{}, persistence("update availability", err)
	}
	e.logger.Info("availability window updated", "window_id", w.ID, "doctor_id", w.DoctorID, "date", w.Date.String())
	return w, nil
}

// CanDelete reports a DependentStateError when a booking of the window's doctor and
// date has a time inside [start, end].
func (e *Engine) CanDelete(ctx context.Context, id string) error {
	w, err := e.window(ctx, id)
	if err != nil {
		return err
	}
	return e.guardDelete(ctx, w)
}

func (e *Engine) DeleteWindow(ctx context.Context, id string) error {
	w, err := e.window(ctx, id)
	if err != nil {
		return err
	}
	if err := e.guardDelete(ctx, w); err != nil {
		return err
	}
	if err := e.windows.DeleteWindow(ctx, id); err != nil {
		if errors.Is(err, ErrNoRecord) {
			return reject(KindNotFound, ReasonWindowNotFound, "schedule not found")
		}
		return persistence("delete availability", err)
	}
	e.logger.Info("availability window deleted", "window_id", id, "doctor_id", w.DoctorID, "date", w.Date.String())
	return nil
}

func (e *Engine) guardDelete(ctx context.Context, w model.AvailabilityWindow) error {
	n, err := e.bookings.CountBetween(ctx, w.DoctorID, w.Date, w.Start, w.End)
	if err != nil {
		return persistence("check bookings", err)
	}
	if n > 0 {
		return reject(KindDependentState, ReasonHasAppointments,
			"cannot delete schedule with existing appointments (%d booked)", n)
	}
	return nil
}

// Occupancy returns time -> booked count for one doctor and date.
func (e *Engine) Occupancy(ctx context.Context, doctorID int64, date string) (map[calendar.Clock]int, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	occ, err := e.bookings.Occupancy(ctx, doctorID, d)
	if err != nil {
		return nil, persistence("load occupancy", err)
	}
	return occ, nil
}

// Slots expands the doctor's windows on date into bookable slots with live counts.
func (e *Engine) Slots(ctx context.Context, doctorID int64, date string) ([]model.Slot, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	windows, err := e.windows.WindowsOn(ctx, doctorID, d)
	if err != nil {
		return nil, persistence("load availability", err)
	}
	occ, err := e.bookings.Occupancy(ctx, doctorID, d)
	if err != nil {
		return nil, persistence("load occupancy", err)
	}

	slots := []model.Slot{}
	for _, w := range windows {
		for _, t := range availability.GenerateSlots(w.Start, w.End) {
			slots = append(slots, model.Slot{
				WindowID: w.ID,
				Session:  w.Session,
				Time:     t,
				Booked:   occ[t],
				Capacity: e.capacity,
			})
		}
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Time < slots[j].Time })
	return slots, nil
}

// BookingRequest is a patient's booking submission.
type BookingRequest struct {
	DoctorID       int64  `validate:"required"`
	Date           string `validate:"required"`
	Time           string `validate:"required"`
	PatientName    string `validate:"required"`
	OPNumber       string `validate:"required"`
	Mobile         string `validate:"required,mobile"`
	Email          string `validate:"required,clinic_email"`
	IdempotencyKey string `validate:"omitempty,max=128"`
}

// Admission is the outcome of an accepted booking. Replayed is set when the
// idempotency key matched an earlier booking and nothing new was written.
type Admission struct {
	Booking  model.Booking
	Replayed bool
}

// TryBook validates the request, then re-reads occupancy and inserts the booking as one
// critical section per (doctor, date, time). A rejection leaves nothing behind.
func (e *Engine) TryBook(ctx context.Context, req BookingRequest) (Admission, error) {
	req = trimRequest(req)
	if err := e.validate.Struct(req); err != nil {
		return Admission{}, classify(err)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return Admission{}, err
	}
	at, err := calendar.ParseClock(req.Time)
	if err != nil {
		return Admission{}, reject(KindValidation, ReasonInvalidTime, "%s", err.Error())
	}

	doc, err := e.doctor(ctx, req.DoctorID)
	if err != nil {
		return Admission{}, err
	}

	b := model.Booking{
		ID:             uuid.NewString(),
		DoctorID:       doc.ID,
		DoctorName:     doc.Name,
		DepartmentID:   doc.DepartmentID,
		DepartmentName: doc.DepartmentName,
		Date:           date,
		Time:           at,
		PatientName:    req.PatientName,
		OPNumber:       req.OPNumber,
		Mobile:         req.Mobile,
		Email:          req.Email,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      e.now().UTC(),
	}

	if req.IdempotencyKey != "" {
		if prev, ok, err := e.replay(ctx, b); err != nil || ok {
			return prev, err
		}
	}

	if err := e.ensureOffered(ctx, req.DoctorID, date, at); err != nil {
		return Admission{}, err
	}

	err = e.bookings.WithSlot(ctx, b.Key(), func(ctx context.Context, tx SlotTx) error {
		n, err := tx.Count(ctx)
		if err != nil {
			return err
		}
		if n >= e.capacity {
			return reject(KindCapacity, ReasonSlotFull, "slot %s on %s is full", at, date)
		}
		return tx.Insert(ctx, b)
	})
	if err != nil {
		var rej *Error
		if errors.As(err, &rej) {
			e.logger.Info("booking rejected", "key", b.Key().String(), "reason", string(rej.Reason))
			return Admission{}, rej
		}
		if errors.Is(err, ErrDuplicateKey) && req.IdempotencyKey != "" {
			if prev, ok, rerr := e.replay(ctx, b); rerr != nil || ok {
				return prev, rerr
			}
		}
		return Admission{}, persistence("create booking", err)
	}

	e.logger.Info("booking admitted", "booking_id", b.ID, "key", b.Key().String())
	e.dispatch(ctx, b)
	return Admission{Booking: b}, nil
}

// ListBookings filters by exact date (optional) and case-insensitive doctor and patient
// name substrings.
func (e *Engine) ListBookings(ctx context.Context, date, doctorName, patientName string) ([]model.Booking, error) {
	filter := model.BookingFilter{
		DoctorName:  strings.TrimSpace(doctorName),
		PatientName: strings.TrimSpace(patientName),
	}
	if strings.TrimSpace(date) != "" {
		d, err := parseDate(date)
		if err != nil {
			return nil, err
		}
		filter.Date = d
	}
	out, err := e.bookings.ListBookings(ctx, filter)
	if err != nil {
		return nil, persistence("list bookings", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (e *Engine) validateNoOverlap(ctx context.Context, cand model.AvailabilityWindow) error {
	existing, err := e.windows.WindowsOn(ctx, cand.DoctorID, cand.Date)
	if err != nil {
		return persistence("load availability", err)
	}
	others := make([]availability.Interval, 0, len(existing))
	for _, w := range existing {
		if w.ID == cand.ID {
			continue
		}
		others = append(others, availability.Interval{Start: w.Start, End: w.End})
	}
	if availability.FirstOverlap(others, availability.Interval{Start: cand.Start, End: cand.End}) >= 0 {
		return overlapError()
	}
	return nil
}

func (e *Engine) ensureOffered(ctx context.Context, doctorID int64, date calendar.Date, at calendar.Clock) error {
	windows, err := e.windows.WindowsOn(ctx, doctorID, date)
	if err != nil {
		return persistence("load availability", err)
	}
	for _, w := range windows {
		if (availability.Interval{Start: w.Start, End: w.End}).Offers(at) {
			return nil
		}
	}
	return reject(KindNotFound, ReasonSlotUnavailable, "doctor has no slot at %s on %s", at, date)
}

// replay returns the booking stored under want's idempotency key. A key reused for a
// different submission is a conflict; the stored booking is never disclosed.
func (e *Engine) replay(ctx context.Context, want model.Booking) (Admission, bool, error) {
	prev, err := e.bookings.FindByIdempotencyKey(ctx, want.IdempotencyKey)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return Admission{}, false, nil
		}
		return Admission{}, false, persistence("load booking", err)
	}
	if !sameSubmission(prev, want) {
		e.logger.Warn("idempotency key reused for a different booking", "booking_id", prev.ID)
		return Admission{}, false, reject(KindConflict, ReasonIdempotencyMismatch,
			"idempotency key was already used for a different booking")
	}
	e.logger.Info("booking replayed", "booking_id", prev.ID)
	return Admission{Booking: prev, Replayed: true}, true, nil
}

func sameSubmission(a, b model.Booking) bool {
	return a.DoctorID == b.DoctorID &&
		a.Date == b.Date &&
		a.Time == b.Time &&
		a.PatientName == b.PatientName &&
		a.OPNumber == b.OPNumber &&
		a.Mobile == b.Mobile &&
		strings.EqualFold(a.Email, b.Email)
}

func (e *Engine) dispatch(ctx context.Context, b model.Booking) {
	if e.notifier == nil {
		return
	}
	notice := Notice{
		BookingID:      b.ID,
		DoctorID:       b.DoctorID,
		DoctorName:     b.DoctorName,
		DepartmentID:   b.DepartmentID,
		DepartmentName: b.DepartmentName,
		PatientName:    b.PatientName,
		OPNumber:       b.OPNumber,
		Date:           b.Date,
		Time:           b.Time,
		Email:          b.Email,
		Mobile:         b.Mobile,
		BookedAt:       b.CreatedAt,
	}
	// The request context ends with the response; the dispatch must outlive it.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.notifyTimeout)
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		defer cancel()
		if err := e.notifier.BookingConfirmed(dctx, notice); err != nil {
			e.logger.Error("booking notification failed", "err", err, "booking_id", b.ID)
		}
	}()
}

func (e *Engine) doctor(ctx context.Context, id int64) (model.Doctor, error) {
	if id <= 0 {
		return model.Doctor{}, reject(KindValidation, ReasonInvalidField, "doctor_id must be positive")
	}
	doc, err := e.directory.Doctor(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return model.Doctor{}, reject(KindNotFound, ReasonUnknownDoctor, "doctor %d not found", id)
		}
		return model.Doctor{}, persistence("lookup doctor", err)
	}
	return doc, nil
}

func (e *Engine) window(ctx context.Context, id string) (model.AvailabilityWindow, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return model.AvailabilityWindow{}, reject(KindNotFound, ReasonWindowNotFound, "schedule not found")
	}
	w, err := e.windows.GetWindow(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return model.AvailabilityWindow{}, reject(KindNotFound, ReasonWindowNotFound, "schedule not found")
		}
		return model.AvailabilityWindow{}, persistence("load availability", err)
	}
	return w, nil
}

func applyWindowFields(w *model.AvailabilityWindow, date, session, start, end *string) error {
	if date != nil {
		d, err := parseDate(*date)
		if err != nil {
			return err
		}
		w.Date = d
	}
	if session != nil {
		s, err := model.ParseSession(*session)
		if err != nil {
			return reject(KindValidation, ReasonInvalidSession, "%s", err.Error())
		}
		w.Session = s
	}
	if start != nil {
		c, err := calendar.ParseClock(*start)
		if err != nil {
			return reject(KindValidation, ReasonInvalidTime, "start_time: %s", err.Error())
		}
		w.Start = c
	}
	if end != nil {
		c, err := calendar.ParseClock(*end)
		if err != nil {
			return reject(KindValidation, ReasonInvalidTime, "end_time: %s", err.Error())
		}
		w.End = c
	}
	if w.Start >= w.End {
		return reject(KindValidation, ReasonInvalidRange, "start_time must be before end_time")
	}
	return nil
}

func overlapError() *Error {
	return reject(KindConflict, ReasonOverlap, "schedule overlaps with existing time slot")
}

func parseDate(raw string) (calendar.Date, error) {
	d, err := calendar.ParseDate(raw)
	if err != nil {
		return calendar.Date{}, reject(KindValidation, ReasonInvalidDate, "%s", err.Error())
	}
	return d, nil
}

func trimRequest(r BookingRequest) BookingRequest {
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.PatientName = strings.TrimSpace(r.PatientName)
	r.OPNumber = strings.TrimSpace(r.OPNumber)
	r.Mobile = strings.TrimSpace(r.Mobile)
	r.Email = strings.TrimSpace(r.Email)
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)
	return r
}

func sortWindows(ws []model.AvailabilityWindow) {
	sort.SliceStable(ws, func(i, j int) bool {
		if c := ws[i].Date.Compare(ws[j].Date); c != 0 {
			return c < 0
		}
		return ws[i].Start < ws[j].Start
	})
}
