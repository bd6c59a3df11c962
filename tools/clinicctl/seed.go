package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

type seedDepartment struct {
	ID   int64
	Name string
}

type seedDoctor struct {
	ID             int64
	Name           string
	Specialization string
	Qualification  string
	DepartmentID   int64
}

type seedWindow struct {
	DoctorID int64
	Weekday  time.Weekday
	Session  string
	Start    string
	End      string
}

var (
	demoDepartments = []seedDepartment{
		{ID: 1, Name: "Cardiology"},
		{ID: 2, Name: "Dermatology"},
		{ID: 3, Name: "Pediatrics"},
	}
	demoDoctors = []seedDoctor{
		{ID: 101, Name: "Dr. Asha Menon", Specialization: "Interventional Cardiology", Qualification: "MBBS, MD, DM", DepartmentID: 1},
		{ID: 102, Name: "Dr. Rahul Nair", Specialization: "Cardiac Electrophysiology", Qualification: "MBBS, MD", DepartmentID: 1},
		{ID: 201, Name: "Dr. Priya Varma", Specialization: "Clinical Dermatology", Qualification: "MBBS, DVD", DepartmentID: 2},
		{ID: 301, Name: "Dr. Kiran Das", Specialization: "General Pediatrics", Qualification: "MBBS, DCH", DepartmentID: 3},
	}
	demoWindows = []seedWindow{
		{DoctorID: 101, Weekday: time.Monday, Session: "Morning", Start: "09:00", End: "12:00"},
		{DoctorID: 101, Weekday: time.Wednesday, Session: "Afternoon", Start: "14:00", End: "16:30"},
		{DoctorID: 102, Weekday: time.Tuesday, Session: "Morning", Start: "10:00", End: "12:00"},
		{DoctorID: 201, Weekday: time.Thursday, Session: "Evening", Start: "17:00", End: "19:00"},
		{DoctorID: 301, Weekday: time.Friday, Session: "Morning", Start: "09:30", End: "11:30"},
	}
)

// windowDates places each demo window on the next matching weekday on or after today.
func windowDates(today calendar.Date, windows []seedWindow) []calendar.Date {
	out := make([]calendar.Date, len(windows))
	for i, w := range windows {
		out[i] = today.OnOrAfter(w.Weekday)
	}
	return out
}

func newSeedCmd(s *settings) *cobra.Command {
	var withWindows bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo departments, doctors, availability and the bootstrap admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := s.open(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			loc, err := time.LoadLocation(s.v.GetString("clinic-tz"))
			if err != nil {
				return fmt.Errorf("clinic time zone: %w", err)
			}
			err = pool.WithTx(ctx, func(tx pgx.Tx) error {
				if err := seedDirectory(ctx, tx); err != nil {
					return err
				}
				if withWindows {
					if err := seedWindows(ctx, tx, calendar.Today(loc)); err != nil {
						return err
					}
				}
				return seedAdmin(ctx, tx, s.v.GetString("admin-email"), s.v.GetString("admin-password"))
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d departments, %d doctors\n", len(demoDepartments), len(demoDoctors))
			return nil
		},
	}
	cmd.Flags().BoolVar(&withWindows, "windows", true, "also create availability windows for the coming week")
	cmd.Flags().String("admin-email", "", "bootstrap admin email")
	cmd.Flags().String("admin-password", "", "bootstrap admin password")
	return cmd
}

func seedDirectory(ctx context.Context, tx pgx.Tx) error {
	for _, d := range demoDepartments {
		if _, err := tx.Exec(ctx, `
			INSERT INTO departments (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO NOTHING
		`, d.ID, d.Name); err != nil {
			return fmt.Errorf("seed department %d: %w", d.ID, err)
		}
	}
	for _, d := range demoDoctors {
		if _, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialization, qualification, department_id)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`, d.ID, d.Name, d.Specialization, d.Qualification, d.DepartmentID); err != nil {
			return fmt.Errorf("seed doctor %d: %w", d.ID, err)
		}
	}
	return nil
}

// seedWindows skips windows that overlap existing ones.
func seedWindows(ctx context.Context, tx pgx.Tx, today calendar.Date) error {
	dates := windowDates(today, demoWindows)
	for i, w := range demoWindows {
		start, err := calendar.ParseClock(w.Start)
		if err != nil {
			return err
		}
		end, err := calendar.ParseClock(w.End)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `SAVEPOINT seed_window`)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO availability_windows (id, doctor_id, date, session, start_minute, end_minute)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.NewString(), w.DoctorID, dates[i], w.Session, int(start), int(end))
		if db.IsExclusionViolation(err) {
			if _, err := tx.Exec(ctx, `ROLLBACK TO SAVEPOINT seed_window`); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("seed window for doctor %d: %w", w.DoctorID, err)
		}
		if _, err := tx.Exec(ctx, `RELEASE SAVEPOINT seed_window`); err != nil {
			return err
		}
	}
	return nil
}

func seedAdmin(ctx context.Context, tx pgx.Tx, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO admins (email, password_hash) VALUES (lower($1), $2)
		ON CONFLICT (email) DO NOTHING
	`, email, string(hash))
	return err
}
