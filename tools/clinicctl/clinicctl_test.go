package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
)

func TestResolveServices(t *testing.T) {
	all, err := resolveServices([]string{"all"})
	if err != nil || len(all) != 5 {
		t.Fatalf("all = %v, %v", all, err)
	}
	got, err := resolveServices([]string{"booking", "auth"})
	if err != nil || len(got) != 2 {
		t.Fatalf("subset = %v, %v", got, err)
	}
	if _, err := resolveServices([]string{"billing"}); err == nil {
		t.Fatalf("expected unknown service error")
	}
}

func TestWindowDatesFallOnTheirWeekday(t *testing.T) {
	// 2024-06-12 is a Wednesday.
	today := calendar.MustParseDate("2024-06-12")
	dates := windowDates(today, demoWindows)
	for i, w := range demoWindows {
		if dates[i].Weekday() != w.Weekday {
			t.Fatalf("window %d on %s, want %s", i, dates[i].Weekday(), w.Weekday)
		}
		if dates[i].Before(today) || !dates[i].Before(today.AddDays(7)) {
			t.Fatalf("window %d dated %s outside the coming week", i, dates[i])
		}
	}
	if demoWindows[1].Weekday != time.Wednesday || dates[1] != today {
		t.Fatalf("wednesday window should land today, got %s", dates[1])
	}
}

func TestDemoDoctorsReferenceDepartments(t *testing.T) {
	depts := map[int64]bool{}
	for _, d := range demoDepartments {
		depts[d.ID] = true
	}
	for _, d := range demoDoctors {
		if !depts[d.DepartmentID] {
			t.Fatalf("doctor %d references unknown department %d", d.ID, d.DepartmentID)
		}
	}
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CLINICCTL_DATABASE_URL", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"migrate", "--service", "booking"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "database url is required") {
		t.Fatalf("expected missing url error, got %v", err)
	}
}
