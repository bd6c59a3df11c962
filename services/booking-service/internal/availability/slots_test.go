package availability

import (
	"math/rand"
	"testing"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
)

func clocks(vals ...string) []calendar.Clock {
	out := make([]calendar.Clock, 0, len(vals))
	for _, v := range vals {
		out = append(out, calendar.MustParseClock(v))
	}
	return out
}

func TestGenerateSlots(t *testing.T) {
	cases := []struct {
		start, end string
		want       []calendar.Clock
	}{
		{"09:00", "10:00", clocks("09:00", "09:30")},
		{"09:00", "09:00", clocks()},
		{"10:00", "09:00", clocks()},
		{"09:00", "10:15", clocks("09:00", "09:30", "10:00")},
		{"09:15", "09:45", clocks("09:15")},
	}
	for _, tc := range cases {
		got := GenerateSlots(calendar.MustParseClock(tc.start), calendar.MustParseClock(tc.end))
		if got == nil {
			t.Fatalf("GenerateSlots(%s, %s) returned nil", tc.start, tc.end)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("GenerateSlots(%s, %s) = %v, want %v", tc.start, tc.end, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("GenerateSlots(%s, %s)[%d] = %s, want %s", tc.start, tc.end, i, got[i], tc.want[i])
			}
		}
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	iv := func(a, b string) Interval {
		return Interval{Start: calendar.MustParseClock(a), End: calendar.MustParseClock(b)}
	}
	morning := iv("09:00", "12:00")

	if morning.Overlaps(iv("12:00", "13:00")) {
		t.Fatalf("touching endpoints must not overlap")
	}
	if morning.Overlaps(iv("08:00", "09:00")) {
		t.Fatalf("touching start must not overlap")
	}
	if !morning.Overlaps(iv("11:30", "12:30")) {
		t.Fatalf("expected overlap at the tail")
	}
	if !morning.Overlaps(iv("10:00", "10:30")) {
		t.Fatalf("expected overlap when contained")
	}
	if !morning.Overlaps(iv("08:00", "13:00")) {
		t.Fatalf("expected overlap when containing")
	}
}

// Accepting windows one by one through FirstOverlap never leaves two intersecting
// intervals behind.
func TestFirstOverlapNeverAdmitsIntersectingPair(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		var accepted []Interval
		for i := 0; i < 20; i++ {
			start := calendar.Clock(rng.Intn(calendar.MinutesPerDay - 30))
			end := start + calendar.Clock(1+rng.Intn(240))
			if end > calendar.MinutesPerDay {
				end = calendar.MinutesPerDay
			}
			cand := Interval{Start: start, End: end}
			if FirstOverlap(accepted, cand) == -1 {
				accepted = append(accepted, cand)
			}
		}
		for i := range accepted {
			for j := i + 1; j < len(accepted); j++ {
				a, b := accepted[i], accepted[j]
				if a.Start < b.End && b.Start < a.End {
					t.Fatalf("round %d: accepted overlapping windows %+v and %+v", round, a, b)
				}
			}
		}
	}
}

func TestOffersAndContainsInclusive(t *testing.T) {
	w := Interval{Start: calendar.MustParseClock("09:00"), End: calendar.MustParseClock("10:00")}
	if !w.Offers(calendar.MustParseClock("09:30")) {
		t.Fatalf("09:30 is a slot")
	}
	if w.Offers(calendar.MustParseClock("09:15")) {
		t.Fatalf("09:15 is not on the stride")
	}
	if w.Offers(calendar.MustParseClock("10:00")) {
		t.Fatalf("end is exclusive for slots")
	}
	if !w.ContainsInclusive(calendar.MustParseClock("10:00")) {
		t.Fatalf("end is inclusive for the deletion guard")
	}
	if w.ContainsInclusive(calendar.MustParseClock("10:01")) {
		t.Fatalf("10:01 is outside")
	}
}
