package availability

import (
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/calendar"
)

// SlotLength is the fixed stride between bookable time points.
const SlotLength = 30 * time.Minute

type Interval struct {
	Start calendar.Clock
	End   calendar.Clock
}

// GenerateSlots returns the slot start times within [start, end) at SlotLength stride.
// The result is empty, never nil, when start >= end.
func GenerateSlots(start, end calendar.Clock) []calendar.Clock {
	slots := []calendar.Clock{}
	if start >= end {
		return slots
	}
	for t := start; t < end; t = t.Add(SlotLength) {
		slots = append(slots, t)
	}
	return slots
}

// Overlaps uses half-open semantics: touching endpoints do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && i.End > o.Start
}

// ContainsInclusive reports whether t lies within [Start, End].
func (i Interval) ContainsInclusive(t calendar.Clock) bool {
	return t >= i.Start && t <= i.End
}

// Offers reports whether t is one of the generated slots of the interval.
func (i Interval) Offers(t calendar.Clock) bool {
	if t < i.Start || t >= i.End {
		return false
	}
	stride := calendar.Clock(SlotLength / time.Minute)
	return (t-i.Start)%stride == 0
}

// FirstOverlap returns the index of the first interval in existing that overlaps
// candidate, or -1.
func FirstOverlap(existing []Interval, candidate Interval) int {
	for i, e := range existing {
		if e.Overlaps(candidate) {
			return i
		}
	}
	return -1
}
