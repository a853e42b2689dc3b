package schedule

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect:
// startA < endB && startB < endA. Intervals that merely touch do not
// overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Slot is a candidate appointment start time within operating hours.
type Slot struct {
	Time      time.Time
	Available bool
}

// ComputeSlots enumerates candidate starts for one calendar day, stepped
// by the window's granularity, keeping only starts whose full duration
// fits before close. A slot is marked unavailable when it overlaps a
// busy interval or starts before earliest; it still appears in the
// result so callers can render a complete grid. Output is ordered
// ascending and deterministic for identical inputs.
func ComputeSlots(midnight time.Time, window DayWindow, duration time.Duration, busy []Interval, earliest time.Time) []Slot {
	if duration <= 0 {
		return nil
	}

	opensAt := midnight.Add(window.opens)
	closesAt := midnight.Add(window.closes)

	var slots []Slot
	for start := opensAt; !start.Add(duration).After(closesAt); start = start.Add(window.granularity) {
		candidate := Interval{Start: start, End: start.Add(duration)}

		available := !start.Before(earliest)
		if available {
			for _, b := range busy {
				if candidate.Overlaps(b) {
					available = false
					break
				}
			}
		}

		slots = append(slots, Slot{Time: start, Available: available})
	}
	return slots
}
