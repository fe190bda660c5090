// Package schedule implements the auto-scheduling engine: a pure,
// synchronous computation that places backlog tasks into free slots of a
// 30-minute day grid, given an occupied-interval snapshot and a request
// describing the date range, daily window and allowed weekdays.
package schedule

import "fmt"

const (
	// SlotMinutes is the grid granularity.
	SlotMinutes = 30
	// MinutesPerDay is one calendar day in minutes.
	MinutesPerDay = 24 * 60
	// SlotsPerDay is the number of grid slots in one day.
	SlotsPerDay = MinutesPerDay / SlotMinutes
)

// DateLayout is the ISO calendar-date form used throughout the planner.
const DateLayout = "2006-01-02"

// Slot is one discrete point of the day grid. SortOrder is minutes since
// midnight and is the only field ever compared or used in arithmetic;
// Display is a derived 12-hour label for rendering.
type Slot struct {
	SortOrder int
	Display   string
}

// Slots returns the full ordered day grid: 48 slots covering 0..1439 in
// 30-minute steps. Deterministic, no side effects.
func Slots() []Slot {
	slots := make([]Slot, 0, SlotsPerDay)
	for m := 0; m < MinutesPerDay; m += SlotMinutes {
		slots = append(slots, Slot{SortOrder: m, Display: FormatMinutes(m)})
	}
	return slots
}

// FormatMinutes renders a minute offset as a 12-hour clock label,
// e.g. 540 -> "9:00 AM", 0 -> "12:00 AM", 750 -> "12:30 PM".
func FormatMinutes(m int) string {
	m = ((m % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	hour := m / 60
	min := m % 60

	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour12, min, ampm)
}

// AddMinutes advances a minute offset, clipped into a single day via
// modulo. The scheduler never relies on the wrap: placements that would
// cross midnight are rejected by the window bound before this is called.
func AddMinutes(sortOrder, minutes int) int {
	m := (sortOrder + minutes) % MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return m
}

// DurationSlots is the slot span between two offsets on the same day.
// Callers guarantee start < end; the panic guards the grid invariant.
func DurationSlots(start, end int) int {
	if end <= start {
		panic(fmt.Sprintf("schedule: non-positive span %d..%d", start, end))
	}
	return (end - start) / SlotMinutes
}

// SlotsNeeded is how many contiguous slots a task of the given duration
// occupies: ceil(duration / SlotMinutes).
func SlotsNeeded(durationMinutes int) int {
	return (durationMinutes + SlotMinutes - 1) / SlotMinutes
}

// SlotIndex maps a minute offset to its index in the Slots sequence.
func SlotIndex(sortOrder int) int {
	return sortOrder / SlotMinutes
}
