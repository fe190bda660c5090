package schedule

import "github.com/sadopc/plannr/internal/store"

// blockedSlots computes the set of blocked slot indices on one date,
// given that date's events and the overlap permission of the task being
// placed. An event blocks its [start, end) range unless both sides
// permit overlap; either side refusing blocks the range. The result
// depends on taskCanOverlap, so it is rebuilt per (date, task) rather
// than cached.
func blockedSlots(events []store.Event, taskCanOverlap bool) map[int]struct{} {
	blocked := make(map[int]struct{})
	for _, ev := range events {
		if taskCanOverlap && ev.CanOverlap {
			continue
		}
		for i := SlotIndex(ev.StartMin); i < SlotIndex(ev.EndMin); i++ {
			blocked[i] = struct{}{}
		}
	}
	return blocked
}

// fits reports whether slotsNeeded contiguous slots starting at the
// given offset are all free and inside the day.
func fits(blocked map[int]struct{}, startMin, slotsNeeded int) bool {
	start := SlotIndex(startMin)
	if start+slotsNeeded > SlotsPerDay {
		return false
	}
	for i := start; i < start+slotsNeeded; i++ {
		if _, ok := blocked[i]; ok {
			return false
		}
	}
	return true
}
