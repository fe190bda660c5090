package schedule

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sadopc/plannr/internal/store"
)

// Request describes one auto-scheduling pass. It is transient and never
// persisted.
type Request struct {
	StartDate time.Time // first candidate date, inclusive
	EndDate   time.Time // last candidate date, inclusive
	// Daily placement window in minutes since midnight. A placement must
	// start at or after WindowStart and end at or before WindowEnd.
	WindowStart int
	WindowEnd   int
	Weekdays    []time.Weekday
}

// Request validation errors.
var (
	ErrNoWeekdays      = errors.New("at least one weekday must be allowed")
	ErrDateOrder       = errors.New("start date must not be after end date")
	ErrWindowOrder     = errors.New("window start must be before window end")
	ErrWindowUnaligned = errors.New("window bounds must fall on 30-minute slot boundaries")
)

// Validate rejects malformed requests before any scheduling work happens.
func (r Request) Validate() error {
	if len(r.Weekdays) == 0 {
		return ErrNoWeekdays
	}
	if r.EndDate.Before(r.StartDate) {
		return ErrDateOrder
	}
	if r.WindowStart < 0 || r.WindowEnd > MinutesPerDay || r.WindowStart >= r.WindowEnd {
		return ErrWindowOrder
	}
	if r.WindowStart%SlotMinutes != 0 || r.WindowEnd%SlotMinutes != 0 {
		return ErrWindowUnaligned
	}
	return nil
}

func (r Request) allowsWeekday(d time.Weekday) bool {
	for _, w := range r.Weekdays {
		if w == d {
			return true
		}
	}
	return false
}

// Result is the outcome of one scheduling pass. Placed events carry zero
// IDs until the caller persists them (store.ApplySchedule).
type Result struct {
	Placed      []store.Event
	Scheduled   map[int64]bool
	Unscheduled map[int64]bool
}

// ProgressFunc is invoked after each task decision. done counts decided
// tasks, total is the number of tasks attempted in this pass.
type ProgressFunc func(done, total int, task store.Task, placed bool)

// Run places as many unscheduled backlog tasks as possible inside the
// requested range. Tasks are attempted highest priority first (stable on
// backlog order for ties); each task takes the first free span scanning
// dates ascending, then slots ascending. Placements made earlier in the
// pass occupy slots for later tasks. Tasks that fit nowhere are reported
// in Result.Unscheduled — partial success is normal, not an error.
//
// The engine is pure: backlog and occupied are read-only snapshots, and
// nothing here touches the store or the clock.
func Run(backlog []store.Task, occupied map[string][]store.Event, req Request, progress ProgressFunc) (Result, error) {
	res := Result{
		Scheduled:   make(map[int64]bool),
		Unscheduled: make(map[int64]bool),
	}
	if err := req.Validate(); err != nil {
		return res, err
	}

	var pending []store.Task
	for _, t := range backlog {
		if !t.Scheduled {
			pending = append(pending, t)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Priority.Rank() > pending[j].Priority.Rank()
	})

	// Local copy of the snapshot; in-pass placements accumulate here so
	// later tasks see them, without mutating the caller's map.
	dayEvents := make(map[string][]store.Event, len(occupied))
	for date, evs := range occupied {
		dayEvents[date] = append([]store.Event(nil), evs...)
	}

	for i, task := range pending {
		placed := placeTask(task, dayEvents, req, &res)
		if progress != nil {
			progress(i+1, len(pending), task, placed)
		}
	}

	return res, nil
}

// placeTask finds the first valid span for one task and records the
// placement. Returns false if the task is malformed or fits nowhere.
func placeTask(task store.Task, dayEvents map[string][]store.Event, req Request, res *Result) bool {
	// A malformed task is skipped, never aborting the rest of the pass.
	if strings.TrimSpace(task.Title) == "" || task.Duration <= 0 {
		res.Unscheduled[task.ID] = true
		return false
	}

	slotsNeeded := SlotsNeeded(task.Duration)
	span := slotsNeeded * SlotMinutes

	// Last start that still ends inside the window. If the window is too
	// narrow for even one placement, the task can never be scheduled.
	lastStart := req.WindowEnd - span
	if lastStart < req.WindowStart {
		res.Unscheduled[task.ID] = true
		return false
	}

	for d := req.StartDate; !d.After(req.EndDate); d = d.AddDate(0, 0, 1) {
		if !req.allowsWeekday(d.Weekday()) {
			continue
		}

		date := d.Format(DateLayout)
		blocked := blockedSlots(dayEvents[date], task.CanOverlap)

		for start := req.WindowStart; start <= lastStart; start += SlotMinutes {
			if !fits(blocked, start, slotsNeeded) {
				continue
			}

			taskID := task.ID
			ev := store.Event{
				Title:       task.Title,
				Date:        date,
				StartMin:    start,
				EndMin:      start + span,
				Color:       task.Color,
				CanOverlap:  task.CanOverlap,
				TaskID:      &taskID,
				Priority:    task.Priority,
				Description: task.Description,
				Location:    task.Location,
			}
			res.Placed = append(res.Placed, ev)
			res.Scheduled[task.ID] = true
			dayEvents[date] = append(dayEvents[date], ev)
			return true
		}
	}

	res.Unscheduled[task.ID] = true
	return false
}
