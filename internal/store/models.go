package store

import "time"

// Priority of a backlog task. Higher-ranked tasks get first claim on
// open slots during auto-scheduling.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank returns the scheduling precedence of a priority. Unknown values
// rank below low so malformed rows never jump the queue.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Priorities lists all valid priorities in ascending rank order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Task is a backlog entry: a unit of work that may or may not have been
// placed on the calendar yet.
type Task struct {
	ID          int64
	Title       string
	Duration    int // minutes
	Priority    Priority
	CanOverlap  bool
	Color       string
	Description string
	Location    string
	Category    string
	Scheduled   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Event is an occupied interval on a specific calendar date. StartMin
// and EndMin are minutes since midnight, aligned to the 30-minute grid.
// TaskID is set only for events produced by scheduling a backlog task;
// it is a back-reference, not ownership.
type Event struct {
	ID          int64
	Title       string
	Date        string // ISO calendar date, "2006-01-02"
	StartMin    int
	EndMin      int
	Color       string
	CanOverlap  bool
	TaskID      *int64
	Priority    Priority
	Description string
	Location    string
	CreatedAt   time.Time
}

type Setting struct {
	Key   string
	Value string
}

// EventFilter narrows ListEvents queries.
type EventFilter struct {
	Date     string // exact date
	FromDate string // inclusive
	ToDate   string // inclusive
	TaskID   *int64
}

// DailyLoad is the aggregated scheduled time on one date, split by
// manual events vs. task placements.
type DailyLoad struct {
	Date         string
	TotalMinutes int
	TaskMinutes  int
	EventCount   int
}

// CategoryLoad is the aggregated task-placement time for one category
// across a date range.
type CategoryLoad struct {
	Category     string
	TotalMinutes int
	EventCount   int
}
