package store

import (
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustTask is a test helper that creates a valid task.
func mustTask(t *testing.T, s *Store, title string, duration int, prio Priority) *Task {
	t.Helper()
	task, err := s.CreateTask(Task{Title: title, Duration: duration, Priority: prio})
	if err != nil {
		t.Fatalf("create task %q: %v", title, err)
	}
	return task
}

// mustEvent is a test helper that creates a valid manual event.
func mustEvent(t *testing.T, s *Store, title, date string, startMin, endMin int) *Event {
	t.Helper()
	e, err := s.CreateEvent(Event{Title: title, Date: date, StartMin: startMin, EndMin: endMin})
	if err != nil {
		t.Fatalf("create event %q: %v", title, err)
	}
	return e
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Should have run migration v1
	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/plannr.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen — should succeed and not re-migrate
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestDefaultSettingsSeeded(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetSetting("window_start")
	if err != nil {
		t.Fatal(err)
	}
	if v != "540" {
		t.Fatalf("window_start = %q", v)
	}
}

// ============================================================
// Tasks
// ============================================================

func TestCreateAndGetTask(t *testing.T) {
	s := newTestStore(t)
	task, err := s.CreateTask(Task{
		Title:       "Write docs",
		Duration:    90,
		Priority:    PriorityHigh,
		CanOverlap:  true,
		Color:       "#FF6B6B",
		Description: "API reference",
		Location:    "home",
		Category:    "work",
	})
	if err != nil {
		t.Fatal(err)
	}
	if task.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if task.Title != "Write docs" || task.Duration != 90 || task.Priority != PriorityHigh {
		t.Fatalf("unexpected task: %+v", task)
	}
	if !task.CanOverlap || task.Scheduled {
		t.Fatalf("flags wrong: %+v", task)
	}
	if task.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set")
	}
}

func TestCreateTaskValidation(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateTask(Task{Title: "   ", Duration: 30}); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("empty title: got %v", err)
	}
	if _, err := s.CreateTask(Task{Title: "x", Duration: 0}); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("zero duration: got %v", err)
	}
	if _, err := s.CreateTask(Task{Title: "x", Duration: -30}); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("negative duration: got %v", err)
	}
	if _, err := s.CreateTask(Task{Title: "x", Duration: 30, Priority: "asap"}); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("bad priority: got %v", err)
	}
}

func TestCreateTaskDefaultsPriority(t *testing.T) {
	s := newTestStore(t)
	task, err := s.CreateTask(Task{Title: "x", Duration: 30})
	if err != nil {
		t.Fatal(err)
	}
	if task.Priority != PriorityMedium {
		t.Fatalf("default priority = %q", task.Priority)
	}
}

func TestListTasksPriorityOrder(t *testing.T) {
	s := newTestStore(t)
	mustTask(t, s, "low", 30, PriorityLow)
	mustTask(t, s, "urgent", 30, PriorityUrgent)
	mustTask(t, s, "medium", 30, PriorityMedium)

	tasks, err := s.ListTasks(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	if tasks[0].Title != "urgent" || tasks[2].Title != "low" {
		t.Fatalf("wrong order: %s, %s, %s", tasks[0].Title, tasks[1].Title, tasks[2].Title)
	}
}

func TestListTasksBacklogOnly(t *testing.T) {
	s := newTestStore(t)
	a := mustTask(t, s, "a", 30, PriorityMedium)
	mustTask(t, s, "b", 30, PriorityMedium)
	if err := s.SetTaskScheduled(a.ID, true); err != nil {
		t.Fatal(err)
	}

	backlog, err := s.ListTasks(true)
	if err != nil {
		t.Fatal(err)
	}
	if len(backlog) != 1 || backlog[0].Title != "b" {
		t.Fatalf("backlog = %+v", backlog)
	}
}

func TestUpdateTask(t *testing.T) {
	s := newTestStore(t)
	task := mustTask(t, s, "old", 30, PriorityLow)

	task.Title = "new"
	task.Duration = 120
	task.Priority = PriorityUrgent
	if err := s.UpdateTask(*task); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "new" || got.Duration != 120 || got.Priority != PriorityUrgent {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestDeleteTaskRemovesLinkedEvents(t *testing.T) {
	s := newTestStore(t)
	task := mustTask(t, s, "t", 60, PriorityMedium)

	_, err := s.CreateEvent(Event{
		Title: "t", Date: "2026-01-05", StartMin: 540, EndMin: 600, TaskID: &task.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteTask(task.ID); err != nil {
		t.Fatal(err)
	}
	events, err := s.ListEvents(EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("linked event should cascade away, got %d", len(events))
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetTask(999); err == nil {
		t.Fatal("expected error for missing task")
	}
}

// ============================================================
// Events
// ============================================================

func TestCreateAndGetEvent(t *testing.T) {
	s := newTestStore(t)
	e := mustEvent(t, s, "Standup", "2026-01-05", 540, 570)
	if e.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if e.Date != "2026-01-05" || e.StartMin != 540 || e.EndMin != 570 {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.TaskID != nil {
		t.Fatal("manual event should not carry a task reference")
	}
}

func TestCreateEventValidation(t *testing.T) {
	s := newTestStore(t)

	cases := []struct {
		name string
		e    Event
		want error
	}{
		{"empty title", Event{Title: " ", Date: "2026-01-05", StartMin: 540, EndMin: 600}, ErrEmptyTitle},
		{"bad date", Event{Title: "x", Date: "Jan 5", StartMin: 540, EndMin: 600}, ErrInvalidDate},
		{"inverted range", Event{Title: "x", Date: "2026-01-05", StartMin: 600, EndMin: 540}, ErrInvalidTimeRange},
		{"zero length", Event{Title: "x", Date: "2026-01-05", StartMin: 540, EndMin: 540}, ErrInvalidTimeRange},
		{"past midnight", Event{Title: "x", Date: "2026-01-05", StartMin: 1410, EndMin: 1470}, ErrInvalidTimeRange},
		{"unaligned", Event{Title: "x", Date: "2026-01-05", StartMin: 545, EndMin: 600}, ErrUnalignedTime},
	}
	for _, c := range cases {
		if _, err := s.CreateEvent(c.e); !errors.Is(err, c.want) {
			t.Errorf("%s: got %v, want %v", c.name, err, c.want)
		}
	}
}

func TestListEventsOrdered(t *testing.T) {
	s := newTestStore(t)
	mustEvent(t, s, "late", "2026-01-05", 900, 960)
	mustEvent(t, s, "early", "2026-01-05", 540, 600)
	mustEvent(t, s, "prev-day", "2026-01-04", 1020, 1080)

	events, err := s.ListEvents(EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Title != "prev-day" || events[1].Title != "early" || events[2].Title != "late" {
		t.Fatalf("wrong order: %s, %s, %s", events[0].Title, events[1].Title, events[2].Title)
	}
}

func TestListEventsByDate(t *testing.T) {
	s := newTestStore(t)
	mustEvent(t, s, "a", "2026-01-05", 540, 600)
	mustEvent(t, s, "b", "2026-01-06", 540, 600)

	events, err := s.ListEvents(EventFilter{Date: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Title != "a" {
		t.Fatalf("events = %+v", events)
	}
}

func TestEventsByDateSnapshot(t *testing.T) {
	s := newTestStore(t)
	mustEvent(t, s, "a", "2026-01-05", 540, 600)
	mustEvent(t, s, "b", "2026-01-05", 600, 660)
	mustEvent(t, s, "c", "2026-01-07", 540, 600)
	mustEvent(t, s, "out of range", "2026-02-01", 540, 600)

	byDate, err := s.EventsByDate("2026-01-05", "2026-01-11")
	if err != nil {
		t.Fatal(err)
	}
	if len(byDate) != 2 {
		t.Fatalf("expected 2 dates, got %d", len(byDate))
	}
	if len(byDate["2026-01-05"]) != 2 || len(byDate["2026-01-07"]) != 1 {
		t.Fatalf("snapshot = %+v", byDate)
	}
}

func TestUpdateEvent(t *testing.T) {
	s := newTestStore(t)
	e := mustEvent(t, s, "old", "2026-01-05", 540, 600)

	e.Title = "new"
	e.StartMin, e.EndMin = 600, 690
	if err := s.UpdateEvent(*e); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetEvent(e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "new" || got.StartMin != 600 || got.EndMin != 690 {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestDeleteEventResetsTask(t *testing.T) {
	s := newTestStore(t)
	task := mustTask(t, s, "t", 60, PriorityMedium)

	placed, err := s.ApplySchedule([]Event{{
		Title: "t", Date: "2026-01-05", StartMin: 540, EndMin: 600, TaskID: &task.ID,
	}})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetTask(task.ID)
	if !got.Scheduled {
		t.Fatal("task should be scheduled after ApplySchedule")
	}

	if err := s.DeleteEvent(placed[0].ID); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetTask(task.ID)
	if got.Scheduled {
		t.Fatal("deleting the linked event must return the task to the backlog")
	}
}

func TestDeleteManualEvent(t *testing.T) {
	s := newTestStore(t)
	e := mustEvent(t, s, "x", "2026-01-05", 540, 600)
	if err := s.DeleteEvent(e.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetEvent(e.ID); err == nil {
		t.Fatal("event should be gone")
	}
}

// ============================================================
// ApplySchedule
// ============================================================

func TestApplyScheduleCommitsAll(t *testing.T) {
	s := newTestStore(t)
	a := mustTask(t, s, "a", 60, PriorityHigh)
	b := mustTask(t, s, "b", 30, PriorityLow)

	placed, err := s.ApplySchedule([]Event{
		{Title: "a", Date: "2026-01-05", StartMin: 540, EndMin: 600, TaskID: &a.ID},
		{Title: "b", Date: "2026-01-05", StartMin: 600, EndMin: 630, TaskID: &b.ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(placed) != 2 || placed[0].ID == 0 || placed[1].ID == 0 {
		t.Fatalf("placed = %+v", placed)
	}

	backlog, _ := s.ListTasks(true)
	if len(backlog) != 0 {
		t.Fatalf("all tasks should be scheduled, backlog = %+v", backlog)
	}
}

func TestApplyScheduleAtomic(t *testing.T) {
	s := newTestStore(t)
	a := mustTask(t, s, "a", 60, PriorityHigh)

	// Second placement is invalid; the first must not survive.
	_, err := s.ApplySchedule([]Event{
		{Title: "a", Date: "2026-01-05", StartMin: 540, EndMin: 600, TaskID: &a.ID},
		{Title: "", Date: "2026-01-05", StartMin: 600, EndMin: 630},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}

	events, _ := s.ListEvents(EventFilter{})
	if len(events) != 0 {
		t.Fatalf("failed pass must not leave partial events, got %d", len(events))
	}
	got, _ := s.GetTask(a.ID)
	if got.Scheduled {
		t.Fatal("failed pass must not flip scheduled flags")
	}
}

func TestApplyScheduleEmpty(t *testing.T) {
	s := newTestStore(t)
	placed, err := s.ApplySchedule(nil)
	if err != nil || placed != nil {
		t.Fatalf("empty pass: %v, %v", placed, err)
	}
}

// ============================================================
// Daily load
// ============================================================

func TestGetDailyLoad(t *testing.T) {
	s := newTestStore(t)
	task := mustTask(t, s, "t", 60, PriorityMedium)

	mustEvent(t, s, "manual", "2026-01-05", 540, 600)
	_, err := s.ApplySchedule([]Event{{
		Title: "t", Date: "2026-01-05", StartMin: 600, EndMin: 660, TaskID: &task.ID,
	}})
	if err != nil {
		t.Fatal(err)
	}

	loads, err := s.GetDailyLoad("2026-01-05", "2026-01-11")
	if err != nil {
		t.Fatal(err)
	}
	if len(loads) != 1 {
		t.Fatalf("expected 1 day, got %d", len(loads))
	}
	l := loads[0]
	if l.TotalMinutes != 120 || l.TaskMinutes != 60 || l.EventCount != 2 {
		t.Fatalf("load = %+v", l)
	}
}

func TestGetCategoryLoad(t *testing.T) {
	s := newTestStore(t)
	work, err := s.CreateTask(Task{Title: "report", Duration: 60, Category: "work"})
	if err != nil {
		t.Fatal(err)
	}
	uncat, err := s.CreateTask(Task{Title: "chores", Duration: 30})
	if err != nil {
		t.Fatal(err)
	}

	// Manual events have no category and must not be counted.
	mustEvent(t, s, "manual", "2026-01-05", 540, 600)
	_, err = s.ApplySchedule([]Event{
		{Title: "report", Date: "2026-01-05", StartMin: 600, EndMin: 660, TaskID: &work.ID},
		{Title: "report", Date: "2026-01-06", StartMin: 600, EndMin: 660, TaskID: &work.ID},
		{Title: "chores", Date: "2026-01-05", StartMin: 660, EndMin: 690, TaskID: &uncat.ID},
	})
	if err != nil {
		t.Fatal(err)
	}

	loads, err := s.GetCategoryLoad("2026-01-05", "2026-01-11")
	if err != nil {
		t.Fatal(err)
	}
	if len(loads) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(loads))
	}
	if loads[0].Category != "work" || loads[0].TotalMinutes != 120 || loads[0].EventCount != 2 {
		t.Fatalf("work load = %+v", loads[0])
	}
	if loads[1].Category != "uncategorized" || loads[1].TotalMinutes != 30 {
		t.Fatalf("fallback load = %+v", loads[1])
	}
}

// ============================================================
// Settings
// ============================================================

func TestSetAndGetSetting(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetSetting("window_start", "600"); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetSetting("window_start")
	if err != nil {
		t.Fatal(err)
	}
	if v != "600" {
		t.Fatalf("got %q", v)
	}
}

func TestGetAllSettings(t *testing.T) {
	s := newTestStore(t)
	settings, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(settings) < 7 {
		t.Fatalf("expected seeded defaults, got %d", len(settings))
	}
}

// ============================================================
// Priority
// ============================================================

func TestPriorityRank(t *testing.T) {
	if !(PriorityLow.Rank() < PriorityMedium.Rank() &&
		PriorityMedium.Rank() < PriorityHigh.Rank() &&
		PriorityHigh.Rank() < PriorityUrgent.Rank()) {
		t.Fatal("priority order broken")
	}
	if Priority("nope").Valid() {
		t.Fatal("unknown priority should be invalid")
	}
}
