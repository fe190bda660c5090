package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation errors shared by task and event constructors.
var (
	ErrEmptyTitle      = errors.New("title must not be empty")
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")
	ErrInvalidPriority = errors.New("unknown priority")
)

// CreateTask validates and inserts a new backlog task. New tasks always
// start unscheduled.
func (s *Store) CreateTask(t Task) (*Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return nil, ErrEmptyTitle
	}
	if t.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO tasks (title, duration, priority, can_overlap, color, description, location, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Duration, string(t.Priority), boolToInt(t.CanOverlap),
		t.Color, t.Description, t.Location, t.Category, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTask(id)
}

func (s *Store) GetTask(id int64) (*Task, error) {
	row := s.db.QueryRow(
		`SELECT id, title, duration, priority, can_overlap, color, description, location, category, scheduled, created_at, updated_at
		 FROM tasks WHERE id = ?`, id,
	)
	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

// ListTasks returns tasks ordered by priority rank descending, then by
// creation order. With backlogOnly set, scheduled tasks are omitted.
func (s *Store) ListTasks(backlogOnly bool) ([]Task, error) {
	query := `SELECT id, title, duration, priority, can_overlap, color, description, location, category, scheduled, created_at, updated_at
	          FROM tasks`
	if backlogOnly {
		query += ` WHERE scheduled = 0`
	}
	query += ` ORDER BY CASE priority
	             WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1
	           END DESC, id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// UpdateTask rewrites a task's editable fields. The scheduled flag is
// managed separately via SetTaskScheduled and ApplySchedule.
func (s *Store) UpdateTask(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.Duration <= 0 {
		return ErrInvalidDuration
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE tasks SET title = ?, duration = ?, priority = ?, can_overlap = ?, color = ?,
		        description = ?, location = ?, category = ?, updated_at = ?
		 WHERE id = ?`,
		t.Title, t.Duration, string(t.Priority), boolToInt(t.CanOverlap), t.Color,
		t.Description, t.Location, t.Category, now, t.ID,
	)
	return err
}

// DeleteTask removes a task. Linked calendar events go with it via the
// foreign-key cascade.
func (s *Store) DeleteTask(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return err
}

func (s *Store) SetTaskScheduled(id int64, scheduled bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE tasks SET scheduled = ?, updated_at = ? WHERE id = ?`,
		boolToInt(scheduled), now, id,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	t := &Task{}
	var priority, createdAt, updatedAt string
	var canOverlap, scheduled int
	err := row.Scan(&t.ID, &t.Title, &t.Duration, &priority, &canOverlap,
		&t.Color, &t.Description, &t.Location, &t.Category, &scheduled,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.Priority = Priority(priority)
	t.CanOverlap = canOverlap == 1
	t.Scheduled = scheduled == 1
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
