package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const slotMinutes = 30

// Event validation errors.
var (
	ErrInvalidDate      = errors.New("date must be an ISO calendar date (YYYY-MM-DD)")
	ErrInvalidTimeRange = errors.New("start time must be before end time")
	ErrUnalignedTime    = errors.New("start and end must fall on 30-minute slot boundaries")
)

func validateEvent(e Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, e.Date)
	}
	if e.StartMin < 0 || e.EndMin > 24*60 || e.StartMin >= e.EndMin {
		return ErrInvalidTimeRange
	}
	if e.StartMin%slotMinutes != 0 || e.EndMin%slotMinutes != 0 {
		return ErrUnalignedTime
	}
	return nil
}

// CreateEvent validates and inserts a calendar event.
func (s *Store) CreateEvent(e Event) (*Event, error) {
	if err := validateEvent(e); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO events (title, date, start_min, end_min, color, can_overlap, task_id, priority, description, location, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.Date, e.StartMin, e.EndMin, e.Color, boolToInt(e.CanOverlap),
		e.TaskID, string(e.Priority), e.Description, e.Location, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetEvent(id)
}

func (s *Store) GetEvent(id int64) (*Event, error) {
	row := s.db.QueryRow(
		`SELECT id, title, date, start_min, end_min, color, can_overlap, task_id, priority, description, location, created_at
		 FROM events WHERE id = ?`, id,
	)
	e, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return e, nil
}

// ListEvents returns events matching the filter, ordered by date then
// start time.
func (s *Store) ListEvents(f EventFilter) ([]Event, error) {
	query := `SELECT id, title, date, start_min, end_min, color, can_overlap, task_id, priority, description, location, created_at
	          FROM events WHERE 1=1`
	var args []any

	if f.Date != "" {
		query += ` AND date = ?`
		args = append(args, f.Date)
	}
	if f.FromDate != "" {
		query += ` AND date >= ?`
		args = append(args, f.FromDate)
	}
	if f.ToDate != "" {
		query += ` AND date <= ?`
		args = append(args, f.ToDate)
	}
	if f.TaskID != nil {
		query += ` AND task_id = ?`
		args = append(args, *f.TaskID)
	}
	query += ` ORDER BY date, start_min, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// EventsByDate returns the occupied-interval snapshot the scheduler
// consumes: all events between from and to (inclusive), grouped by date.
func (s *Store) EventsByDate(from, to string) (map[string][]Event, error) {
	events, err := s.ListEvents(EventFilter{FromDate: from, ToDate: to})
	if err != nil {
		return nil, err
	}
	byDate := make(map[string][]Event)
	for _, e := range events {
		byDate[e.Date] = append(byDate[e.Date], e)
	}
	return byDate, nil
}

// UpdateEvent rewrites an event's editable fields after validation.
func (s *Store) UpdateEvent(e Event) error {
	if err := validateEvent(e); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`UPDATE events SET title = ?, date = ?, start_min = ?, end_min = ?, color = ?,
		        can_overlap = ?, description = ?, location = ?
		 WHERE id = ?`,
		e.Title, e.Date, e.StartMin, e.EndMin, e.Color,
		boolToInt(e.CanOverlap), e.Description, e.Location, e.ID,
	)
	return err
}

// DeleteEvent removes an event. If the event was produced by scheduling
// a task, that task's scheduled flag is reset in the same transaction so
// the task returns to the backlog.
func (s *Store) DeleteEvent(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete event: %w", err)
	}
	defer tx.Rollback()

	var taskID sql.NullInt64
	err = tx.QueryRow(`SELECT task_id FROM events WHERE id = ?`, id).Scan(&taskID)
	if err != nil {
		return fmt.Errorf("get event %d: %w", id, err)
	}

	if _, err := tx.Exec(`DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}

	if taskID.Valid {
		now := time.Now().UTC().Format(time.RFC3339)
		_, err = tx.Exec(
			`UPDATE tasks SET scheduled = 0, updated_at = ? WHERE id = ?`,
			now, taskID.Int64,
		)
		if err != nil {
			return fmt.Errorf("reset task %d: %w", taskID.Int64, err)
		}
	}

	return tx.Commit()
}

// ApplySchedule commits a scheduling pass: every placed event is
// inserted and its task marked scheduled, all in one transaction. Either
// the whole pass lands or none of it does.
func (s *Store) ApplySchedule(placed []Event) ([]Event, error) {
	if len(placed) == 0 {
		return nil, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin apply schedule: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	out := make([]Event, 0, len(placed))

	for _, e := range placed {
		if err := validateEvent(e); err != nil {
			return nil, fmt.Errorf("placement %q: %w", e.Title, err)
		}
		res, err := tx.Exec(
			`INSERT INTO events (title, date, start_min, end_min, color, can_overlap, task_id, priority, description, location, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Title, e.Date, e.StartMin, e.EndMin, e.Color, boolToInt(e.CanOverlap),
			e.TaskID, string(e.Priority), e.Description, e.Location, now,
		)
		if err != nil {
			return nil, fmt.Errorf("insert placement %q: %w", e.Title, err)
		}
		e.ID, _ = res.LastInsertId()
		e.CreatedAt, _ = time.Parse(time.RFC3339, now)
		out = append(out, e)

		if e.TaskID != nil {
			_, err = tx.Exec(
				`UPDATE tasks SET scheduled = 1, updated_at = ? WHERE id = ?`,
				now, *e.TaskID,
			)
			if err != nil {
				return nil, fmt.Errorf("mark task %d scheduled: %w", *e.TaskID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit schedule: %w", err)
	}
	return out, nil
}

// GetDailyLoad aggregates scheduled minutes per date between from and to
// (inclusive), for the stats view.
func (s *Store) GetDailyLoad(from, to string) ([]DailyLoad, error) {
	rows, err := s.db.Query(`
		SELECT date,
		       COALESCE(SUM(end_min - start_min), 0),
		       COALESCE(SUM(CASE WHEN task_id IS NOT NULL THEN end_min - start_min ELSE 0 END), 0),
		       COUNT(*)
		FROM events
		WHERE date >= ? AND date <= ?
		GROUP BY date
		ORDER BY date`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("daily load: %w", err)
	}
	defer rows.Close()

	var loads []DailyLoad
	for rows.Next() {
		var l DailyLoad
		if err := rows.Scan(&l.Date, &l.TotalMinutes, &l.TaskMinutes, &l.EventCount); err != nil {
			return nil, err
		}
		loads = append(loads, l)
	}
	return loads, rows.Err()
}

// GetCategoryLoad aggregates task-placement minutes per task category
// between from and to (inclusive). Manual events carry no category and
// are not counted.
func (s *Store) GetCategoryLoad(from, to string) ([]CategoryLoad, error) {
	rows, err := s.db.Query(`
		SELECT COALESCE(NULLIF(t.category, ''), 'uncategorized'),
		       COALESCE(SUM(e.end_min - e.start_min), 0),
		       COUNT(*)
		FROM events e
		JOIN tasks t ON t.id = e.task_id
		WHERE e.date >= ? AND e.date <= ?
		GROUP BY 1
		ORDER BY 2 DESC`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("category load: %w", err)
	}
	defer rows.Close()

	var loads []CategoryLoad
	for rows.Next() {
		var l CategoryLoad
		if err := rows.Scan(&l.Category, &l.TotalMinutes, &l.EventCount); err != nil {
			return nil, err
		}
		loads = append(loads, l)
	}
	return loads, rows.Err()
}

func scanEvent(row rowScanner) (*Event, error) {
	e := &Event{}
	var priority, createdAt string
	var canOverlap int
	var taskID sql.NullInt64
	err := row.Scan(&e.ID, &e.Title, &e.Date, &e.StartMin, &e.EndMin, &e.Color,
		&canOverlap, &taskID, &priority, &e.Description, &e.Location, &createdAt)
	if err != nil {
		return nil, err
	}
	e.Priority = Priority(priority)
	e.CanOverlap = canOverlap == 1
	if taskID.Valid {
		e.TaskID = &taskID.Int64
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return e, nil
}
