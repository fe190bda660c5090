package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/plannr/internal/schedule"
	"github.com/sadopc/plannr/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewCalendar viewState = iota
	viewBacklog
	viewStats
	viewSettings
)

var viewNames = []string{"Calendar", "Backlog", "Stats", "Settings"}

// --- Messages ---

type weekEventsMsg struct {
	weekStart time.Time
	events    map[string][]store.Event
}

type tasksDataMsg struct {
	tasks []store.Task
}

type settingsDataMsg struct {
	settings []store.Setting
}

type statsDataMsg struct {
	loads      []store.DailyLoad
	categories []store.CategoryLoad
}

type scheduleDoneMsg struct {
	placed    int
	attempted int
}

type eventDeletedMsg struct {
	hadTask bool
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// --- Settings access ---

// scheduleDefaults are the stored auto-schedule presets seeded into the
// schedule form and used for new-event defaults.
type scheduleDefaults struct {
	windowStart     int
	windowEnd       int
	weekdays        []time.Weekday
	horizonDays     int
	defaultDuration int
	defaultColor    string
	weekStart       string
}

func loadDefaults(s *store.Store) scheduleDefaults {
	d := scheduleDefaults{
		windowStart:     540,
		windowEnd:       1020,
		weekdays:        []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		horizonDays:     7,
		defaultDuration: 60,
		defaultColor:    taskColors[0],
		weekStart:       "sunday",
	}
	if v, err := s.GetSetting("window_start"); err == nil {
		if n, err := strconv.Atoi(v); err == nil {
			d.windowStart = n
		}
	}
	if v, err := s.GetSetting("window_end"); err == nil {
		if n, err := strconv.Atoi(v); err == nil {
			d.windowEnd = n
		}
	}
	if v, err := s.GetSetting("schedule_days"); err == nil {
		if days := parseWeekdays(v); len(days) > 0 {
			d.weekdays = days
		}
	}
	if v, err := s.GetSetting("horizon_days"); err == nil {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			d.horizonDays = n
		}
	}
	if v, err := s.GetSetting("default_duration"); err == nil {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			d.defaultDuration = n
		}
	}
	if v, err := s.GetSetting("default_color"); err == nil && v != "" {
		d.defaultColor = v
	}
	if v, err := s.GetSetting("week_start"); err == nil && v != "" {
		d.weekStart = v
	}
	return d
}

// parseWeekdays decodes the stored "1,2,3" form (0 = Sunday).
func parseWeekdays(v string) []time.Weekday {
	var days []time.Weekday
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	return days
}

func formatWeekdays(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

// --- Date helpers ---

func dateOf(t time.Time) string {
	return t.Format(schedule.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(schedule.DateLayout, strings.TrimSpace(s), time.Local)
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
}

// startOfWeek truncates to the beginning of the week containing t,
// honoring the week_start setting.
func startOfWeek(t time.Time, weekStart string) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := int(day.Weekday())
	if weekStart == "monday" {
		offset = (offset + 6) % 7
	}
	return day.AddDate(0, 0, -offset)
}

// --- Formatting helpers ---

func formatMinutes(m int) string {
	return schedule.FormatMinutes(m)
}

// formatDuration renders minutes as "1h 30m" / "45m".
func formatDuration(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if h > 0 && m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if h > 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dm", m)
}

func priorityBadge(p store.Priority) string {
	switch p {
	case store.PriorityUrgent:
		return "!!"
	case store.PriorityHigh:
		return "! "
	case store.PriorityMedium:
		return "· "
	default:
		return "  "
	}
}
