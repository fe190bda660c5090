package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/plannr/internal/schedule"
	"github.com/sadopc/plannr/internal/store"
)

type calendarModel struct {
	store  *store.Store
	width  int
	height int

	weekStart   time.Time
	dayCursor   int // 0..6 within the visible week
	eventCursor int
	events      map[string][]store.Event

	formActive bool
	form       *huh.Form
	formType   string // "event", "edit_event"

	formTitle    *string
	formDate     *string
	formStart    *int
	formDuration *int
	formColor    *string
	formOverlap  *bool
	formLocation *string
	formDesc     *string

	editingID int64
}

func newCalendarModel(s *store.Store) calendarModel {
	title, date, loc, desc := "", "", "", ""
	start, dur := 540, 60
	color := taskColors[0]
	overlap := false

	defaults := loadDefaults(s)

	return calendarModel{
		store:        s,
		weekStart:    startOfWeek(today(), defaults.weekStart),
		events:       map[string][]store.Event{},
		formTitle:    &title,
		formDate:     &date,
		formStart:    &start,
		formDuration: &dur,
		formColor:    &color,
		formOverlap:  &overlap,
		formLocation: &loc,
		formDesc:     &desc,
	}
}

func (c *calendarModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

func (c calendarModel) Init() tea.Cmd {
	return c.refresh()
}

func (c calendarModel) refresh() tea.Cmd {
	ws := c.weekStart
	return func() tea.Msg {
		from := dateOf(ws)
		to := dateOf(ws.AddDate(0, 0, 6))
		events, _ := c.store.EventsByDate(from, to)
		return weekEventsMsg{weekStart: ws, events: events}
	}
}

func (c calendarModel) dayDate(i int) time.Time {
	return c.weekStart.AddDate(0, 0, i)
}

func (c calendarModel) selectedDayEvents() []store.Event {
	return c.events[dateOf(c.dayDate(c.dayCursor))]
}

func (c calendarModel) update(msg tea.Msg) (calendarModel, tea.Cmd) {
	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	switch msg := msg.(type) {
	case weekEventsMsg:
		if !msg.weekStart.Equal(c.weekStart) {
			return c, nil // stale load from an earlier week
		}
		c.events = msg.events
		c.clampEventCursor()
		return c, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			if c.dayCursor > 0 {
				c.dayCursor--
			}
			c.clampEventCursor()
		case key.Matches(msg, keys.Right):
			if c.dayCursor < 6 {
				c.dayCursor++
			}
			c.clampEventCursor()
		case key.Matches(msg, keys.Up):
			if c.eventCursor > 0 {
				c.eventCursor--
			}
		case key.Matches(msg, keys.Down):
			if c.eventCursor < len(c.selectedDayEvents())-1 {
				c.eventCursor++
			}
		case key.Matches(msg, keys.PrevWeek):
			c.weekStart = c.weekStart.AddDate(0, 0, -7)
			c.eventCursor = 0
			return c, c.refresh()
		case key.Matches(msg, keys.NextWeek):
			c.weekStart = c.weekStart.AddDate(0, 0, 7)
			c.eventCursor = 0
			return c, c.refresh()
		case key.Matches(msg, keys.Today):
			defaults := loadDefaults(c.store)
			c.weekStart = startOfWeek(today(), defaults.weekStart)
			now := today()
			c.dayCursor = 0
			for i := 0; i < 7; i++ {
				if c.dayDate(i).Equal(now) {
					c.dayCursor = i
					break
				}
			}
			c.eventCursor = 0
			return c, c.refresh()
		case key.Matches(msg, keys.New):
			return c.showEventForm(nil)
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			evs := c.selectedDayEvents()
			if c.eventCursor < len(evs) {
				e := evs[c.eventCursor]
				return c.showEventForm(&e)
			}
		case key.Matches(msg, keys.Delete):
			evs := c.selectedDayEvents()
			if c.eventCursor < len(evs) {
				return c, c.deleteEvent(evs[c.eventCursor])
			}
		}
	}
	return c, nil
}

func (c *calendarModel) clampEventCursor() {
	n := len(c.selectedDayEvents())
	if c.eventCursor >= n {
		c.eventCursor = max(0, n-1)
	}
}

// deleteEvent removes the event; a task-backed one drops its task back
// into the backlog.
func (c calendarModel) deleteEvent(e store.Event) tea.Cmd {
	return func() tea.Msg {
		if err := c.store.DeleteEvent(e.ID); err != nil {
			return statusMsg{text: fmt.Sprintf("Delete error: %v", err), isError: true}
		}
		return eventDeletedMsg{hadTask: e.TaskID != nil}
	}
}

// showEventForm opens the event editor. A nil event means a new one on
// the selected day.
func (c calendarModel) showEventForm(e *store.Event) (calendarModel, tea.Cmd) {
	if e == nil {
		defaults := loadDefaults(c.store)
		*c.formTitle = ""
		*c.formDate = dateOf(c.dayDate(c.dayCursor))
		*c.formStart = defaults.windowStart
		*c.formDuration = defaults.defaultDuration
		*c.formColor = defaults.defaultColor
		*c.formOverlap = false
		*c.formLocation = ""
		*c.formDesc = ""
		c.formType = "event"
	} else {
		*c.formTitle = e.Title
		*c.formDate = e.Date
		*c.formStart = e.StartMin
		*c.formDuration = e.EndMin - e.StartMin
		*c.formColor = e.Color
		*c.formOverlap = e.CanOverlap
		*c.formLocation = e.Location
		*c.formDesc = e.Description
		c.formType = "edit_event"
		c.editingID = e.ID
	}

	var startOptions []huh.Option[int]
	for _, s := range schedule.Slots() {
		startOptions = append(startOptions, huh.NewOption(s.Display, s.SortOrder))
	}
	var durOptions []huh.Option[int]
	for _, d := range taskDurations {
		if d%schedule.SlotMinutes == 0 {
			durOptions = append(durOptions, huh.NewOption(formatDuration(d), d))
		}
	}
	colorOptions := make([]huh.Option[string], len(taskColors))
	for i, col := range taskColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", col), col)
	}

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(c.formTitle),
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(c.formDate),
			huh.NewSelect[int]().Title("Start").Options(startOptions...).Value(c.formStart),
			huh.NewSelect[int]().Title("Duration").Options(durOptions...).Value(c.formDuration),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(c.formColor),
			huh.NewConfirm().Title("Allow overlaps?").Value(c.formOverlap),
			huh.NewInput().Title("Location").Value(c.formLocation),
			huh.NewInput().Title("Description").Value(c.formDesc),
		),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func (c calendarModel) updateForm(msg tea.Msg) (calendarModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			c.formActive = false
			c.form = nil
			return c, nil
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateCompleted {
		c.formActive = false
		ev := store.Event{
			Title:       *c.formTitle,
			Date:        strings.TrimSpace(*c.formDate),
			StartMin:    *c.formStart,
			EndMin:      *c.formStart + *c.formDuration,
			Color:       *c.formColor,
			CanOverlap:  *c.formOverlap,
			Location:    *c.formLocation,
			Description: *c.formDesc,
		}
		return c, c.saveEvent(ev)
	}

	return c, cmd
}

func (c calendarModel) saveEvent(ev store.Event) tea.Cmd {
	formType, editingID := c.formType, c.editingID
	refresh := c.refresh()
	return func() tea.Msg {
		var err error
		if formType == "edit_event" {
			ev.ID = editingID
			err = c.store.UpdateEvent(ev)
		} else {
			_, err = c.store.CreateEvent(ev)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Save error: %v", err), isError: true}
		}
		return refresh()
	}
}

func (c calendarModel) view() string {
	if c.formActive && c.form != nil {
		title := titleStyle.Render("New Event")
		if c.formType == "edit_event" {
			title = titleStyle.Render("Edit Event")
		}
		formView := c.form.View()
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", formView)
		return panelStyle.Width(c.width - 4).Render(content)
	}

	w := c.width - 4
	weekEnd := c.weekStart.AddDate(0, 0, 6)
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Week"), "  ",
		subtitleStyle.Render(fmt.Sprintf("%s — %s", c.weekStart.Format("Jan 02"), weekEnd.Format("Jan 02, 2006"))),
	)

	colWidth := w/7 - 3
	if colWidth < 10 {
		colWidth = 10
	}
	rowCount := c.height - 10
	if rowCount < 4 {
		rowCount = 4
	}

	now := today()
	var columns []string
	for i := 0; i < 7; i++ {
		columns = append(columns, c.renderDay(i, colWidth, rowCount, now))
	}
	grid := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	nav := mutedStyle.Render("  ←/→: day  ↑/↓: event  [/]: week  t: today  n: new  e: edit  d: delete")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", grid, "", nav),
	)
}

func (c calendarModel) renderDay(i, colWidth, rowCount int, now time.Time) string {
	day := c.dayDate(i)
	headStyle := dayHeaderStyle
	if day.Equal(now) {
		headStyle = todayHeaderStyle
	}
	if i == c.dayCursor {
		headStyle = selectedDayHeaderStyle
	}
	head := headStyle.Render(day.Format("Mon 02"))

	evs := c.events[dateOf(day)]
	var lines []string
	lines = append(lines, head)
	lines = append(lines, mutedStyle.Render(strings.Repeat("─", colWidth)))

	for j, e := range evs {
		if j >= rowCount {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("+%d more", len(evs)-rowCount)))
			break
		}
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Color)).Render("●")
		label := fmt.Sprintf("%s %s", formatMinutes(e.StartMin), e.Title)
		if lipgloss.Width(label) > colWidth-2 {
			label = truncate(label, colWidth-2)
		}
		style := normalItemStyle
		if i == c.dayCursor && j == c.eventCursor {
			style = selectedItemStyle
		}
		lines = append(lines, dot+" "+style.Render(label))
	}
	if len(evs) == 0 {
		lines = append(lines, mutedStyle.Render("·"))
	}

	return dayColumnStyle.Width(colWidth + 2).Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
