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

var taskColors = []string{"#4285F4", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#9B59B6", "#E74C3C", "#3498DB"}
var taskCategories = []string{"work", "personal", "errand", "learning", "health", "other"}
var taskDurations = []int{15, 30, 45, 60, 90, 120, 180, 240, 360, 480}

type backlogModel struct {
	store  *store.Store
	width  int
	height int

	tasks         []store.Task
	cursor        int
	showScheduled bool

	formActive bool
	form       *huh.Form
	formType   string // "task", "edit_task", "schedule"

	// Form field pointers (survive value copies)
	formTitle    *string
	formDuration *int
	formPriority *string
	formCategory *string
	formLocation *string
	formColor    *string
	formOverlap  *bool
	formDesc     *string

	// Auto-schedule form fields
	schedStart  *string
	schedEnd    *string
	schedWStart *int
	schedWEnd   *int
	schedDays   *[]int

	editingID int64
}

func newBacklogModel(s *store.Store) backlogModel {
	title, cat, loc, desc := "", taskCategories[0], "", ""
	dur := 60
	prio := string(store.PriorityMedium)
	color := taskColors[0]
	overlap := false
	sStart, sEnd := "", ""
	wStart, wEnd := 540, 1020
	days := []int{1, 2, 3, 4, 5}

	return backlogModel{
		store:        s,
		formTitle:    &title,
		formDuration: &dur,
		formPriority: &prio,
		formCategory: &cat,
		formLocation: &loc,
		formColor:    &color,
		formOverlap:  &overlap,
		formDesc:     &desc,
		schedStart:   &sStart,
		schedEnd:     &sEnd,
		schedWStart:  &wStart,
		schedWEnd:    &wEnd,
		schedDays:    &days,
	}
}

func (b *backlogModel) setSize(w, h int) {
	b.width = w
	b.height = h
}

func (b backlogModel) refresh() tea.Cmd {
	return func() tea.Msg {
		tasks, _ := b.store.ListTasks(!b.showScheduled)
		return tasksDataMsg{tasks: tasks}
	}
}

func (b backlogModel) update(msg tea.Msg) (backlogModel, tea.Cmd) {
	if b.formActive && b.form != nil {
		return b.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		b.tasks = msg.tasks
		if b.cursor >= len(b.tasks) {
			b.cursor = max(0, len(b.tasks)-1)
		}
		return b, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if b.cursor > 0 {
				b.cursor--
			}
		case key.Matches(msg, keys.Down):
			if b.cursor < len(b.tasks)-1 {
				b.cursor++
			}
		case key.Matches(msg, keys.New):
			return b.showTaskForm(nil)
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			if len(b.tasks) > 0 {
				t := b.tasks[b.cursor]
				return b.showTaskForm(&t)
			}
		case key.Matches(msg, keys.Delete):
			if len(b.tasks) > 0 {
				b.store.DeleteTask(b.tasks[b.cursor].ID)
				return b, b.refresh()
			}
		case key.Matches(msg, keys.Schedule):
			return b.showScheduleForm()
		case msg.String() == "s":
			b.showScheduled = !b.showScheduled
			return b, b.refresh()
		}
	}
	return b, nil
}

func taskFormOptions() ([]huh.Option[int], []huh.Option[string], []huh.Option[string], []huh.Option[string]) {
	durOptions := make([]huh.Option[int], len(taskDurations))
	for i, d := range taskDurations {
		durOptions[i] = huh.NewOption(formatDuration(d), d)
	}
	prioOptions := make([]huh.Option[string], len(store.Priorities))
	for i, p := range store.Priorities {
		prioOptions[i] = huh.NewOption(string(p), string(p))
	}
	catOptions := make([]huh.Option[string], len(taskCategories))
	for i, c := range taskCategories {
		catOptions[i] = huh.NewOption(c, c)
	}
	colorOptions := make([]huh.Option[string], len(taskColors))
	for i, c := range taskColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
	}
	return durOptions, prioOptions, catOptions, colorOptions
}

// showTaskForm opens the task editor. A nil task means a new one.
func (b backlogModel) showTaskForm(t *store.Task) (backlogModel, tea.Cmd) {
	if t == nil {
		defaults := loadDefaults(b.store)
		*b.formTitle = ""
		*b.formDuration = defaults.defaultDuration
		*b.formPriority = string(store.PriorityMedium)
		*b.formCategory = taskCategories[0]
		*b.formLocation = ""
		*b.formColor = defaults.defaultColor
		*b.formOverlap = false
		*b.formDesc = ""
		b.formType = "task"
	} else {
		*b.formTitle = t.Title
		*b.formDuration = t.Duration
		*b.formPriority = string(t.Priority)
		*b.formCategory = t.Category
		*b.formLocation = t.Location
		*b.formColor = t.Color
		*b.formOverlap = t.CanOverlap
		*b.formDesc = t.Description
		b.formType = "edit_task"
		b.editingID = t.ID
	}

	durOptions, prioOptions, catOptions, colorOptions := taskFormOptions()

	b.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(b.formTitle),
			huh.NewSelect[int]().Title("Duration").Options(durOptions...).Value(b.formDuration),
			huh.NewSelect[string]().Title("Priority").Options(prioOptions...).Value(b.formPriority),
			huh.NewSelect[string]().Title("Category").Options(catOptions...).Value(b.formCategory),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(b.formColor),
			huh.NewInput().Title("Location").Value(b.formLocation),
			huh.NewConfirm().Title("Allow overlaps?").Value(b.formOverlap),
			huh.NewInput().Title("Description").Value(b.formDesc),
		),
	).WithShowHelp(true).WithShowErrors(true)

	b.formActive = true
	return b, b.form.Init()
}

func (b backlogModel) showScheduleForm() (backlogModel, tea.Cmd) {
	defaults := loadDefaults(b.store)
	start := today()
	*b.schedStart = dateOf(start)
	*b.schedEnd = dateOf(start.AddDate(0, 0, defaults.horizonDays-1))
	*b.schedWStart = defaults.windowStart
	*b.schedWEnd = defaults.windowEnd
	days := make([]int, 0, len(defaults.weekdays))
	for _, d := range defaults.weekdays {
		days = append(days, int(d))
	}
	*b.schedDays = days
	b.formType = "schedule"

	var startOptions, endOptions []huh.Option[int]
	for _, s := range schedule.Slots() {
		startOptions = append(startOptions, huh.NewOption(s.Display, s.SortOrder))
		endOptions = append(endOptions, huh.NewOption(schedule.FormatMinutes(s.SortOrder+schedule.SlotMinutes), s.SortOrder+schedule.SlotMinutes))
	}

	dayOptions := make([]huh.Option[int], 7)
	for i := 0; i < 7; i++ {
		dayOptions[i] = huh.NewOption(time.Weekday(i).String(), i)
	}

	b.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Start Date (YYYY-MM-DD)").Value(b.schedStart),
			huh.NewInput().Title("End Date (YYYY-MM-DD)").Value(b.schedEnd),
			huh.NewSelect[int]().Title("Window Start").Options(startOptions...).Value(b.schedWStart),
			huh.NewSelect[int]().Title("Window End").Options(endOptions...).Value(b.schedWEnd),
			huh.NewMultiSelect[int]().Title("Days").Options(dayOptions...).Value(b.schedDays),
		),
	).WithShowHelp(true).WithShowErrors(true)

	b.formActive = true
	return b, b.form.Init()
}

func (b backlogModel) updateForm(msg tea.Msg) (backlogModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			b.formActive = false
			b.form = nil
			return b, nil
		}
	}

	form, cmd := b.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		b.form = f
	}

	if b.form.State == huh.StateCompleted {
		b.formActive = false
		switch b.formType {
		case "task":
			if strings.TrimSpace(*b.formTitle) != "" {
				b.store.CreateTask(store.Task{
					Title:       *b.formTitle,
					Duration:    *b.formDuration,
					Priority:    store.Priority(*b.formPriority),
					Category:    *b.formCategory,
					Location:    *b.formLocation,
					Color:       *b.formColor,
					CanOverlap:  *b.formOverlap,
					Description: *b.formDesc,
				})
			}
			return b, b.refresh()
		case "edit_task":
			if strings.TrimSpace(*b.formTitle) != "" {
				b.store.UpdateTask(store.Task{
					ID:          b.editingID,
					Title:       *b.formTitle,
					Duration:    *b.formDuration,
					Priority:    store.Priority(*b.formPriority),
					Category:    *b.formCategory,
					Location:    *b.formLocation,
					Color:       *b.formColor,
					CanOverlap:  *b.formOverlap,
					Description: *b.formDesc,
				})
			}
			return b, b.refresh()
		case "schedule":
			return b, b.runSchedule()
		}
	}

	return b, cmd
}

// runSchedule places the backlog into free slots and commits the result
// in one transaction.
func (b backlogModel) runSchedule() tea.Cmd {
	startStr, endStr := *b.schedStart, *b.schedEnd
	wStart, wEnd := *b.schedWStart, *b.schedWEnd
	dayInts := append([]int(nil), (*b.schedDays)...)

	return func() tea.Msg {
		start, err := parseDate(startStr)
		if err != nil {
			return statusMsg{text: "Invalid start date", isError: true}
		}
		end, err := parseDate(endStr)
		if err != nil {
			return statusMsg{text: "Invalid end date", isError: true}
		}

		days := make([]time.Weekday, 0, len(dayInts))
		for _, d := range dayInts {
			days = append(days, time.Weekday(d))
		}

		req := schedule.Request{
			StartDate:   start,
			EndDate:     end,
			WindowStart: wStart,
			WindowEnd:   wEnd,
			Weekdays:    days,
		}

		backlog, err := b.store.ListTasks(true)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Schedule error: %v", err), isError: true}
		}
		occupied, err := b.store.EventsByDate(dateOf(start), dateOf(end))
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Schedule error: %v", err), isError: true}
		}

		result, err := schedule.Run(backlog, occupied, req, nil)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Schedule error: %v", err), isError: true}
		}
		if _, err := b.store.ApplySchedule(result.Placed); err != nil {
			return statusMsg{text: fmt.Sprintf("Schedule error: %v", err), isError: true}
		}

		return scheduleDoneMsg{
			placed:    len(result.Scheduled),
			attempted: len(result.Scheduled) + len(result.Unscheduled),
		}
	}
}

func (b backlogModel) view() string {
	if b.formActive && b.form != nil {
		title := titleStyle.Render("New Task")
		switch b.formType {
		case "edit_task":
			title = titleStyle.Render("Edit Task")
		case "schedule":
			title = titleStyle.Render("Auto-Schedule Backlog")
		}
		formView := b.form.View()
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", formView)
		return panelStyle.Width(b.width - 4).Render(content)
	}

	w := b.width - 4
	heading := "Backlog"
	if b.showScheduled {
		heading = "All Tasks"
	}
	title := titleStyle.Render(heading)

	if len(b.tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("Nothing here. Press n to add a task."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-3s %-28s %-8s %-8s %-10s %s", "", "Title", "Length", "Priority", "Category", ""))
	rows = append(rows, header)

	for i, t := range b.tasks {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == b.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		badge := priorityStyle(t.Priority).Render(priorityBadge(t.Priority))
		flags := ""
		if t.CanOverlap {
			flags += mutedStyle.Render(" ~")
		}
		if t.Scheduled {
			flags += successStyle.Render(" ✓")
		}
		row := style.Render(fmt.Sprintf("%s%s %-28s %-8s", cursor, colorDot, t.Title, formatDuration(t.Duration))) +
			" " + badge + priorityStyle(t.Priority).Render(string(t.Priority)) +
			" " + mutedStyle.Render(t.Category) + flags
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: delete  a: auto-schedule  s: show scheduled"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
