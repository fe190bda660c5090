package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/plannr/internal/schedule"
	"github.com/sadopc/plannr/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	windowStart     *int
	windowEnd       *int
	scheduleDays    *[]int
	horizonDays     *string
	defaultDuration *int
	defaultColor    *string
	weekStart       *string
}

func newSettingsModel(s *store.Store) settingsModel {
	ws, we := 540, 1020
	days := []int{1, 2, 3, 4, 5}
	hd := "7"
	dd := 60
	dc := taskColors[0]
	wk := "sunday"
	return settingsModel{
		store:           s,
		windowStart:     &ws,
		windowEnd:       &we,
		scheduleDays:    &days,
		horizonDays:     &hd,
		defaultDuration: &dd,
		defaultColor:    &dc,
		weekStart:       &wk,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	defaults := loadDefaults(s.store)
	*s.windowStart = defaults.windowStart
	*s.windowEnd = defaults.windowEnd
	days := make([]int, 0, len(defaults.weekdays))
	for _, d := range defaults.weekdays {
		days = append(days, int(d))
	}
	*s.scheduleDays = days
	*s.horizonDays = strconv.Itoa(defaults.horizonDays)
	*s.defaultDuration = defaults.defaultDuration
	*s.defaultColor = defaults.defaultColor
	*s.weekStart = defaults.weekStart

	var startOptions, endOptions []huh.Option[int]
	for _, slot := range schedule.Slots() {
		startOptions = append(startOptions, huh.NewOption(slot.Display, slot.SortOrder))
		end := slot.SortOrder + schedule.SlotMinutes
		endOptions = append(endOptions, huh.NewOption(schedule.FormatMinutes(end), end))
	}
	dayOptions := make([]huh.Option[int], 7)
	for i := 0; i < 7; i++ {
		dayOptions[i] = huh.NewOption(time.Weekday(i).String(), i)
	}
	durOptions := make([]huh.Option[int], len(taskDurations))
	for i, d := range taskDurations {
		durOptions[i] = huh.NewOption(formatDuration(d), d)
	}
	colorOptions := make([]huh.Option[string], len(taskColors))
	for i, c := range taskColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().Title("Window start").Options(startOptions...).Value(s.windowStart),
			huh.NewSelect[int]().Title("Window end").Options(endOptions...).Value(s.windowEnd),
			huh.NewMultiSelect[int]().Title("Schedulable days").Options(dayOptions...).Value(s.scheduleDays),
			huh.NewInput().Title("Horizon (days)").Value(s.horizonDays),
		).Title("Auto-Schedule"),
		huh.NewGroup(
			huh.NewSelect[int]().Title("Default task duration").Options(durOptions...).Value(s.defaultDuration),
			huh.NewSelect[string]().Title("Default color").Options(colorOptions...).Value(s.defaultColor),
			huh.NewSelect[string]().Title("Week starts on").
				Options(
					huh.NewOption("Sunday", "sunday"),
					huh.NewOption("Monday", "monday"),
				).Value(s.weekStart),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.saveSettings()
		return s, s.refresh()
	}

	return s, cmd
}

func (s settingsModel) saveSettings() {
	s.store.SetSetting("window_start", strconv.Itoa(*s.windowStart))
	s.store.SetSetting("window_end", strconv.Itoa(*s.windowEnd))
	dayStrs := make([]string, 0, len(*s.scheduleDays))
	for _, d := range *s.scheduleDays {
		dayStrs = append(dayStrs, strconv.Itoa(d))
	}
	s.store.SetSetting("schedule_days", strings.Join(dayStrs, ","))
	if _, err := strconv.Atoi(*s.horizonDays); err == nil {
		s.store.SetSetting("horizon_days", *s.horizonDays)
	}
	s.store.SetSetting("default_duration", strconv.Itoa(*s.defaultDuration))
	s.store.SetSetting("default_color", *s.defaultColor)
	s.store.SetSetting("week_start", *s.weekStart)
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "window_start", "window_end":
		if m, err := strconv.Atoi(v); err == nil {
			return schedule.FormatMinutes(m)
		}
	case "default_duration":
		if m, err := strconv.Atoi(v); err == nil {
			return formatDuration(m)
		}
	case "schedule_days":
		days := parseWeekdays(v)
		names := make([]string, 0, len(days))
		for _, d := range days {
			names = append(names, d.String()[:3])
		}
		if len(names) > 0 {
			return strings.Join(names, ",")
		}
	case "horizon_days":
		return v + " days"
	}
	return v
}
