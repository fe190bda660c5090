package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/plannr/internal/store"
)

type statsModel struct {
	store  *store.Store
	width  int
	height int

	loads      []store.DailyLoad
	categories []store.CategoryLoad
	offset     int // weeks back from the current one (0 = current)

	chart barchart.Model
}

func newStatsModel(s *store.Store) statsModel {
	return statsModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (s *statsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s statsModel) dateRange() (time.Time, time.Time) {
	defaults := loadDefaults(s.store)
	start := startOfWeek(today(), defaults.weekStart).AddDate(0, 0, -7*s.offset)
	return start, start.AddDate(0, 0, 6)
}

func (s statsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		from, to := s.dateRange()
		loads, _ := s.store.GetDailyLoad(dateOf(from), dateOf(to))
		categories, _ := s.store.GetCategoryLoad(dateOf(from), dateOf(to))
		return statsDataMsg{loads: loads, categories: categories}
	}
}

func (s statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsDataMsg:
		s.loads = msg.loads
		s.categories = msg.categories
		s.buildChart()
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.PrevWeek):
			s.offset++
			return s, s.refresh()
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.NextWeek):
			if s.offset > 0 {
				s.offset--
			}
			return s, s.refresh()
		case key.Matches(msg, keys.Today):
			s.offset = 0
			return s, s.refresh()
		}
	}
	return s, nil
}

func (s *statsModel) buildChart() {
	chartWidth := s.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if s.height > 30 {
		chartHeight = 16
	}

	s.chart = barchart.New(chartWidth, chartHeight)

	from, to := s.dateRange()

	byDate := make(map[string]store.DailyLoad, len(s.loads))
	for _, l := range s.loads {
		byDate[l.Date] = l
	}

	var bars []barchart.BarData
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		label := d.Format("Mon 02")

		var values []barchart.BarValue
		if l, ok := byDate[dateOf(d)]; ok && l.TotalMinutes > 0 {
			taskHours := float64(l.TaskMinutes) / 60.0
			otherHours := float64(l.TotalMinutes-l.TaskMinutes) / 60.0
			if taskHours > 0 {
				values = append(values, barchart.BarValue{
					Name:  "tasks",
					Value: taskHours,
					Style: lipgloss.NewStyle().Foreground(colorSecondary),
				})
			}
			if otherHours > 0 {
				values = append(values, barchart.BarValue{
					Name:  "events",
					Value: otherHours,
					Style: lipgloss.NewStyle().Foreground(colorPrimary),
				})
			}
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: values,
		})
	}

	s.chart.PushAll(bars)
	s.chart.Draw()
}

func (s statsModel) view() string {
	w := s.width - 4

	from, to := s.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s", from.Format("Jan 02"), to.Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Load"), "  ", dateLabel,
	)

	chartView := s.chart.View()

	legend := fmt.Sprintf("  %s tasks  %s other events",
		lipgloss.NewStyle().Foreground(colorSecondary).Render("●"),
		lipgloss.NewStyle().Foreground(colorPrimary).Render("●"),
	)

	tableView := s.renderLoadTable(w)
	categoryView := s.renderCategoryTotals()

	nav := mutedStyle.Render("  ←/→: week  t: current")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", legend, "", tableView, "", categoryView, "", nav,
		),
	)
}

func (s statsModel) renderCategoryTotals() string {
	if len(s.categories) == 0 {
		return mutedStyle.Render("  No task placements this week")
	}

	var rows []string
	rows = append(rows, subtitleStyle.Render("  By category"))
	for _, c := range s.categories {
		rows = append(rows, fmt.Sprintf("  %-14s %10s %6d placed",
			c.Category, formatDuration(c.TotalMinutes), c.EventCount,
		))
	}
	return strings.Join(rows, "\n")
}

func (s statsModel) renderLoadTable(w int) string {
	if len(s.loads) == 0 {
		return mutedStyle.Render("  No events this week")
	}

	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-12s %10s %10s %8s", "Date", "Booked", "Tasks", "Events"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 44))))

	for _, l := range s.loads {
		rows = append(rows, fmt.Sprintf("  %-12s %10s %10s %8d",
			l.Date, formatDuration(l.TotalMinutes), formatDuration(l.TaskMinutes), l.EventCount,
		))
	}

	return strings.Join(rows, "\n")
}
