package export

import (
	"fmt"
	"os"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/sadopc/plannr/internal/schedule"
	"github.com/sadopc/plannr/internal/store"
)

// ToICS writes all events as a VCALENDAR so the plan can be imported
// into any calendar application. Times are emitted in the host's local
// zone; events with an unparseable date are skipped rather than aborting
// the whole export.
func ToICS(events []store.Event, path string) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//plannr//EN")

	for _, e := range events {
		day, err := time.ParseInLocation(schedule.DateLayout, e.Date, time.Local)
		if err != nil {
			continue
		}
		start := day.Add(time.Duration(e.StartMin) * time.Minute)
		end := day.Add(time.Duration(e.EndMin) * time.Minute)

		ve := cal.AddEvent(fmt.Sprintf("plannr-%d@local", e.ID))
		ve.SetCreatedTime(e.CreatedAt)
		ve.SetDtStampTime(time.Now())
		ve.SetStartAt(start)
		ve.SetEndAt(end)
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Location != "" {
			ve.SetLocation(e.Location)
		}
	}

	if err := os.WriteFile(path, []byte(cal.Serialize()), 0o644); err != nil {
		return fmt.Errorf("write ics file: %w", err)
	}
	return nil
}
