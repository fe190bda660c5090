package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sadopc/plannr/internal/schedule"
	"github.com/sadopc/plannr/internal/store"
)

func ToCSV(events []store.Event, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Title", "Date", "Start", "End", "Duration (min)", "Priority", "Overlap OK", "From Task", "Location"}); err != nil {
		return err
	}

	for _, e := range events {
		fromTask := ""
		if e.TaskID != nil {
			fromTask = fmt.Sprintf("%d", *e.TaskID)
		}
		row := []string{
			fmt.Sprintf("%d", e.ID),
			e.Title,
			e.Date,
			schedule.FormatMinutes(e.StartMin),
			schedule.FormatMinutes(e.EndMin),
			fmt.Sprintf("%d", e.EndMin-e.StartMin),
			string(e.Priority),
			fmt.Sprintf("%v", e.CanOverlap),
			fromTask,
			e.Location,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
