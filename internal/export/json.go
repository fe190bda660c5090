package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/plannr/internal/schedule"
	"github.com/sadopc/plannr/internal/store"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Events     []jsonEvent `json:"events"`
}

type jsonEvent struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Start       string `json:"start"`
	End         string `json:"end"`
	StartMin    int    `json:"start_min"`
	EndMin      int    `json:"end_min"`
	Priority    string `json:"priority,omitempty"`
	CanOverlap  bool   `json:"can_overlap"`
	TaskID      *int64 `json:"task_id,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

func ToJSON(events []store.Event, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(events),
	}

	for _, e := range events {
		out.Events = append(out.Events, jsonEvent{
			ID:          e.ID,
			Title:       e.Title,
			Date:        e.Date,
			Start:       schedule.FormatMinutes(e.StartMin),
			End:         schedule.FormatMinutes(e.EndMin),
			StartMin:    e.StartMin,
			EndMin:      e.EndMin,
			Priority:    string(e.Priority),
			CanOverlap:  e.CanOverlap,
			TaskID:      e.TaskID,
			Description: e.Description,
			Location:    e.Location,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
