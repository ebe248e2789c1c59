// Package rows derives display rows from a reconciled view.
package rows

import (
	"github.com/yowainwright/tynamo/internal/reconcile"
	"github.com/yowainwright/tynamo/internal/timecodec"
)

type Row struct {
	ID      int64
	Name    string
	Label   string
	Running bool
	Paused  bool
	// TimeLabel is empty and HasTime false when no usage is known; unknown
	// usage is never shown as zero.
	TimeLabel string
	HasTime   bool
	Icon      []byte
}

// Status is the running badge text.
func (r Row) Status() string {
	if r.Running {
		return "Running"
	}
	return "Stopped"
}

// PauseAction is the label of the pause toggle for this row.
func (r Row) PauseAction() string {
	if r.Paused {
		return "Resume"
	}
	return "Pause"
}

// Map returns one row per tracked app, in the view's order.
func Map(view reconcile.View) []Row {
	out := make([]Row, 0, len(view.Apps))
	for _, app := range view.Apps {
		row := Row{
			ID:      app.ID,
			Name:    app.Name,
			Label:   app.Label(),
			Running: view.IsRunning(app.Name),
			Paused:  view.IsPaused(app.Name),
			Icon:    app.Icon,
		}
		if secs, ok := view.UsageOf(app.Name); ok {
			row.TimeLabel = timecodec.Format(secs)
			row.HasTime = true
		}
		out = append(out, row)
	}
	return out
}
