package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"servicedeck/pkg/models"
)

const neverChecked = "never"

// Render writes the view as a table, one row per service.
func Render(w io.Writer, view View) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Service", "Status", "Last checked", "Detail"})

	for _, s := range view.Services {
		t.AppendRow(table.Row{
			s.Descriptor.ID,
			s.Descriptor.Name,
			s.Display,
			lastChecked(s.Status.LastChecked, view.GeneratedAt),
			detail(s),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d unhealthy", len(view.Unhealthy()))})
	t.Render()
}

func lastChecked(at, now time.Time) string {
	if at.IsZero() {
		return neverChecked
	}
	return humanize.RelTime(at, now, "ago", "from now")
}

func detail(s ServiceView) string {
	switch {
	case s.Status.Error != "":
		return s.Status.Error
	case s.Status.Status == models.StatusHealthy:
		var report models.HealthReport
		if err := json.Unmarshal(s.Status.Data, &report); err == nil && report.Uptime != "" {
			return "up " + report.Uptime
		}
		return s.Descriptor.Description
	default:
		return s.Descriptor.Description
	}
}

// RenderResponse writes an info response as indented JSON, or its error message.
func RenderResponse(w io.Writer, resp models.ServiceResponse) error {
	if resp.Error != "" {
		_, err := fmt.Fprintln(w, resp.Error)
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, resp.Data, "", "  "); err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	out.WriteByte('\n')
	_, err := w.Write(out.Bytes())
	return err
}
