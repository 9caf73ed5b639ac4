// Package export flattens the record collections into tabular views with
// human-readable headers, suitable for spreadsheet serialization. The
// projection is lossless; the only transformation is date formatting and
// joining display names.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"okrpulse/internal/model"
	"okrpulse/internal/week"
)

// Table is one flattened view ready for serialization.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Employees projects all actor profiles.
func Employees(actors []model.Actor) Table {
	t := Table{
		Name:    "Employees",
		Headers: []string{"Full Name", "Email", "Entity", "Role", "Created At"},
	}
	for _, a := range actors {
		t.Rows = append(t.Rows, []string{
			a.FullName, a.Email, a.Entity, string(a.Role), formatDate(a.CreatedAt),
		})
	}
	return t
}

// Objectives projects all objectives, joining the owner's display name.
func Objectives(objectives []model.Objective, actors []model.Actor) Table {
	names := actorNames(actors)
	t := Table{
		Name: "OKRs",
		Headers: []string{
			"OKR ID", "Objective", "Description", "Entity", "Quarter", "DRI",
			"Key Results", "Metrics", "Status", "Created At",
		},
	}
	for _, o := range objectives {
		status := "Active"
		if !o.Active {
			status = "Archived"
		}
		t.Rows = append(t.Rows, []string{
			o.Code, o.Title, o.Description, o.Entity, o.Quarter, names[o.OwnerID],
			strings.Join(o.KeyResults, " | "),
			joinMetrics(o.Metrics),
			status, formatDate(o.CreatedAt),
		})
	}
	return t
}

// Updates projects all weekly updates, joining employee and objective
// display fields.
func Updates(updates []model.PeriodUpdate, objectives []model.Objective, actors []model.Actor) Table {
	names := actorNames(actors)
	entities := actorEntities(actors)
	byID := make(map[string]model.Objective, len(objectives))
	for _, o := range objectives {
		byID[o.ID] = o
	}

	t := Table{
		Name: "Updates",
		Headers: []string{
			"Week Of", "Employee", "Entity", "OKR ID", "OKR Title",
			"Progress Score", "Update", "Submitted At",
		},
	}
	for _, u := range updates {
		o := byID[u.ObjectiveID]
		t.Rows = append(t.Rows, []string{
			formatMarker(u.WeekStart),
			names[u.ActorID],
			entities[u.ActorID],
			o.Code,
			o.Title,
			fmt.Sprintf("%d", u.Score),
			u.Narrative,
			formatDateTime(u.SubmittedAt),
		})
	}
	return t
}

// ManagementReports projects all free-text weekly reports.
func ManagementReports(reports []model.ManagementReport, actors []model.Actor) Table {
	names := actorNames(actors)
	entities := actorEntities(actors)
	t := Table{
		Name: "Management Reports",
		Headers: []string{
			"Week Of", "Employee", "Entity", "Report", "Attachment Link", "Submitted At",
		},
	}
	for _, r := range reports {
		t.Rows = append(t.Rows, []string{
			formatMarker(r.WeekStart),
			names[r.ActorID],
			entities[r.ActorID],
			r.Narrative,
			r.Attachment,
			formatDateTime(r.SubmittedAt),
		})
	}
	return t
}

// WriteCSV serializes a table, headers first.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("write %s headers: %w", t.Name, err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s row: %w", t.Name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", t.Name, err)
	}
	return nil
}

func actorNames(actors []model.Actor) map[string]string {
	names := make(map[string]string, len(actors))
	for _, a := range actors {
		names[a.ID] = a.FullName
	}
	return names
}

func actorEntities(actors []model.Actor) map[string]string {
	entities := make(map[string]string, len(actors))
	for _, a := range actors {
		entities[a.ID] = a.Entity
	}
	return entities
}

// joinMetrics renders metric definitions in a compact text form that keeps
// every sub-field (name, kind, goal or formula) recoverable from the row.
func joinMetrics(defs []model.MetricDef) string {
	parts := make([]string, 0, len(defs))
	for _, d := range defs {
		switch {
		case d.IsComputed():
			parts = append(parts, fmt.Sprintf("%s (%s, = %s)", d.Name, d.Kind.Sigil(), d.Computed.Formula))
		case d.Goal() != nil:
			parts = append(parts, fmt.Sprintf("%s (%s, goal %g)", d.Name, d.Kind.Sigil(), *d.Goal()))
		default:
			parts = append(parts, fmt.Sprintf("%s (%s)", d.Name, d.Kind.Sigil()))
		}
	}
	return strings.Join(parts, " | ")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s, %s", formatDate(t), t.Format("3:04:05 PM"))
}

func formatMarker(marker string) string {
	t, err := time.Parse(week.Marker, marker)
	if err != nil {
		return marker
	}
	return formatDate(t)
}
