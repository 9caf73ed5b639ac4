package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"okrpulse/internal/model"
)

// SubmitManagementReport inserts or replaces an actor's free-text weekly
// report. Like weekly updates, conflict resolution is last write wins on
// the (actor, week) key.
func (s *Store) SubmitManagementReport(r model.ManagementReport) (model.ManagementReport, error) {
	if r.ActorID == "" {
		return model.ManagementReport{}, fmt.Errorf("management report requires an actor")
	}
	if r.WeekStart == "" {
		return model.ManagementReport{}, fmt.Errorf("management report requires a week start")
	}
	r.SubmittedAt = time.Now().UTC()

	var existingID string
	err := s.db.QueryRow(
		"SELECT id FROM management_reports WHERE user_id = ? AND week_start = ?",
		r.ActorID, r.WeekStart,
	).Scan(&existingID)
	switch {
	case err == nil:
		r.ID = existingID
		_, err = s.db.Exec(`
			UPDATE management_reports
			SET report_text = ?, attachment_url = ?, submitted_at = ?
			WHERE id = ?
		`, r.Narrative, r.Attachment, formatTime(r.SubmittedAt), r.ID)
		if err != nil {
			return model.ManagementReport{}, fmt.Errorf("replace management report: %w", err)
		}
	case err == sql.ErrNoRows:
		r.ID = uuid.NewString()
		_, err = s.db.Exec(`
			INSERT INTO management_reports (id, user_id, week_start, report_text, attachment_url, submitted_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, r.ID, r.ActorID, r.WeekStart, r.Narrative, r.Attachment, formatTime(r.SubmittedAt))
		if err != nil {
			return model.ManagementReport{}, fmt.Errorf("insert management report: %w", err)
		}
	default:
		return model.ManagementReport{}, fmt.Errorf("check existing management report: %w", err)
	}

	return r, nil
}

// ListManagementReports returns every report, most recent week first.
func (s *Store) ListManagementReports() ([]model.ManagementReport, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, week_start, report_text, attachment_url, submitted_at
		FROM management_reports
		ORDER BY week_start DESC, submitted_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query management reports: %w", err)
	}
	defer rows.Close()

	var reports []model.ManagementReport
	for rows.Next() {
		var r model.ManagementReport
		var submittedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.ActorID, &r.WeekStart, &r.Narrative, &r.Attachment, &submittedAt); err != nil {
			return nil, fmt.Errorf("scan management report: %w", err)
		}
		r.SubmittedAt = parseTime(submittedAt)
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate management reports: %w", err)
	}
	return reports, nil
}
