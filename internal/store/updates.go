package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"

	"okrpulse/internal/model"
)

// SubmitResult reports the outcome of a weekly submission. When an
// existing update for the same (objective, week) was replaced, Diff holds
// a unified diff of the narrative so the overwrite is visible; conflict
// resolution itself is last write wins.
type SubmitResult struct {
	Update  model.PeriodUpdate
	Created bool
	Diff    string
}

// SubmitUpdate inserts or replaces the week's update for an objective.
// The UNIQUE(okr_id, week_start) constraint guarantees at most one row
// per pair.
func (s *Store) SubmitUpdate(u model.PeriodUpdate) (*SubmitResult, error) {
	if err := model.ValidateUpdate(u); err != nil {
		return nil, err
	}
	if !u.NeedsSupport {
		u.SupportDetail = ""
	}
	u.SubmittedAt = time.Now().UTC()

	metricValues, err := json.Marshal(nonNilValues(u.MetricValues))
	if err != nil {
		return nil, fmt.Errorf("encode metric values: %w", err)
	}

	existing, err := s.UpdateFor(u.ObjectiveID, u.WeekStart)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		u.ID = uuid.NewString()
		_, err = s.db.Exec(`
			INSERT INTO weekly_updates (id, okr_id, user_id, week_start, update_text,
			                            progress_score, needs_support, support_details,
			                            metric_values_json, submitted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, u.ID, u.ObjectiveID, u.ActorID, u.WeekStart, u.Narrative,
			u.Score, boolToInt(u.NeedsSupport), u.SupportDetail,
			string(metricValues), formatTime(u.SubmittedAt))
		if err != nil {
			return nil, fmt.Errorf("insert update: %w", err)
		}
		return &SubmitResult{Update: u, Created: true}, nil
	}

	u.ID = existing.ID
	_, err = s.db.Exec(`
		UPDATE weekly_updates
		SET user_id = ?, update_text = ?, progress_score = ?,
		    needs_support = ?, support_details = ?,
		    metric_values_json = ?, submitted_at = ?
		WHERE id = ?
	`, u.ActorID, u.Narrative, u.Score,
		boolToInt(u.NeedsSupport), u.SupportDetail,
		string(metricValues), formatTime(u.SubmittedAt), u.ID)
	if err != nil {
		return nil, fmt.Errorf("replace update: %w", err)
	}

	diff, err := narrativeDiff(existing.Narrative, u.Narrative)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Update: u, Diff: diff}, nil
}

// UpdateFor returns the week's update for an objective, or nil when none
// exists. These are the only two states a (objective, week) key can be in.
func (s *Store) UpdateFor(objectiveID, weekStart string) (*model.PeriodUpdate, error) {
	row := s.db.QueryRow(updateSelect+`
		WHERE okr_id = ? AND week_start = ?
	`, objectiveID, weekStart)
	u, err := scanUpdate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// UpdatesForWeek returns all updates whose week-start falls in the
// inclusive marker range.
func (s *Store) UpdatesForWeek(startMarker, endMarker string) ([]model.PeriodUpdate, error) {
	rows, err := s.db.Query(updateSelect+`
		WHERE week_start >= ? AND week_start <= ?
		ORDER BY week_start, submitted_at
	`, startMarker, endMarker)
	if err != nil {
		return nil, fmt.Errorf("query updates: %w", err)
	}
	defer rows.Close()
	return scanUpdates(rows)
}

// ListUpdates returns every update, most recent week first, for export.
func (s *Store) ListUpdates() ([]model.PeriodUpdate, error) {
	rows, err := s.db.Query(updateSelect + `
		ORDER BY week_start DESC, submitted_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query updates: %w", err)
	}
	defer rows.Close()
	return scanUpdates(rows)
}

const updateSelect = `
	SELECT id, okr_id, user_id, week_start, update_text, progress_score,
	       needs_support, support_details, metric_values_json, submitted_at
	FROM weekly_updates
`

func scanUpdates(rows *sql.Rows) ([]model.PeriodUpdate, error) {
	var updates []model.PeriodUpdate
	for rows.Next() {
		u, err := scanUpdate(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate updates: %w", err)
	}
	return updates, nil
}

func scanUpdate(row rowScanner) (model.PeriodUpdate, error) {
	var u model.PeriodUpdate
	var needsSupport int
	var supportDetail sql.NullString
	var metricValues string
	var submittedAt sql.NullString

	err := row.Scan(&u.ID, &u.ObjectiveID, &u.ActorID, &u.WeekStart, &u.Narrative,
		&u.Score, &needsSupport, &supportDetail, &metricValues, &submittedAt)
	if err != nil {
		return model.PeriodUpdate{}, fmt.Errorf("scan update: %w", err)
	}

	u.NeedsSupport = needsSupport != 0
	if supportDetail.Valid {
		u.SupportDetail = supportDetail.String
	}
	if err := json.Unmarshal([]byte(metricValues), &u.MetricValues); err != nil {
		return model.PeriodUpdate{}, fmt.Errorf("decode metric values: %w", err)
	}
	u.SubmittedAt = parseTime(submittedAt)
	return u, nil
}

func narrativeDiff(previous, submitted string) (string, error) {
	if previous == submitted {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        strings.Split(previous, "\n"),
		B:        strings.Split(submitted, "\n"),
		FromFile: "previous",
		ToFile:   "submitted",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff narrative: %w", err)
	}
	return text, nil
}

func nonNilValues(values map[string]string) map[string]string {
	if values == nil {
		return map[string]string{}
	}
	return values
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
