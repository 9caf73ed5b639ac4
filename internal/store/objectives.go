package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"okrpulse/internal/model"
)

type metricDefJSON struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Goal     *float64 `json:"goal,omitempty"`
	Computed bool     `json:"computed,omitempty"`
	Formula  string   `json:"formula,omitempty"`
}

func encodeMetrics(defs []model.MetricDef) (string, error) {
	out := make([]metricDefJSON, 0, len(defs))
	for _, d := range defs {
		entry := metricDefJSON{Name: d.Name, Kind: string(d.Kind)}
		if d.Computed != nil {
			entry.Computed = true
			entry.Formula = d.Computed.Formula
		} else if d.Manual != nil {
			entry.Goal = d.Manual.Goal
		}
		out = append(out, entry)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode metrics: %w", err)
	}
	return string(data), nil
}

func decodeMetrics(raw string) ([]model.MetricDef, error) {
	if raw == "" {
		return nil, nil
	}
	var entries []metricDefJSON
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	defs := make([]model.MetricDef, 0, len(entries))
	for _, e := range entries {
		d := model.MetricDef{Name: e.Name, Kind: model.MetricKind(e.Kind)}
		if e.Computed {
			d.Computed = &model.ComputedMetric{Formula: e.Formula}
		} else {
			d.Manual = &model.ManualMetric{Goal: e.Goal}
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// AddObjective validates and inserts a new objective, assigning its
// identifier, a short display code when none was given, and creation time.
func (s *Store) AddObjective(o model.Objective) (model.Objective, error) {
	if err := model.ValidateObjective(o); err != nil {
		return model.Objective{}, err
	}

	o.ID = uuid.NewString()
	o.Active = true
	o.CreatedAt = time.Now().UTC()
	if o.Code == "" {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM okrs").Scan(&count); err != nil {
			return model.Objective{}, fmt.Errorf("count okrs: %w", err)
		}
		o.Code = fmt.Sprintf("OKR-%d", count+1)
	}

	keyResults, err := json.Marshal(o.KeyResults)
	if err != nil {
		return model.Objective{}, fmt.Errorf("encode key results: %w", err)
	}
	metrics, err := encodeMetrics(o.Metrics)
	if err != nil {
		return model.Objective{}, err
	}

	_, err = s.db.Exec(`
		INSERT INTO okrs (id, okr_code, title, description, entity, quarter,
		                  assigned_to, key_results_json, metrics_json, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
	`, o.ID, o.Code, o.Title, o.Description, o.Entity, o.Quarter,
		o.OwnerID, string(keyResults), metrics, formatTime(o.CreatedAt))
	if err != nil {
		return model.Objective{}, fmt.Errorf("insert okr: %w", err)
	}
	return o, nil
}

// ListObjectives returns objectives ordered by creation, optionally only
// active ones.
func (s *Store) ListObjectives(activeOnly bool) ([]model.Objective, error) {
	query := `
		SELECT id, okr_code, title, description, entity, quarter,
		       assigned_to, key_results_json, metrics_json, is_active, created_at
		FROM okrs
	`
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY created_at, okr_code"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query okrs: %w", err)
	}
	defer rows.Close()

	var objectives []model.Objective
	for rows.Next() {
		o, err := scanObjective(rows)
		if err != nil {
			return nil, err
		}
		objectives = append(objectives, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate okrs: %w", err)
	}
	return objectives, nil
}

// ObjectiveByCode looks up an objective by its short display code.
func (s *Store) ObjectiveByCode(code string) (model.Objective, bool, error) {
	row := s.db.QueryRow(`
		SELECT id, okr_code, title, description, entity, quarter,
		       assigned_to, key_results_json, metrics_json, is_active, created_at
		FROM okrs
		WHERE okr_code = ?
	`, code)
	o, err := scanObjective(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Objective{}, false, nil
		}
		return model.Objective{}, false, err
	}
	return o, true, nil
}

// ArchiveObjective flips the active flag off. Objectives are never
// physically removed mid-period.
func (s *Store) ArchiveObjective(id string) error {
	result, err := s.db.Exec("UPDATE okrs SET is_active = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("archive okr: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("archive okr: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("okr not found: %s", id)
	}
	return nil
}

func scanObjective(row rowScanner) (model.Objective, error) {
	var o model.Objective
	var keyResults, metrics string
	var active int
	var createdAt sql.NullString

	err := row.Scan(&o.ID, &o.Code, &o.Title, &o.Description, &o.Entity, &o.Quarter,
		&o.OwnerID, &keyResults, &metrics, &active, &createdAt)
	if err != nil {
		return model.Objective{}, fmt.Errorf("scan okr: %w", err)
	}

	if err := json.Unmarshal([]byte(keyResults), &o.KeyResults); err != nil {
		return model.Objective{}, fmt.Errorf("decode key results: %w", err)
	}
	o.Metrics, err = decodeMetrics(metrics)
	if err != nil {
		return model.Objective{}, err
	}
	o.Active = active != 0
	o.CreatedAt = parseTime(createdAt)
	return o, nil
}
