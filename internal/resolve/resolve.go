// Package resolve turns an objective's metric definitions plus one week's
// raw reported values into display-ready records.
package resolve

import (
	"strconv"
	"strings"

	"okrpulse/internal/formula"
	"okrpulse/internal/model"
)

// Metric is the resolved display record for a single metric definition.
type Metric struct {
	Name string
	Kind model.MetricKind

	// Value is the resolved numeric value, nil when nothing could be
	// resolved this week.
	Value *float64

	// Goal is the manual goal, if any. When Value is nil and Goal is not,
	// GoalFallback is set and callers show the goal annotated as
	// goal-not-an-actual.
	Goal         *float64
	GoalFallback bool

	// Attainment is value/goal as a percentage clamped to [0,100], nil when
	// either side is missing or the goal is zero.
	Attainment *float64
}

// Metrics resolves every definition against the week's raw value mapping.
// raw may be nil, meaning no update has been submitted this period.
// Computed values are rounded to the requested number of decimals.
//
// Substitution inputs for computed definitions are the raw values extended
// two ways: a manual definition's goal stands in wherever that metric has no
// reported value, and every manual goal is also reachable as "<name> Goal"
// so a formula can reference the goal explicitly.
func Metrics(defs []model.MetricDef, raw map[string]string, decimals int) []Metric {
	subs := substitutionInputs(defs, raw)

	out := make([]Metric, 0, len(defs))
	for _, def := range defs {
		if err := model.ValidateMetricDef(def); err != nil {
			// Inconsistently configured definitions resolve to the missing
			// sentinel rather than evaluating garbage.
			out = append(out, Metric{Name: def.Name, Kind: def.Kind})
			continue
		}

		m := Metric{Name: def.Name, Kind: def.Kind, Goal: def.Goal()}

		if def.IsComputed() {
			if v, err := formula.Evaluate(def.Computed.Formula, subs); err == nil {
				rounded := formula.Round(v, decimals)
				m.Value = &rounded
			}
		} else if v, ok := numericValue(raw[def.Name]); ok {
			m.Value = &v
		}

		m.GoalFallback = m.Value == nil && m.Goal != nil
		m.Attainment = attainment(m.Value, m.Goal)

		out = append(out, m)
	}
	return out
}

func substitutionInputs(defs []model.MetricDef, raw map[string]string) map[string]string {
	subs := make(map[string]string, len(raw)+len(defs))
	for name, value := range raw {
		if strings.TrimSpace(value) != "" {
			subs[name] = value
		}
	}
	for _, def := range defs {
		if def.IsComputed() {
			continue
		}
		goal := def.Goal()
		if goal == nil {
			continue
		}
		goalText := strconv.FormatFloat(*goal, 'f', -1, 64)
		if strings.TrimSpace(subs[def.Name]) == "" {
			subs[def.Name] = goalText
		}
		subs[def.Name+" Goal"] = goalText
	}
	return subs
}

func numericValue(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func attainment(value, goal *float64) *float64 {
	if value == nil || goal == nil || *goal == 0 {
		return nil
	}
	pct := *value / *goal * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return &pct
}
