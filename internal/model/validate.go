package model

import (
	"fmt"
	"strings"
)

// ValidationError captures a single field-specific validation issue.
type ValidationError struct {
	Record  string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Record, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Record, e.Field, e.Message)
}

// ValidationErrors aggregates multiple validation problems.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}

// ErrOrNil returns the aggregate as an error, or nil when empty.
func (errs ValidationErrors) ErrOrNil() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateActor checks the fields required before an actor is admitted.
func ValidateActor(a Actor) error {
	var errs ValidationErrors
	record := actorRecord(a)

	if strings.TrimSpace(a.FullName) == "" {
		errs = append(errs, ValidationError{Record: record, Field: "full_name", Message: "full name is required"})
	}
	if strings.TrimSpace(a.Email) == "" {
		errs = append(errs, ValidationError{Record: record, Field: "email", Message: "email is required"})
	}
	switch a.Role {
	case RoleEmployee, RoleAdmin:
	default:
		errs = append(errs, ValidationError{Record: record, Field: "role", Message: fmt.Sprintf("invalid role %q (expected employee or admin)", a.Role)})
	}

	return errs.ErrOrNil()
}

// ValidateMetricDef rejects a definition that is neither or both of
// manual/computed, a computed definition carrying an independent goal, or a
// manual definition carrying a formula. The goal/formula mutual exclusivity
// is what keeps the evaluator from running against garbage.
func ValidateMetricDef(d MetricDef) error {
	return validateMetricDef(d, fmt.Sprintf("metric %q", d.Name)).ErrOrNil()
}

func validateMetricDef(d MetricDef, record string) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, ValidationError{Record: record, Field: "name", Message: "name is required"})
	}
	switch d.Kind {
	case MetricCurrency, MetricPercentage, MetricCount:
	default:
		errs = append(errs, ValidationError{Record: record, Field: "kind", Message: fmt.Sprintf("invalid kind %q (expected currency, percentage, or count)", d.Kind)})
	}

	switch {
	case d.Manual == nil && d.Computed == nil:
		errs = append(errs, ValidationError{Record: record, Field: "", Message: "must be either manual or computed"})
	case d.Manual != nil && d.Computed != nil:
		errs = append(errs, ValidationError{Record: record, Field: "", Message: "cannot be both manual and computed"})
	case d.Computed != nil && strings.TrimSpace(d.Computed.Formula) == "":
		errs = append(errs, ValidationError{Record: record, Field: "formula", Message: "computed metric requires a formula"})
	}

	return errs
}

// ValidateObjective checks an objective and its metric definitions,
// including metric name uniqueness within the objective.
func ValidateObjective(o Objective) error {
	var errs ValidationErrors
	record := objectiveRecord(o)

	if strings.TrimSpace(o.Title) == "" {
		errs = append(errs, ValidationError{Record: record, Field: "title", Message: "title is required"})
	}
	if strings.TrimSpace(o.OwnerID) == "" {
		errs = append(errs, ValidationError{Record: record, Field: "owner", Message: "owner is required"})
	}
	if strings.TrimSpace(o.Quarter) == "" {
		errs = append(errs, ValidationError{Record: record, Field: "quarter", Message: "quarter is required"})
	}

	seen := make(map[string]struct{}, len(o.Metrics))
	for i, d := range o.Metrics {
		metricRecord := fmt.Sprintf("%s: metrics[%d]", record, i)
		errs = append(errs, validateMetricDef(d, metricRecord)...)

		key := strings.ToLower(strings.TrimSpace(d.Name))
		if key == "" {
			continue
		}
		if _, exists := seen[key]; exists {
			errs = append(errs, ValidationError{Record: metricRecord, Field: "name", Message: fmt.Sprintf("duplicate metric name %q within objective", d.Name)})
		} else {
			seen[key] = struct{}{}
		}
	}

	return errs.ErrOrNil()
}

// ValidateUpdate checks a period update before it is admitted.
func ValidateUpdate(u PeriodUpdate) error {
	var errs ValidationErrors
	record := fmt.Sprintf("update for objective %s, week %s", u.ObjectiveID, u.WeekStart)

	if strings.TrimSpace(u.ObjectiveID) == "" {
		errs = append(errs, ValidationError{Record: record, Field: "objective", Message: "objective reference is required"})
	}
	if strings.TrimSpace(u.ActorID) == "" {
		errs = append(errs, ValidationError{Record: record, Field: "actor", Message: "actor reference is required"})
	}
	if strings.TrimSpace(u.WeekStart) == "" {
		errs = append(errs, ValidationError{Record: record, Field: "week_start", Message: "week start is required"})
	}
	if strings.TrimSpace(u.Narrative) == "" {
		errs = append(errs, ValidationError{Record: record, Field: "narrative", Message: "narrative is required"})
	}
	if err := ValidateScore(u.Score); err != nil {
		errs = append(errs, ValidationError{Record: record, Field: "progress_score", Message: err.Error()})
	}

	return errs.ErrOrNil()
}

// ParseMetricKind maps both the long names and the display sigils used by
// admins ($, %, #) onto a MetricKind.
func ParseMetricKind(value string) (MetricKind, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "currency", "$":
		return MetricCurrency, nil
	case "percentage", "percent", "%":
		return MetricPercentage, nil
	case "count", "#":
		return MetricCount, nil
	default:
		return "", fmt.Errorf("invalid metric kind %q (expected currency, percentage, or count)", value)
	}
}

// Sigil returns the one-character display marker for a kind.
func (k MetricKind) Sigil() string {
	switch k {
	case MetricCurrency:
		return "$"
	case MetricPercentage:
		return "%"
	default:
		return "#"
	}
}

func actorRecord(a Actor) string {
	if a.Email != "" {
		return fmt.Sprintf("actor %s", a.Email)
	}
	return "actor"
}

func objectiveRecord(o Objective) string {
	if o.Code != "" {
		return fmt.Sprintf("objective %s", o.Code)
	}
	if o.Title != "" {
		return fmt.Sprintf("objective %q", o.Title)
	}
	return "objective"
}
