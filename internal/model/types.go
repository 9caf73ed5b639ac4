package model

import "time"

// Role classifies an actor within the organization.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Actor is an employee or administrator profile.
type Actor struct {
	ID        string
	FullName  string
	Email     string
	Entity    string
	Role      Role
	CreatedAt time.Time
}

// Identity is an already-authenticated actor plus its admin classification.
// Authentication itself happens outside this tool.
type Identity struct {
	ActorID string
	IsAdmin bool
}

// MetricKind is the value kind of a metric definition.
type MetricKind string

const (
	MetricCurrency   MetricKind = "currency"
	MetricPercentage MetricKind = "percentage"
	MetricCount      MetricKind = "count"
)

// ManualMetric holds the manual-entry side of a metric definition.
type ManualMetric struct {
	Goal *float64
}

// ComputedMetric holds the formula side of a metric definition.
type ComputedMetric struct {
	Formula string
}

// MetricDef is an admin-defined numeric indicator attached to an objective.
// Exactly one of Manual or Computed is set; ValidateMetricDef enforces this.
type MetricDef struct {
	Name     string
	Kind     MetricKind
	Manual   *ManualMetric
	Computed *ComputedMetric
}

// IsComputed reports whether the definition derives its value from a formula.
func (d MetricDef) IsComputed() bool {
	return d.Computed != nil
}

// Goal returns the manual goal, if any.
func (d MetricDef) Goal() *float64 {
	if d.Manual == nil {
		return nil
	}
	return d.Manual.Goal
}

// Objective is a quarter-scoped goal owned by one actor.
type Objective struct {
	ID          string
	Code        string
	Title       string
	Description string
	OwnerID     string
	Entity      string
	Quarter     string
	Active      bool
	KeyResults  []string
	Metrics     []MetricDef
	CreatedAt   time.Time
}

// PeriodUpdate is one actor's weekly report against one objective.
// At most one exists per (objective, week-start) pair; the storage layer
// enforces that uniqueness.
type PeriodUpdate struct {
	ID            string
	ObjectiveID   string
	ActorID       string
	WeekStart     string
	Narrative     string
	Score         int
	NeedsSupport  bool
	SupportDetail string
	MetricValues  map[string]string
	SubmittedAt   time.Time
}

// ManagementReport is a free-text weekly note not tied to any objective.
type ManagementReport struct {
	ID          string
	ActorID     string
	WeekStart   string
	Narrative   string
	Attachment  string
	SubmittedAt time.Time
}
