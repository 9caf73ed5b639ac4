package resolve

import (
	"reflect"
	"testing"

	"okrpulse/internal/model"
)

func ptr(v float64) *float64 {
	return &v
}

func rentDefs() []model.MetricDef {
	return []model.MetricDef{
		{
			Name:   "Monthly Rent",
			Kind:   model.MetricCurrency,
			Manual: &model.ManualMetric{Goal: ptr(58500)},
		},
		{
			Name:     "Rent Gap",
			Kind:     model.MetricCurrency,
			Computed: &model.ComputedMetric{Formula: `"Monthly Rent Goal - Monthly Rent"`},
		},
	}
}

func metricByName(t *testing.T, metrics []Metric, name string) Metric {
	t.Helper()
	for _, m := range metrics {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("metric %q not found in %#v", name, metrics)
	return Metric{}
}

func TestRentGapWithReportedValue(t *testing.T) {
	metrics := Metrics(rentDefs(), map[string]string{"Monthly Rent": "50000"}, 0)

	rent := metricByName(t, metrics, "Monthly Rent")
	if rent.Value == nil || *rent.Value != 50000 {
		t.Fatalf("Monthly Rent value = %v, want 50000", rent.Value)
	}
	if rent.GoalFallback {
		t.Fatal("Monthly Rent should not be goal fallback when reported")
	}

	gap := metricByName(t, metrics, "Rent Gap")
	if gap.Value == nil || *gap.Value != 8500 {
		t.Fatalf("Rent Gap value = %v, want 8500", gap.Value)
	}
}

func TestRentGapWithoutReportedValue(t *testing.T) {
	metrics := Metrics(rentDefs(), nil, 0)

	rent := metricByName(t, metrics, "Monthly Rent")
	if rent.Value != nil {
		t.Fatalf("Monthly Rent value = %v, want missing", *rent.Value)
	}
	if !rent.GoalFallback {
		t.Fatal("Monthly Rent should fall back to goal display")
	}
	if rent.Goal == nil || *rent.Goal != 58500 {
		t.Fatalf("Monthly Rent goal = %v, want 58500", rent.Goal)
	}

	// Goal substitutes for the unreported name: goal minus goal.
	gap := metricByName(t, metrics, "Rent Gap")
	if gap.Value == nil || *gap.Value != 0 {
		t.Fatalf("Rent Gap value = %v, want 0", gap.Value)
	}
}

func TestComputedWithUnresolvableReference(t *testing.T) {
	defs := []model.MetricDef{
		{Name: "Churn", Kind: model.MetricPercentage, Manual: &model.ManualMetric{}},
		{Name: "Derived", Kind: model.MetricCount, Computed: &model.ComputedMetric{Formula: "Churn * 2"}},
	}

	// Churn has neither a reported value nor a goal, so the reference is
	// unresolvable and the computed metric stays missing.
	metrics := Metrics(defs, nil, 0)
	derived := metricByName(t, metrics, "Derived")
	if derived.Value != nil {
		t.Fatalf("Derived value = %v, want missing", *derived.Value)
	}
}

func TestComputedSelfReferenceIsMissing(t *testing.T) {
	defs := []model.MetricDef{
		{Name: "Loop", Kind: model.MetricCount, Computed: &model.ComputedMetric{Formula: "Loop + 1"}},
	}
	metrics := Metrics(defs, nil, 0)
	if m := metricByName(t, metrics, "Loop"); m.Value != nil {
		t.Fatalf("self-referencing metric resolved to %v, want missing", *m.Value)
	}
}

func TestInconsistentDefinitionIsIgnored(t *testing.T) {
	defs := []model.MetricDef{
		{
			Name:     "Broken",
			Kind:     model.MetricCount,
			Manual:   &model.ManualMetric{Goal: ptr(10)},
			Computed: &model.ComputedMetric{Formula: "1 + 1"},
		},
	}
	metrics := Metrics(defs, map[string]string{"Broken": "5"}, 0)
	m := metricByName(t, metrics, "Broken")
	if m.Value != nil || m.Goal != nil || m.GoalFallback {
		t.Fatalf("inconsistent definition resolved: %#v", m)
	}
}

func TestAttainment(t *testing.T) {
	cases := []struct {
		name  string
		value *float64
		goal  *float64
		want  *float64
	}{
		{"half", ptr(50), ptr(100), ptr(50)},
		{"clamped high", ptr(250), ptr(100), ptr(100)},
		{"clamped low", ptr(-10), ptr(100), ptr(0)},
		{"zero goal undefined", ptr(50), ptr(0), nil},
		{"no value", nil, ptr(100), nil},
		{"no goal", ptr(50), nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := attainment(tc.value, tc.goal)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("attainment = %v, want %v", got, tc.want)
			}
			if got != nil && *got != *tc.want {
				t.Fatalf("attainment = %v, want %v", *got, *tc.want)
			}
		})
	}
}

func TestMetricsIdempotent(t *testing.T) {
	raw := map[string]string{"Monthly Rent": "50000"}
	first := Metrics(rentDefs(), raw, 2)
	second := Metrics(rentDefs(), raw, 2)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("resolution is not idempotent:\n%#v\n%#v", first, second)
	}
}

func TestPrecision(t *testing.T) {
	defs := []model.MetricDef{
		{Name: "A", Kind: model.MetricCount, Manual: &model.ManualMetric{}},
		{Name: "B", Kind: model.MetricCount, Manual: &model.ManualMetric{}},
		{Name: "Ratio", Kind: model.MetricPercentage, Computed: &model.ComputedMetric{Formula: "(A / B) * 100"}},
	}
	raw := map[string]string{"A": "1", "B": "3"}

	dashboard := metricByName(t, Metrics(defs, raw, 0), "Ratio")
	if dashboard.Value == nil || *dashboard.Value != 33 {
		t.Fatalf("dashboard precision: got %v, want 33", dashboard.Value)
	}

	card := metricByName(t, Metrics(defs, raw, 2), "Ratio")
	if card.Value == nil || *card.Value != 33.33 {
		t.Fatalf("card precision: got %v, want 33.33", card.Value)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		kind     model.MetricKind
		value    *float64
		decimals int
		want     string
	}{
		{model.MetricCurrency, ptr(58500), 0, "$58,500"},
		{model.MetricCurrency, ptr(1234567.5), 2, "$1,234,567.50"},
		{model.MetricPercentage, ptr(42.4), 0, "42%"},
		{model.MetricCount, ptr(9000), 0, "9,000"},
		{model.MetricCount, nil, 0, Missing},
	}
	for _, tc := range cases {
		if got := Format(tc.kind, tc.value, tc.decimals); got != tc.want {
			t.Fatalf("Format(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}

	if got := FormatRaw(model.MetricCount, "not a number", 0); got != "not a number" {
		t.Fatalf("FormatRaw non-numeric = %q", got)
	}
	if got := FormatRaw(model.MetricCurrency, "", 0); got != Missing {
		t.Fatalf("FormatRaw empty = %q, want sentinel", got)
	}
}
