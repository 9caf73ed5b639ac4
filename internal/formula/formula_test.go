package formula

import (
	"math"
	"testing"
)

func TestEvaluateBasicArithmetic(t *testing.T) {
	cases := []struct {
		name    string
		formula string
		values  map[string]string
		want    float64
	}{
		{"addition", "A + B", map[string]string{"A": "2", "B": "3"}, 5},
		{"precedence", "A + B * C", map[string]string{"A": "2", "B": "3", "C": "4"}, 14},
		{"parens", "(A / B) * 100", map[string]string{"A": "50", "B": "200"}, 25},
		{"subtraction", "A - B", map[string]string{"A": "10", "B": "4"}, 6},
		{"unary minus", "-A + B", map[string]string{"A": "2", "B": "5"}, 3},
		{"nested parens", "((A + B) * (C - 1))", map[string]string{"A": "1", "B": "2", "C": "3"}, 6},
		{"decimals", "A * B", map[string]string{"A": "2.5", "B": "4"}, 10},
		{"blank defaults to zero", "A + B", map[string]string{"A": "7", "B": ""}, 7},
		{"missing name in map defaults to zero", "A + B", map[string]string{"A": "7", "B": "   "}, 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Evaluate(tc.formula, tc.values)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tc.formula, err)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Evaluate(%q) = %v, want %v", tc.formula, got, tc.want)
			}
		})
	}
}

func TestEvaluateCaseInsensitiveNames(t *testing.T) {
	got, err := Evaluate("monthly rent - FEES", map[string]string{"Monthly Rent": "100", "Fees": "30"})
	if err != nil {
		t.Fatal(err)
	}
	if got != 70 {
		t.Fatalf("got %v, want 70", got)
	}
}

func TestEvaluateLongestNameFirst(t *testing.T) {
	// "Monthly Rent" is a prefix of "Monthly Rent Goal"; substituting the
	// short name first would mangle the long one.
	values := map[string]string{
		"Monthly Rent":      "50000",
		"Monthly Rent Goal": "58500",
	}
	got, err := Evaluate("Monthly Rent Goal - Monthly Rent", values)
	if err != nil {
		t.Fatal(err)
	}
	if got != 8500 {
		t.Fatalf("got %v, want 8500", got)
	}
}

func TestEvaluateStripsWrappingQuotes(t *testing.T) {
	for _, formula := range []string{
		`"A + B"`,
		`\"A + B\"`,
	} {
		got, err := Evaluate(formula, map[string]string{"A": "2", "B": "3"})
		if err != nil {
			t.Fatalf("Evaluate(%q) error: %v", formula, err)
		}
		if got != 5 {
			t.Fatalf("Evaluate(%q) = %v, want 5", formula, got)
		}
	}
}

func TestEvaluateFailsSafely(t *testing.T) {
	cases := []struct {
		name    string
		formula string
		values  map[string]string
	}{
		{"injection", "A; DROP", map[string]string{"A": "1"}},
		{"undefined name", "A + Unknown", map[string]string{"A": "1"}},
		{"letters after substitution", "A Goal - A", map[string]string{"A": "1"}},
		{"division by zero", "A / B", map[string]string{"A": "1", "B": "0"}},
		{"empty formula", "", map[string]string{"A": "1"}},
		{"dangling operator", "A +", map[string]string{"A": "1"}},
		{"unbalanced parens", "(A + 1", map[string]string{"A": "1"}},
		{"stray close paren", "A + 1)", map[string]string{"A": "1"}},
		{"non-numeric value", "A + 1", map[string]string{"A": "lots"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Evaluate(tc.formula, tc.values); err == nil {
				t.Fatalf("Evaluate(%q) succeeded, want error", tc.formula)
			}
		})
	}
}

func TestEvaluateMultibyteRunes(t *testing.T) {
	// Ⱥ (2 bytes) lowercases to ⱥ (3 bytes), so matching must not assume
	// lowercasing preserves byte offsets.
	if _, err := Evaluate("ȺȺȺȺA", map[string]string{"A": "1"}); err == nil {
		t.Fatal("expected unresolved-character error")
	}

	got, err := Evaluate("Ⱥ + 1", map[string]string{"ⱥ": "2"})
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if got != 3 {
		t.Fatalf("got %v, want 3", got)
	}

	if _, err := Evaluate("Prix en € + 1", map[string]string{"Prix en €": "4"}); err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
}

func TestEvaluateWhitelistBeforeEvaluate(t *testing.T) {
	// A value that substitutes to non-whitelisted text must fail at the
	// whitelist, never reach evaluation.
	_, err := Evaluate("A", map[string]string{"A": "os.Exit(1)"})
	if err == nil {
		t.Fatal("expected whitelist failure")
	}
}

func TestRound(t *testing.T) {
	cases := []struct {
		v        float64
		decimals int
		want     float64
	}{
		{2.345, 2, 2.35},
		{2.344, 2, 2.34},
		{2.5, 0, 3},
		{8500.0, 0, 8500},
		{-1.005, 1, -1.0},
	}
	for _, tc := range cases {
		if got := Round(tc.v, tc.decimals); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Round(%v, %d) = %v, want %v", tc.v, tc.decimals, got, tc.want)
		}
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	values := map[string]string{"A": "50", "B": "200"}
	first, err := Evaluate("(A / B) * 100", values)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Evaluate("(A / B) * 100", values)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("results differ: %v vs %v", first, second)
	}
}
