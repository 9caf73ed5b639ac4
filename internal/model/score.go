package model

import "fmt"

// Progress scores are a fixed five-level ordinal scale.
const (
	ScoreMin = 1
	ScoreMax = 5
)

var scoreLabels = [...]string{
	1: "Off track",
	2: "At risk",
	3: "On track",
	4: "Ahead",
	5: "Exceeded",
}

// ScoreLabel returns the fixed label for a progress score, or "" for an
// out-of-range value.
func ScoreLabel(score int) string {
	if score < ScoreMin || score > ScoreMax {
		return ""
	}
	return scoreLabels[score]
}

// ValidateScore rejects progress scores outside the 1..5 scale.
func ValidateScore(score int) error {
	if score < ScoreMin || score > ScoreMax {
		return fmt.Errorf("progress score must be between %d and %d, got %d", ScoreMin, ScoreMax, score)
	}
	return nil
}
