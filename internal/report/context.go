// Package report assembles the natural-language context handed to the
// text-completion collaborator and classifies the opaque text that comes
// back for display. It does no other parsing of the completion.
package report

import (
	"fmt"
	"strconv"
	"strings"
)

// UpdateContext is one submitted update serialized for the prompt.
type UpdateContext struct {
	ActorName   string
	Entity      string
	Objective   string
	Description string
	KeyResults  []string
	Quarter     string
	Score       int
	Narrative   string
}

// MissingContext is one objective with no update this period.
type MissingContext struct {
	Objective string
	ActorName string
	Entity    string
}

// Counts backs the summary tiles shown next to the report action.
type Counts struct {
	Submitted int
	Missing   int
	AvgScore  *float64
}

// AvgScoreLabel formats the average to one decimal, or the missing
// sentinel when no updates exist.
func (c Counts) AvgScoreLabel() string {
	if c.AvgScore == nil {
		return "—"
	}
	return strconv.FormatFloat(*c.AvgScore, 'f', 1, 64)
}

// CountsFor derives the tile counts from the prompt inputs.
func CountsFor(updates []UpdateContext, missing []MissingContext) Counts {
	c := Counts{Submitted: len(updates), Missing: len(missing)}
	if len(updates) == 0 {
		return c
	}
	sum := 0
	for _, u := range updates {
		sum += u.Score
	}
	avg := float64(sum) / float64(len(updates))
	c.AvgScore = &avg
	return c
}

// BuildContext serializes the week's updates and missing list into the
// executive-report prompt. The returned string is the sole input to the
// completion collaborator.
func BuildContext(weekLabel string, updates []UpdateContext, missing []MissingContext) string {
	blocks := make([]string, 0, len(updates))
	for _, u := range updates {
		blocks = append(blocks, updateBlock(u))
	}

	var b strings.Builder
	b.WriteString("You are an executive assistant preparing a weekly OKR report for the CEO/executive team.\n\n")
	fmt.Fprintf(&b, "Week: %s\n", weekLabel)
	fmt.Fprintf(&b, "Total OKR updates submitted: %d\n", len(updates))
	b.WriteString(missingSummary(missing))
	b.WriteString("\n\nHere are all the OKR updates submitted this week:\n\n")
	b.WriteString(strings.Join(blocks, "\n---\n"))
	b.WriteString(`

Please generate a comprehensive executive report that includes:
1. **Executive Summary** — 2-3 sentence high-level overview of the week
2. **Highlights** — Top 3 wins or strong performers across the org
3. **Risks & Concerns** — Areas with low scores or concerning updates
4. **By Entity Summary** — Brief paragraph per entity/department
5. **Missing Submissions** — Who hasn't submitted and from which entity
6. **Recommended Actions** — 3-5 concrete things leadership should follow up on

Keep it professional, concise, and actionable. Format with clear headers using ##.`)

	return b.String()
}

func updateBlock(u UpdateContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Employee: %s (%s)\n", u.ActorName, u.Entity)
	fmt.Fprintf(&b, "OKR: %s\n", u.Objective)
	if u.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", u.Description)
	}
	if len(u.KeyResults) > 0 {
		fmt.Fprintf(&b, "Key Results: %s\n", strings.Join(u.KeyResults, " | "))
	}
	fmt.Fprintf(&b, "Quarter: %s\n", u.Quarter)
	fmt.Fprintf(&b, "Progress Score: %d/5\n", u.Score)
	fmt.Fprintf(&b, "Update: %s", u.Narrative)
	return b.String()
}

func missingSummary(missing []MissingContext) string {
	if len(missing) == 0 {
		return "\nAll OKRs have been submitted this week."
	}
	lines := make([]string, 0, len(missing))
	for _, m := range missing {
		lines = append(lines, fmt.Sprintf("- %s (DRI: %s, %s)", m.Objective, m.ActorName, m.Entity))
	}
	return "\nMISSING SUBMISSIONS (no update submitted):\n" + strings.Join(lines, "\n")
}
