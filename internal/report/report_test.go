package report

import (
	"strings"
	"testing"
)

func sampleUpdates() []UpdateContext {
	return []UpdateContext{
		{
			ActorName:   "Ada Okafor",
			Entity:      "Platform",
			Objective:   "Ship v2",
			Description: "Replatform the billing stack",
			KeyResults:  []string{"Migrate 100% of invoices", "Zero P1 incidents"},
			Quarter:     "Q3 2026",
			Score:       4,
			Narrative:   "Migration is at 80%, on track.",
		},
		{
			ActorName: "Ben Ruiz",
			Entity:    "Growth",
			Objective: "Grow ARR",
			Quarter:   "Q3 2026",
			Score:     2,
			Narrative: "Pipeline slipped, two deals pushed.",
		},
	}
}

func TestBuildContext(t *testing.T) {
	missing := []MissingContext{
		{Objective: "Reduce churn", ActorName: "Cleo Park", Entity: "Growth"},
	}
	prompt := BuildContext("Week of August 31 – 6, 2026", sampleUpdates(), missing)

	for _, want := range []string{
		"Week: Week of August 31 – 6, 2026",
		"Total OKR updates submitted: 2",
		"MISSING SUBMISSIONS (no update submitted):",
		"- Reduce churn (DRI: Cleo Park, Growth)",
		"Employee: Ada Okafor (Platform)",
		"OKR: Ship v2",
		"Description: Replatform the billing stack",
		"Key Results: Migrate 100% of invoices | Zero P1 incidents",
		"Progress Score: 4/5",
		"Update: Migration is at 80%, on track.",
		"1. **Executive Summary**",
		"6. **Recommended Actions**",
		"Format with clear headers using ##.",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q\n\n%s", want, prompt)
		}
	}

	// Update blocks are separated by the --- divider.
	if got := strings.Count(prompt, "\n---\n"); got != 1 {
		t.Fatalf("divider count = %d, want 1", got)
	}
}

func TestBuildContextNothingMissing(t *testing.T) {
	prompt := BuildContext("Week of August 31 – 6, 2026", sampleUpdates(), nil)
	if !strings.Contains(prompt, "All OKRs have been submitted this week.") {
		t.Fatal("prompt missing the all-submitted line")
	}
	if strings.Contains(prompt, "MISSING SUBMISSIONS") {
		t.Fatal("prompt should not list missing submissions")
	}
}

func TestCountsFor(t *testing.T) {
	c := CountsFor(sampleUpdates(), []MissingContext{{Objective: "X"}})
	if c.Submitted != 2 || c.Missing != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", c.Submitted, c.Missing)
	}
	if got := c.AvgScoreLabel(); got != "3.0" {
		t.Fatalf("avg = %q, want 3.0", got)
	}

	empty := CountsFor(nil, nil)
	if empty.AvgScore != nil {
		t.Fatal("avg should be nil with zero updates")
	}
	if got := empty.AvgScoreLabel(); got != "—" {
		t.Fatalf("avg label = %q, want sentinel", got)
	}
}

func TestParseLines(t *testing.T) {
	text := "## Executive Summary\n" +
		"A steady week overall.\n" +
		"\n" +
		"### Platform\n" +
		"**Strong momentum**\n" +
		"- Migration at 80%\n" +
		"- Zero incidents"

	lines := ParseLines(text)
	wantKinds := []LineKind{
		LineHeading, LineParagraph, LineBlank, LineSubheading,
		LineEmphasis, LineBullet, LineBullet,
	}
	if len(lines) != len(wantKinds) {
		t.Fatalf("got %d lines, want %d", len(lines), len(wantKinds))
	}
	for i, want := range wantKinds {
		if lines[i].Kind != want {
			t.Fatalf("line %d kind = %d, want %d (%q)", i, lines[i].Kind, want, lines[i].Text)
		}
	}

	if lines[0].Text != "Executive Summary" {
		t.Fatalf("heading text = %q", lines[0].Text)
	}
	if lines[4].Text != "Strong momentum" {
		t.Fatalf("emphasis text = %q", lines[4].Text)
	}
	if lines[5].Text != "Migration at 80%" {
		t.Fatalf("bullet text = %q", lines[5].Text)
	}
}

func TestParseLinesEdgeCases(t *testing.T) {
	// A bare ** pair is too short to be emphasis.
	if l := ParseLines("****")[0]; l.Kind != LineParagraph {
		t.Fatalf("**** classified as %d", l.Kind)
	}
	// Bold in the middle of a line is not a fully wrapped line.
	if l := ParseLines("some **bold** words")[0]; l.Kind != LineParagraph {
		t.Fatalf("inline bold classified as %d", l.Kind)
	}
	// A heading without the trailing space is plain text.
	if l := ParseLines("##NoSpace")[0]; l.Kind != LineParagraph {
		t.Fatalf("##NoSpace classified as %d", l.Kind)
	}
}

func TestRender(t *testing.T) {
	out := Render("## Summary\n- one\ntext")
	for _, want := range []string{"Summary\n=======\n", "  - one\n", "text\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q in %q", want, out)
		}
	}
}
