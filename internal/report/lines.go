package report

import "strings"

// LineKind classifies one line of completion output for display.
type LineKind int

const (
	LineParagraph LineKind = iota
	LineHeading
	LineSubheading
	LineEmphasis
	LineBullet
	LineBlank
)

// Line is one classified display line with its markers stripped.
type Line struct {
	Kind LineKind
	Text string
}

// ParseLines applies the fixed line-level display rules to completion
// output: "## " marks a heading, "### " a sub-heading, a line fully
// wrapped in ** is an emphasized paragraph, "- " a list item, blank lines
// stay blank, and everything else is a plain paragraph. The text is
// otherwise treated as opaque.
func ParseLines(text string) []Line {
	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, classify(l))
	}
	return lines
}

func classify(line string) Line {
	switch {
	case strings.HasPrefix(line, "## "):
		return Line{Kind: LineHeading, Text: strings.TrimPrefix(line, "## ")}
	case strings.HasPrefix(line, "### "):
		return Line{Kind: LineSubheading, Text: strings.TrimPrefix(line, "### ")}
	case strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") && len(line) > 4:
		return Line{Kind: LineEmphasis, Text: strings.ReplaceAll(line, "**", "")}
	case strings.HasPrefix(line, "- "):
		return Line{Kind: LineBullet, Text: strings.TrimPrefix(line, "- ")}
	case strings.TrimSpace(line) == "":
		return Line{Kind: LineBlank}
	default:
		return Line{Kind: LineParagraph, Text: line}
	}
}

// Render lays the classified lines out as plain terminal text: headings
// underlined, bullets indented, emphasis left on its own line.
func Render(text string) string {
	var b strings.Builder
	for _, line := range ParseLines(text) {
		switch line.Kind {
		case LineHeading:
			b.WriteString(line.Text + "\n")
			b.WriteString(strings.Repeat("=", len(line.Text)) + "\n")
		case LineSubheading:
			b.WriteString(line.Text + "\n")
			b.WriteString(strings.Repeat("-", len(line.Text)) + "\n")
		case LineEmphasis:
			b.WriteString(line.Text + "\n")
		case LineBullet:
			b.WriteString("  - " + line.Text + "\n")
		case LineBlank:
			b.WriteString("\n")
		default:
			b.WriteString(line.Text + "\n")
		}
	}
	return b.String()
}
