package resolve

import (
	"strconv"
	"strings"

	"okrpulse/internal/model"
)

// Missing is the display sentinel for a value that could not be resolved.
const Missing = "—"

// Format renders a resolved value for display: currency with a dollar sign
// and thousands grouping, percentages with a percent sign, counts grouped.
// nil renders as the missing sentinel.
func Format(kind model.MetricKind, value *float64, decimals int) string {
	if value == nil {
		return Missing
	}
	switch kind {
	case model.MetricCurrency:
		return "$" + groupThousands(formatFixed(*value, decimals))
	case model.MetricPercentage:
		return formatFixed(*value, decimals) + "%"
	default:
		return groupThousands(formatFixed(*value, decimals))
	}
}

// FormatRaw renders a raw reported string value the same way, passing
// non-numeric text through untouched.
func FormatRaw(kind model.MetricKind, raw string, decimals int) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == Missing {
		return Missing
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	return Format(kind, &v, decimals)
}

func formatFixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// groupThousands inserts commas into the integer part of a formatted number.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx:]
	}

	var b strings.Builder
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}

	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
