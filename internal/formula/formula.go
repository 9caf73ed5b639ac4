// Package formula evaluates admin-authored arithmetic formulas over
// weekly-reported metric values.
//
// Formulas are free text stored per objective and evaluated against
// user-supplied numeric strings, so the evaluator never executes anything
// it did not parse itself: metric names are substituted first, the residue
// is checked against a strict character whitelist, and only then is the
// expression evaluated. Any failure at any step returns an error; callers
// render errors as the missing-value sentinel.
package formula

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Evaluate substitutes the named values into the formula and evaluates the
// resulting arithmetic expression. Names match case-insensitively; longer
// names are substituted first so a name that is a prefix of another cannot
// clobber it. Blank values default to 0. Names absent from the mapping are
// left in place and fail the whitelist check.
func Evaluate(formula string, values map[string]string) (float64, error) {
	expr := stripQuotes(formula)
	expr = substitute(expr, values)

	if err := checkWhitelist(expr); err != nil {
		return 0, err
	}

	result, err := parse(expr)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("formula result is not finite")
	}
	return result, nil
}

// Round rounds to the requested number of decimal places. Callers choose
// their precision: 0 for dashboard display, 2 for the per-card preview.
func Round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

// stripQuotes removes quote characters accidentally wrapped around a stored
// formula, including an escaped quote (`\"...\"`).
func stripQuotes(formula string) string {
	expr := strings.TrimSpace(formula)
	for _, prefix := range []string{`\"`, `"`} {
		if strings.HasPrefix(expr, prefix) {
			expr = expr[len(prefix):]
			break
		}
	}
	for _, suffix := range []string{`\"`, `"`} {
		if strings.HasSuffix(expr, suffix) {
			expr = expr[:len(expr)-len(suffix)]
			break
		}
	}
	return expr
}

func substitute(expr string, values map[string]string) string {
	names := make([]string, 0, len(values))
	for name := range values {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	// Longest first; ties broken alphabetically for determinism.
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		value := strings.TrimSpace(values[name])
		if value == "" {
			value = "0"
		}
		expr = replaceFold(expr, name, value)
	}
	return expr
}

// replaceFold replaces every case-insensitive occurrence of old with new.
// Matching walks runes rather than a lowered copy of s: lowercasing can
// change a rune's byte length, so byte offsets into a lowered string do not
// transfer back to the original.
func replaceFold(s, old, new string) string {
	if old == "" {
		return s
	}
	oldRunes := []rune(strings.ToLower(old))

	var b strings.Builder
	for i := 0; i < len(s); {
		if n, ok := foldMatch(s[i:], oldRunes); ok {
			b.WriteString(new)
			i += n
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String()
}

// foldMatch reports whether s begins with the lowercased runes of want,
// returning the byte length of the matched prefix of s.
func foldMatch(s string, want []rune) (int, bool) {
	n := 0
	for _, w := range want {
		r, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 || unicode.ToLower(r) != w {
			return 0, false
		}
		n += size
	}
	return n, true
}

func checkWhitelist(expr string) error {
	for _, r := range expr {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == '(' || r == ')':
		case r == '+' || r == '-' || r == '*' || r == '/':
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
		default:
			return fmt.Errorf("formula contains unresolved or invalid character %q", r)
		}
	}
	return nil
}

// parse evaluates a whitelisted expression with standard operator
// precedence via recursive descent.
func parse(expr string) (float64, error) {
	p := &parser{input: expr}
	result, err := p.expression()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected %q at position %d", p.input[p.pos], p.pos)
	}
	return result, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) expression() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op, ok := p.peek()
		if !ok || (op != '+' && op != '-') {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) term() (float64, error) {
	left, err := p.factor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		op, ok := p.peek()
		if !ok || (op != '*' && op != '/') {
			return left, nil
		}
		p.pos++
		right, err := p.factor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
			continue
		}
		if right == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		left /= right
	}
}

func (p *parser) factor() (float64, error) {
	p.skipSpace()
	ch, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of formula")
	}

	switch ch {
	case '+':
		p.pos++
		return p.factor()
	case '-':
		p.pos++
		v, err := p.factor()
		return -v, err
	case '(':
		p.pos++
		v, err := p.expression()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if next, ok := p.peek(); !ok || next != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}

	return p.number()
}

func (p *parser) number() (float64, error) {
	start := p.pos
	seenDigit := false
	seenDot := false
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		if ch >= '0' && ch <= '9' {
			seenDigit = true
			p.pos++
			continue
		}
		if ch == '.' && !seenDot {
			seenDot = true
			p.pos++
			continue
		}
		break
	}
	if !seenDigit {
		return 0, fmt.Errorf("expected number at position %d", start)
	}

	value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", p.input[start:p.pos], err)
	}
	return value, nil
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}
