package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var bareName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Formula is a regression specification "target ~ t1 + t2 + ...".
type Formula struct {
	Target string
	Terms  []string
}

// BuildFormula constructs the model formula for target against features, in
// feature order. Callers gate on a non-empty selection; an empty one is an
// *EmptySelectionError rather than a formula with no right-hand side.
func BuildFormula(target string, features []string) (Formula, error) {
	if len(features) == 0 {
		return Formula{}, &EmptySelectionError{What: "features"}
	}
	terms := make([]string, len(features))
	copy(terms, features)
	return Formula{Target: target, Terms: terms}, nil
}

// String renders the formula, quoting names that are not bare identifiers.
func (f Formula) String() string {
	var b strings.Builder
	b.WriteString(QuoteName(f.Target))
	b.WriteString(" ~ ")
	for i, t := range f.Terms {
		if i > 0 {
			b.WriteString(" + ")
		}
		b.WriteString(QuoteName(t))
	}
	return b.String()
}

// QuoteName returns name bare if it only holds letters, digits and underscores
// (not starting with a digit), and as Q('name') otherwise.
func QuoteName(name string) string {
	if bareName.MatchString(name) {
		return name
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "Q('" + r.Replace(name) + "')"
}

// ParseFormula splits a rendered formula back into its target and terms.
func ParseFormula(s string) (Formula, error) {
	sides, err := splitTop(s, '~')
	if err != nil {
		return Formula{}, err
	}
	if len(sides) != 2 {
		return Formula{}, fmt.Errorf("parse formula %q: expected exactly one '~'", s)
	}
	target, err := unquoteTerm(sides[0])
	if err != nil {
		return Formula{}, fmt.Errorf("parse formula %q: %w", s, err)
	}
	parts, err := splitTop(sides[1], '+')
	if err != nil {
		return Formula{}, err
	}
	f := Formula{Target: target}
	for _, p := range parts {
		t, err := unquoteTerm(p)
		if err != nil {
			return Formula{}, fmt.Errorf("parse formula %q: %w", s, err)
		}
		f.Terms = append(f.Terms, t)
	}
	return f, nil
}

// splitTop splits on sep outside quoted literals.
func splitTop(s string, sep byte) ([]string, error) {
	var out []string
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
		case c == '\'' || c == '"':
			quote = c
		case c == sep:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("parse formula %q: unterminated quote", s)
	}
	return append(out, s[start:]), nil
}

func unquoteTerm(raw string) (string, error) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return "", errors.New("empty term")
	}
	if !strings.HasPrefix(t, "Q(") {
		if !bareName.MatchString(t) {
			return "", fmt.Errorf("term %q must be quoted as Q('...')", t)
		}
		return t, nil
	}
	if !strings.HasSuffix(t, ")") {
		return "", fmt.Errorf("term %q: missing ')'", t)
	}
	lit := strings.TrimSpace(t[2 : len(t)-1])
	if len(lit) < 2 || (lit[0] != '\'' && lit[0] != '"') || lit[len(lit)-1] != lit[0] {
		return "", fmt.Errorf("term %q: Q() takes a quoted name", t)
	}
	body := lit[1 : len(lit)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String(), nil
}
