package rules

import (
	"regexp"
	"strings"

	"github.com/codewithboateng/archlint/internal/patterns"
)

// ContentCheck hits string literals matching any of its patterns.
type ContentCheck struct {
	Patterns []*regexp.Regexp
}

func (c ContentCheck) Kind() Kind { return KindContent }

func (c ContentCheck) Describe() string {
	ps := make([]string, len(c.Patterns))
	for i, p := range c.Patterns {
		ps[i] = p.String()
	}
	return string(KindContent) + "(" + strings.Join(ps, "|") + ")"
}

func (c ContentCheck) Check(v SourceView, _ *patterns.Catalog) ([]Hit, error) {
	var out []Hit
	for _, lit := range v.Literals() {
		for _, re := range c.Patterns {
			if re.MatchString(lit.Value) {
				out = append(out, Hit{Site: SiteLiteral, Line: lit.Line, Evidence: snippet(lit.Value)})
				break
			}
		}
	}
	return out, nil
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
