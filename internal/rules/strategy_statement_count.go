package rules

import (
	"sort"
	"strconv"
	"strings"

	"github.com/codewithboateng/archlint/internal/ir"
	"github.com/codewithboateng/archlint/internal/patterns"
)

// DefaultMeaningfulKinds are the statements counted by StatementCountCheck
// when no kinds are configured.
var DefaultMeaningfulKinds = []ir.StatementKind{
	ir.StmtAssignment, ir.StmtCall, ir.StmtConditional, ir.StmtLoop, ir.StmtTry, ir.StmtReturn, ir.StmtDeclaration,
}

// StatementCountCheck hits methods with more than Threshold meaningful
// statements in their body.
type StatementCountCheck struct {
	Threshold int
	Kinds     []ir.StatementKind
}

func (c StatementCountCheck) Kind() Kind { return KindStatementCount }

func (c StatementCountCheck) Describe() string {
	ks := make([]string, 0, len(c.kinds()))
	for _, k := range c.kinds() {
		ks = append(ks, string(k))
	}
	sort.Strings(ks)
	return string(KindStatementCount) + "(" + strconv.Itoa(c.Threshold) + ";" + strings.Join(ks, ",") + ")"
}

func (c StatementCountCheck) kinds() []ir.StatementKind {
	if len(c.Kinds) == 0 {
		return DefaultMeaningfulKinds
	}
	return c.Kinds
}

func (c StatementCountCheck) Check(v SourceView, _ *patterns.Catalog) ([]Hit, error) {
	counted := map[ir.StatementKind]bool{}
	for _, k := range c.kinds() {
		counted[k] = true
	}
	var out []Hit
	for _, m := range v.Methods() {
		n := 0
		for _, st := range m.Statements {
			if counted[ir.StatementKind(strings.ToLower(string(st)))] {
				n++
			}
		}
		if n > c.Threshold {
			out = append(out, Hit{
				Site:     SiteMethod,
				Line:     m.Line,
				Evidence: m.Owner + "." + m.Name,
				Owner:    m.Owner + "." + m.Name,
				Detail:   strconv.Itoa(n),
			})
		}
	}
	return out, nil
}
