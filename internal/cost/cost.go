// Package cost estimates the remediation effort of architecture issues.
package cost

import "github.com/codewithboateng/archlint/internal/ir"

// base minutes by severity
var baseMinutes = map[ir.Severity]int{
	ir.SeverityMajor:    10,
	ir.SeverityCritical: 30,
}

// siteFactor scales effort by where the offending element sits. Moving a
// field or signature type ripples through callers; an import is cheap.
var siteFactor = map[string]float64{
	"import":       0.5,
	"annotation":   0.5,
	"field":        1.0,
	"local":        1.0,
	"construction": 1.0,
	"literal":      1.5,
	"param":        1.5,
	"return":       1.5,
	"method":       2.0,
}

// EffortMinutes applies a simple heuristic: base minutes for the severity
// scaled by the site factor, never below one minute.
func EffortMinutes(sev ir.Severity, site string) int {
	base, ok := baseMinutes[sev]
	if !ok {
		base = baseMinutes[ir.SeverityMajor]
	}
	f, ok := siteFactor[site]
	if !ok {
		f = 1.0
	}
	m := int(float64(base)*f + 0.5)
	if m < 1 {
		m = 1
	}
	return m
}
