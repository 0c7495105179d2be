package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/archlint/internal/ir"
)

func TestEffortMinutes(t *testing.T) {
	assert.Equal(t, 5, EffortMinutes(ir.SeverityMajor, "import"))
	assert.Equal(t, 45, EffortMinutes(ir.SeverityCritical, "return"))
	assert.Equal(t, 20, EffortMinutes(ir.SeverityMajor, "method"))
	assert.Equal(t, 10, EffortMinutes("BOGUS", "nowhere"))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]ir.Issue{
		{RuleID: "A", Severity: ir.SeverityMajor, Effort: 5},
		{RuleID: "B", Severity: ir.SeverityCritical, Effort: 30},
		{RuleID: "A", Severity: ir.SeverityMajor, Effort: 10},
	})
	assert.Equal(t, 45, s.TotalMinutes)
	assert.Equal(t, 15, s.BySeverity["MAJOR"])
	require.Len(t, s.ByRule, 2)
	assert.Equal(t, "B", s.ByRule[0].RuleID)
	assert.Equal(t, RuleEffort{RuleID: "A", Issues: 2, Minutes: 15}, s.ByRule[1])
}
