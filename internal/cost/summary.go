package cost

import (
	"sort"

	"github.com/codewithboateng/archlint/internal/ir"
)

// Summary totals effort across a set of issues.
type Summary struct {
	TotalMinutes int            `json:"total_minutes"`
	BySeverity   map[string]int `json:"by_severity"`
	ByRule       []RuleEffort   `json:"by_rule"`
}

type RuleEffort struct {
	RuleID  string `json:"rule_id"`
	Issues  int    `json:"issues"`
	Minutes int    `json:"minutes"`
}

// Summarize groups effort by severity and rule. ByRule is ordered by
// minutes descending, then rule id.
func Summarize(issues []ir.Issue) Summary {
	s := Summary{BySeverity: map[string]int{}}
	byRule := map[string]*RuleEffort{}
	for _, is := range issues {
		s.TotalMinutes += is.Effort
		s.BySeverity[string(is.Severity)] += is.Effort
		re, ok := byRule[is.RuleID]
		if !ok {
			re = &RuleEffort{RuleID: is.RuleID}
			byRule[is.RuleID] = re
		}
		re.Issues++
		re.Minutes += is.Effort
	}
	for _, re := range byRule {
		s.ByRule = append(s.ByRule, *re)
	}
	sort.Slice(s.ByRule, func(i, j int) bool {
		if s.ByRule[i].Minutes != s.ByRule[j].Minutes {
			return s.ByRule[i].Minutes > s.ByRule[j].Minutes
		}
		return s.ByRule[i].RuleID < s.ByRule[j].RuleID
	})
	return s
}
