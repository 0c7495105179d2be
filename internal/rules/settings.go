package rules

import (
	"strings"

	"github.com/codewithboateng/archlint/internal/ir"
)

// Settings narrows which rules of a catalog are active.
type Settings struct {
	SeverityThreshold string
	Disabled          map[string]bool
}

func severityRank(sev string) int {
	switch strings.ToUpper(strings.TrimSpace(sev)) {
	case string(ir.SeverityCritical):
		return 2
	case string(ir.SeverityMajor):
		return 1
	default:
		return 0
	}
}

// ValidSeverity reports whether sev is a known severity.
func ValidSeverity(sev string) bool { return severityRank(sev) > 0 }

// SeverityAtLeast reports whether sev meets min. An empty min admits all.
func SeverityAtLeast(sev, min string) bool {
	if strings.TrimSpace(min) == "" {
		return true
	}
	return severityRank(sev) >= severityRank(min)
}
