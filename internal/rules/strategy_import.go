package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/codewithboateng/archlint/internal/ir"
	"github.com/codewithboateng/archlint/internal/patterns"
)

// ImportCheck hits every import whose name resolves to a forbidden category.
type ImportCheck struct {
	Categories []ir.Category
}

func (c ImportCheck) Kind() Kind { return KindImport }

func (c ImportCheck) Describe() string {
	return string(KindImport) + "(" + joinCategories(c.Categories) + ")"
}

func (c ImportCheck) Check(v SourceView, pc *patterns.Catalog) ([]Hit, error) {
	var (
		out  []Hit
		errs []error
	)
	for _, imp := range v.Imports() {
		if err := patterns.ValidateFQN(imp.Name); err != nil {
			errs = append(errs, fmt.Errorf("import at line %d: %w", imp.Line, err))
			continue
		}
		if cat, ok := firstMatch(pc, strings.TrimSpace(imp.Name), c.Categories); ok {
			out = append(out, Hit{
				Site:     SiteImport,
				Line:     imp.Line,
				Evidence: strings.TrimSpace(imp.Name),
				Detail:   string(cat),
			})
		}
	}
	return out, errors.Join(errs...)
}

func firstMatch(pc *patterns.Catalog, fqn string, cats []ir.Category) (ir.Category, bool) {
	for _, cat := range cats {
		if pc.Matches(fqn, cat) {
			return cat, true
		}
	}
	return "", false
}

func joinCategories(cats []ir.Category) string {
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}
