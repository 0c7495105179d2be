package rules

import (
	"sort"
	"strings"

	"github.com/codewithboateng/archlint/internal/patterns"
)

// AnnotationCheck hits every type, field or method annotation in Names.
type AnnotationCheck struct {
	Names []string
}

func (c AnnotationCheck) Kind() Kind { return KindAnnotation }

func (c AnnotationCheck) Describe() string {
	ns := append([]string(nil), c.Names...)
	sort.Strings(ns)
	return string(KindAnnotation) + "(" + strings.Join(ns, ",") + ")"
}

func (c AnnotationCheck) Check(v SourceView, _ *patterns.Catalog) ([]Hit, error) {
	want := make(map[string]struct{}, len(c.Names))
	for _, n := range c.Names {
		want[annotationName(n)] = struct{}{}
	}
	var out []Hit
	for _, a := range v.Annotations() {
		name := annotationName(a.Name)
		if _, ok := want[name]; ok {
			out = append(out, Hit{Site: SiteAnnotation, Line: a.Line, Evidence: "@" + name, Owner: a.Owner})
		}
	}
	return out, nil
}
