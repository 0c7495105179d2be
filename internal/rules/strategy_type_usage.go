package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/codewithboateng/archlint/internal/ir"
	"github.com/codewithboateng/archlint/internal/patterns"
)

// TypeUsageCheck hits declared types at the configured sites that resolve to
// a forbidden category. Generic arguments and arrays are unwrapped and simple
// names are qualified through the unit's imports.
type TypeUsageCheck struct {
	Categories []ir.Category
	Sites      []Site
}

func (c TypeUsageCheck) Kind() Kind { return KindTypeUsage }

func (c TypeUsageCheck) Describe() string {
	sites := make([]string, len(c.Sites))
	for i, s := range c.Sites {
		sites[i] = string(s)
	}
	return string(KindTypeUsage) + "(" + joinCategories(c.Categories) + ";" + strings.Join(sites, ",") + ")"
}

func (c TypeUsageCheck) has(s Site) bool {
	for _, x := range c.Sites {
		if x == s {
			return true
		}
	}
	return false
}

func (c TypeUsageCheck) Check(v SourceView, pc *patterns.Catalog) ([]Hit, error) {
	var (
		out  []Hit
		errs []error
	)
	visit := func(site Site, expr string, line int, owner string, optional bool) {
		if optional && (strings.TrimSpace(expr) == "" || strings.TrimSpace(expr) == "void") {
			return
		}
		names, err := patterns.TypeNames(expr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s at line %d: %w", site, owner, line, err))
			return
		}
		for _, n := range names {
			fqn := v.Qualify(n)
			if cat, ok := firstMatch(pc, fqn, c.Categories); ok {
				out = append(out, Hit{Site: site, Line: line, Evidence: fqn, Owner: owner, Detail: string(cat)})
			}
		}
	}

	if c.has(SiteField) {
		for _, f := range v.Fields() {
			visit(SiteField, f.Type, f.Line, f.Owner+"."+f.Name, false)
		}
	}
	for _, m := range v.Methods() {
		owner := m.Owner + "." + m.Name
		if c.has(SiteReturn) {
			visit(SiteReturn, m.ReturnType, m.Line, owner, true)
		}
		if c.has(SiteParam) {
			for _, p := range m.Params {
				line := p.Line
				if line == 0 {
					line = m.Line
				}
				visit(SiteParam, p.Type, line, owner+"("+p.Name+")", false)
			}
		}
		if c.has(SiteConstruction) {
			for _, t := range m.Instantiations {
				visit(SiteConstruction, t.Type, t.Line, owner, false)
			}
		}
		if c.has(SiteLocal) {
			for _, t := range m.Locals {
				visit(SiteLocal, t.Type, t.Line, owner, false)
			}
		}
	}
	return out, errors.Join(errs...)
}
