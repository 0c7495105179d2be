package rules

import (
	"errors"

	"github.com/codewithboateng/archlint/internal/ir"
	"github.com/codewithboateng/archlint/internal/patterns"
)

// ErrConfig marks a malformed rule catalog. It is fatal for a batch.
var ErrConfig = errors.New("invalid rule configuration")

// Kind names a detection strategy.
type Kind string

const (
	KindImport         Kind = "import"
	KindTypeUsage      Kind = "type_usage"
	KindAnnotation     Kind = "annotation"
	KindContent        Kind = "content"
	KindStatementCount Kind = "statement_count"
)

// Site is where in a unit a hit was found.
type Site string

const (
	SiteImport       Site = "import"
	SiteField        Site = "field"
	SiteReturn       Site = "return"
	SiteParam        Site = "param"
	SiteConstruction Site = "construction"
	SiteLocal        Site = "local"
	SiteAnnotation   Site = "annotation"
	SiteLiteral      Site = "literal"
	SiteMethod       Site = "method"
)

// TypeSites are the sites a type_usage check may inspect.
var TypeSites = []Site{SiteField, SiteReturn, SiteParam, SiteConstruction, SiteLocal}

// Hit is one offending element found by a strategy.
type Hit struct {
	Site     Site
	Line     int
	Evidence string
	Owner    string
	Detail   string
}

// Strategy inspects a unit and returns what it found. A non-nil error
// reports malformed facts; hits found alongside it are still valid.
type Strategy interface {
	Kind() Kind
	Check(v SourceView, pc *patterns.Catalog) ([]Hit, error)
	// Describe is a stable text form used for catalog fingerprints.
	Describe() string
}

// Definition is one rule: a layer predicate bound to strategies and a
// message template. Templates may use {evidence}, {owner}, {site}, {detail},
// {layer} and {file}.
type Definition struct {
	ID            string
	Aliases       []string
	Summary       string
	Severity      ir.Severity
	Layers        []ir.Layer
	AnnotatedWith []string
	Strategies    []Strategy
	Message       string
	ReportAll     bool
	Enabled       bool
}

// AppliesTo reports whether the rule is selected for a unit in layer l.
func (d *Definition) AppliesTo(l ir.Layer, v SourceView) bool {
	found := false
	for _, dl := range d.Layers {
		if dl == l {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if len(d.AnnotatedWith) == 0 {
		return true
	}
	for _, tn := range v.TypeAnnotations() {
		for _, want := range d.AnnotatedWith {
			if annotationName(tn.Name) == annotationName(want) {
				return true
			}
		}
	}
	return false
}
