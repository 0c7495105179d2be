package rules

import (
	"strings"

	"github.com/codewithboateng/archlint/internal/ir"
	"github.com/codewithboateng/archlint/internal/patterns"
)

// FieldRef is a field together with its declaring type.
type FieldRef struct {
	Owner string
	ir.Field
}

// MethodRef is a method together with its declaring type.
type MethodRef struct {
	Owner string
	ir.Method
}

// AnnotationRef is an annotation and the element carrying it.
type AnnotationRef struct {
	Owner string
	Name  string
	Line  int
}

// SourceView is the flat query surface strategies run against. Parsers adapt
// their own trees into ir.SourceUnit; strategies never see node types.
type SourceView interface {
	Path() string
	Package() string
	Imports() []ir.Import
	Fields() []FieldRef
	Methods() []MethodRef
	Literals() []ir.Literal
	Annotations() []AnnotationRef
	TypeAnnotations() []AnnotationRef
	// Qualify expands a simple type name through the unit's imports.
	Qualify(name string) string
}

type unitView struct {
	u       *ir.SourceUnit
	imports map[string]string
	fields  []FieldRef
	methods []MethodRef
	annos   []AnnotationRef
	tannos  []AnnotationRef
}

// NewView flattens a unit for strategy evaluation.
func NewView(u *ir.SourceUnit) SourceView {
	v := &unitView{u: u, imports: map[string]string{}}
	for _, imp := range u.Imports {
		pkg, simple := patterns.SplitQualified(imp.Name)
		if simple == "" || len(pkg) == 0 {
			continue
		}
		if _, dup := v.imports[simple]; !dup {
			v.imports[simple] = strings.Join(append(append([]string(nil), pkg...), simple), ".")
		}
	}
	for _, t := range u.Types {
		for _, a := range t.Annotations {
			ref := AnnotationRef{Owner: t.Name, Name: a.Name, Line: a.Line}
			v.annos = append(v.annos, ref)
			v.tannos = append(v.tannos, ref)
		}
		for _, f := range t.Fields {
			v.fields = append(v.fields, FieldRef{Owner: t.Name, Field: f})
			for _, a := range f.Annotations {
				v.annos = append(v.annos, AnnotationRef{Owner: t.Name + "." + f.Name, Name: a.Name, Line: a.Line})
			}
		}
		for _, m := range t.Methods {
			v.methods = append(v.methods, MethodRef{Owner: t.Name, Method: m})
			for _, a := range m.Annotations {
				v.annos = append(v.annos, AnnotationRef{Owner: t.Name + "." + m.Name, Name: a.Name, Line: a.Line})
			}
		}
	}
	return v
}

func (v *unitView) Path() string                     { return v.u.Path }
func (v *unitView) Package() string                  { return v.u.Package }
func (v *unitView) Imports() []ir.Import             { return v.u.Imports }
func (v *unitView) Fields() []FieldRef               { return v.fields }
func (v *unitView) Methods() []MethodRef             { return v.methods }
func (v *unitView) Literals() []ir.Literal           { return v.u.Literals }
func (v *unitView) Annotations() []AnnotationRef     { return v.annos }
func (v *unitView) TypeAnnotations() []AnnotationRef { return v.tannos }

func (v *unitView) Qualify(name string) string {
	n := strings.TrimSpace(name)
	if strings.Contains(n, ".") {
		return n
	}
	if fqn, ok := v.imports[n]; ok {
		return fqn
	}
	return n
}

// annotationName reduces "@org.springframework.stereotype.Service" to "Service".
func annotationName(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "@")
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return s
}
