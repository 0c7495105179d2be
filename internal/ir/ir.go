package ir

import "time"

const Version = "1.0"

type Layer string

const (
	LayerExposition   Layer = "EXPOSITION"
	LayerService      Layer = "SERVICE"
	LayerDomain       Layer = "DOMAIN"
	LayerRepository   Layer = "REPOSITORY"
	LayerUnclassified Layer = "UNCLASSIFIED"
)

// LayerPriority is the tie-break order used when a unit matches several layers.
var LayerPriority = []Layer{LayerExposition, LayerService, LayerDomain, LayerRepository}

type Category string

const (
	CategoryDomain         Category = "domain-model"
	CategoryRepository     Category = "repository"
	CategoryPresentation   Category = "presentation"
	CategoryService        Category = "service"
	CategoryDTO            Category = "dto"
	CategoryPersistenceAPI Category = "persistence-api"
	CategoryInfrastructure Category = "infrastructure"
	CategoryFramework      Category = "framework"
)

type Severity string

const (
	SeverityMajor    Severity = "MAJOR"
	SeverityCritical Severity = "CRITICAL"
)

// StatementKind is the coarse kind of a top-level statement in a method body.
type StatementKind string

const (
	StmtAssignment  StatementKind = "assignment"
	StmtCall        StatementKind = "call"
	StmtConditional StatementKind = "conditional"
	StmtLoop        StatementKind = "loop"
	StmtTry         StatementKind = "try"
	StmtReturn      StatementKind = "return"
	StmtDeclaration StatementKind = "declaration"
	StmtThrow       StatementKind = "throw"
	StmtOther       StatementKind = "other"
)

// SourceUnit holds the structural facts of one source file. The parser owns
// it; the engine only reads it.
type SourceUnit struct {
	Path            string     `json:"path" yaml:"path"`
	Package         string     `json:"package,omitempty" yaml:"package"`
	Imports         []Import   `json:"imports,omitempty" yaml:"imports"`
	Types           []TypeDecl `json:"types,omitempty" yaml:"types"`
	Literals        []Literal  `json:"literals,omitempty" yaml:"literals"`
	ExtractionError string     `json:"extraction_error,omitempty" yaml:"extraction_error"`
}

type Import struct {
	Name string `json:"name" yaml:"name"`
	Line int    `json:"line,omitempty" yaml:"line"`
}

type Annotation struct {
	Name string `json:"name" yaml:"name"`
	Line int    `json:"line,omitempty" yaml:"line"`
}

type TypeDecl struct {
	Name        string       `json:"name" yaml:"name"`
	Line        int          `json:"line,omitempty" yaml:"line"`
	Annotations []Annotation `json:"annotations,omitempty" yaml:"annotations"`
	Fields      []Field      `json:"fields,omitempty" yaml:"fields"`
	Methods     []Method     `json:"methods,omitempty" yaml:"methods"`
}

type Field struct {
	Name        string       `json:"name" yaml:"name"`
	Type        string       `json:"type" yaml:"type"`
	Line        int          `json:"line,omitempty" yaml:"line"`
	Annotations []Annotation `json:"annotations,omitempty" yaml:"annotations"`
}

type Method struct {
	Name           string          `json:"name" yaml:"name"`
	Line           int             `json:"line,omitempty" yaml:"line"`
	ReturnType     string          `json:"return_type,omitempty" yaml:"return_type"`
	Params         []Param         `json:"params,omitempty" yaml:"params"`
	Annotations    []Annotation    `json:"annotations,omitempty" yaml:"annotations"`
	Statements     []StatementKind `json:"statements,omitempty" yaml:"statements"`
	Instantiations []TypeRef       `json:"instantiations,omitempty" yaml:"instantiations"`
	Locals         []TypeRef       `json:"locals,omitempty" yaml:"locals"`
}

type Param struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	Line int    `json:"line,omitempty" yaml:"line"`
}

// TypeRef is a type mentioned inside a method body (construction or local).
type TypeRef struct {
	Type string `json:"type" yaml:"type"`
	Line int    `json:"line,omitempty" yaml:"line"`
}

type Literal struct {
	Value string `json:"value" yaml:"value"`
	Line  int    `json:"line,omitempty" yaml:"line"`
}

// Issue is one reported violation. Line 0 means the issue is file level.
type Issue struct {
	ID       string   `json:"id"`
	RuleID   string   `json:"rule_id"`
	File     string   `json:"file"`
	Line     int      `json:"line,omitempty"`
	Severity Severity `json:"severity"`
	Layer    Layer    `json:"layer,omitempty"`
	Message  string   `json:"message"`
	Evidence string   `json:"evidence,omitempty"`
	Effort   int      `json:"effort_minutes,omitempty"`
}

type ErrorKind string

const (
	ErrorExtraction ErrorKind = "EXTRACTION"
	ErrorEvaluation ErrorKind = "EVALUATION"
)

// AnalysisError is a failure scoped to one unit (and optionally one rule).
type AnalysisError struct {
	File    string    `json:"file"`
	RuleID  string    `json:"rule_id,omitempty"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

type UnitSummary struct {
	Path  string `json:"path"`
	Layer Layer  `json:"layer"`
}

type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source,omitempty"`
	IRVersion string    `json:"ir_version,omitempty"`

	Context   Context         `json:"context"`
	Units     []UnitSummary   `json:"units"`
	Issues    []Issue         `json:"issues,omitempty"`
	Errors    []AnalysisError `json:"errors,omitempty"`
	Waived    int             `json:"waived,omitempty"`
	Cancelled bool            `json:"cancelled,omitempty"`
}

type Context struct {
	CatalogFingerprint string   `json:"catalog_fingerprint,omitempty"`
	SeverityThreshold  string   `json:"severity_threshold,omitempty"`
	DisabledRules      []string `json:"disabled_rules,omitempty"`
	Workers            int      `json:"workers,omitempty"`
	EffortMinutes      int      `json:"effort_minutes,omitempty"`
}
