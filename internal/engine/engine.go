// Package engine runs a rule catalog over a batch of source units.
//
// Each unit is classified, matched against the rules for its layer and
// reported independently of every other unit, so units are evaluated on a
// bounded worker pool and merged in a final sort.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codewithboateng/archlint/internal/ir"
	"github.com/codewithboateng/archlint/internal/patterns"
	"github.com/codewithboateng/archlint/internal/rules"
)

// Observer receives evaluation events. Implementations must be safe for
// concurrent use.
type Observer interface {
	UnitEvaluated(layer ir.Layer, d time.Duration)
	IssueRecorded(ruleID string, sev ir.Severity)
	AnalysisFailed(kind ir.ErrorKind)
	BatchDone(d time.Duration, cancelled bool)
}

type Options struct {
	// Workers bounds parallel unit evaluation. Zero means runtime.NumCPU().
	Workers  int
	Logger   *slog.Logger
	Observer Observer
}

type Engine struct {
	rules    *rules.Catalog
	patterns *patterns.Catalog
	workers  int
	log      *slog.Logger
	obs      Observer
}

// Result is the merged outcome of a batch. Issues and Errors are sorted.
type Result struct {
	Issues    []ir.Issue
	Errors    []ir.AnalysisError
	Units     []ir.UnitSummary
	Cancelled bool
}

// UnitResult is the outcome for a single unit.
type UnitResult struct {
	Path   string
	Layer  ir.Layer
	Issues []ir.Issue
	Errors []ir.AnalysisError
}

// New builds an engine over immutable catalogs.
func New(rc *rules.Catalog, pc *patterns.Catalog, opts Options) (*Engine, error) {
	if rc == nil {
		return nil, fmt.Errorf("%w: nil rule catalog", rules.ErrConfig)
	}
	if pc == nil {
		return nil, fmt.Errorf("%w: nil pattern catalog", rules.ErrConfig)
	}
	w := opts.Workers
	if w <= 0 {
		w = runtime.NumCPU()
	}
	lg := opts.Logger
	if lg == nil {
		lg = slog.New(slog.DiscardHandler)
	}
	return &Engine{rules: rc, patterns: pc, workers: w, log: lg, obs: opts.Observer}, nil
}

// Workers is the effective worker count.
func (e *Engine) Workers() int { return e.workers }

// Analyze evaluates units on a bounded pool. If ctx is cancelled before all
// units are evaluated, the partial result is returned with Cancelled set
// together with ctx.Err().
func (e *Engine) Analyze(ctx context.Context, units []ir.SourceUnit) (Result, error) {
	start := time.Now()
	slots := make([]*UnitResult, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range units {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			ur := e.EvaluateUnit(&units[i])
			slots[i] = &ur
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for _, s := range slots {
		if s == nil {
			res.Cancelled = true
			continue
		}
		res.Units = append(res.Units, ir.UnitSummary{Path: s.Path, Layer: s.Layer})
		res.Issues = append(res.Issues, s.Issues...)
		res.Errors = append(res.Errors, s.Errors...)
	}
	rules.SortIssues(res.Issues)
	SortErrors(res.Errors)
	sort.SliceStable(res.Units, func(i, j int) bool { return res.Units[i].Path < res.Units[j].Path })

	if e.obs != nil {
		e.obs.BatchDone(time.Since(start), res.Cancelled)
	}
	e.log.Info("analysis complete",
		"units", len(res.Units),
		"issues", len(res.Issues),
		"errors", len(res.Errors),
		"cancelled", res.Cancelled,
		"duration", time.Since(start).String(),
	)
	if res.Cancelled {
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		return res, err
	}
	return res, nil
}

// EvaluateUnit classifies u and runs every applicable rule against it. It
// never panics and never returns an error: failures become AnalysisErrors.
func (e *Engine) EvaluateUnit(u *ir.SourceUnit) (out UnitResult) {
	start := time.Now()
	out.Path = u.Path
	out.Layer = ir.LayerUnclassified
	defer func() {
		if r := recover(); r != nil {
			out.Issues = nil
			out.Errors = append(out.Errors, e.failure(u.Path, "", ir.ErrorEvaluation, fmt.Errorf("panic: %v", r)))
		}
		if e.obs != nil {
			e.obs.UnitEvaluated(out.Layer, time.Since(start))
		}
	}()

	out.Layer = e.patterns.Classify(u.Path, u.Package)
	if u.ExtractionError != "" {
		out.Errors = append(out.Errors, e.failure(u.Path, "", ir.ErrorExtraction, errors.New(u.ExtractionError)))
		return out
	}
	if out.Layer == ir.LayerUnclassified {
		return out
	}

	view := rules.NewView(u)
	rep := rules.NewReporter(u.Path, out.Layer)
	for _, d := range e.rules.Select(out.Layer, view) {
		if err := e.evalRule(d, view, rep); err != nil {
			out.Errors = append(out.Errors, e.failure(u.Path, d.ID, ir.ErrorEvaluation, err))
		}
	}
	out.Issues = rep.Issues()
	if e.obs != nil {
		for _, is := range out.Issues {
			e.obs.IssueRecorded(is.RuleID, is.Severity)
		}
	}
	SortErrors(out.Errors)
	return out
}

// evalRule runs every strategy of d. Hits found before a strategy error are
// still recorded; a panic discards nothing already recorded.
func (e *Engine) evalRule(d *rules.Definition, v rules.SourceView, rep *rules.Reporter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	var errs []error
	for _, st := range d.Strategies {
		hits, serr := st.Check(v, e.patterns)
		for _, h := range hits {
			rep.Record(d, h)
		}
		if serr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.Kind(), serr))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) failure(file, ruleID string, kind ir.ErrorKind, err error) ir.AnalysisError {
	e.log.Warn("unit evaluation failed", "file", file, "rule", ruleID, "kind", string(kind), "err", err)
	if e.obs != nil {
		e.obs.AnalysisFailed(kind)
	}
	return ir.AnalysisError{File: file, RuleID: ruleID, Kind: kind, Message: err.Error()}
}

// SortErrors orders errors by file, rule id, kind and message.
func SortErrors(in []ir.AnalysisError) {
	sort.SliceStable(in, func(i, j int) bool {
		a, b := in[i], in[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Message < b.Message
	})
}
