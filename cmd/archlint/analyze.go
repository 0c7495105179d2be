package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewithboateng/archlint/internal/cost"
	"github.com/codewithboateng/archlint/internal/engine"
	"github.com/codewithboateng/archlint/internal/ir"
	"github.com/codewithboateng/archlint/internal/metrics"
	"github.com/codewithboateng/archlint/internal/parser"
	"github.com/codewithboateng/archlint/internal/reporting"
	"github.com/codewithboateng/archlint/internal/rules"
	"github.com/codewithboateng/archlint/internal/rulesdsl"
	"github.com/codewithboateng/archlint/internal/shared"
	"github.com/codewithboateng/archlint/internal/storage"
)

type analyzeResult struct {
	Run      ir.Run
	JSONPath string
	HTMLPath string
}

func settingsFrom(cfg shared.Config) rules.Settings {
	return rules.Settings{
		SeverityThreshold: strings.ToUpper(strings.TrimSpace(cfg.Rules.SeverityThreshold)),
		Disabled:          cfg.DisabledSet(),
	}
}

// analyze runs one batch end to end: load facts, build catalogs, evaluate,
// apply waivers, persist and write reports. A cancelled batch is still
// stored and reported; the returned error is then the context error and the
// result is non-nil.
func analyze(ctx context.Context, cfg shared.Config, logger *slog.Logger, reg prometheus.Registerer) (*analyzeResult, error) {
	rc, pc, err := rulesdsl.Load(cfg.Rules.Pack, settingsFrom(cfg))
	if err != nil {
		return nil, err
	}

	var units []ir.SourceUnit
	for _, src := range cfg.Analysis.Sources {
		us, diags, err := parser.Parse(src)
		if err != nil {
			return nil, err
		}
		if len(diags.Warnings) > 0 {
			logger.Warn("parse warnings", "source", src, "warnings", diags.Warnings)
		}
		units = append(units, us...)
	}
	sort.SliceStable(units, func(i, j int) bool { return units[i].Path < units[j].Path })

	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	eng, err := engine.New(rc, pc, engine.Options{Workers: cfg.Analysis.Workers, Logger: logger, Observer: m})
	if err != nil {
		return nil, err
	}

	started := time.Now().UTC()
	res, aerr := eng.Analyze(ctx, units)
	if aerr != nil && !res.Cancelled {
		return nil, aerr
	}

	db, err := storage.OpenSQLite(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	if err := db.CreateSchema(); err != nil {
		return nil, fmt.Errorf("db schema: %w", err)
	}

	waivers, err := db.ListWaivers(true)
	if err != nil {
		return nil, fmt.Errorf("load waivers: %w", err)
	}
	issues, waived := rc.ApplyWaivers(res.Issues, waivers, time.Now())

	disabled := make([]string, 0, len(cfg.Rules.Disabled))
	for _, d := range cfg.Rules.Disabled {
		if d = strings.TrimSpace(d); d != "" {
			disabled = append(disabled, d)
		}
	}
	sort.Strings(disabled)

	run := ir.Run{
		ID:        uuid.NewString(),
		StartedAt: started,
		Source:    strings.Join(cfg.Analysis.Sources, ","),
		IRVersion: ir.Version,
		Context: ir.Context{
			CatalogFingerprint: rc.Fingerprint(),
			SeverityThreshold:  rc.Settings().SeverityThreshold,
			DisabledRules:      disabled,
			Workers:            eng.Workers(),
			EffortMinutes:      cost.Summarize(issues).TotalMinutes,
		},
		Units:     res.Units,
		Issues:    issues,
		Errors:    res.Errors,
		Waived:    waived,
		Cancelled: res.Cancelled,
	}
	if err := db.SaveRun(&run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	out := &analyzeResult{Run: run}
	if out.JSONPath, err = reporting.WriteJSON(run.ID, cfg.Reporting.OutDir, &run); err != nil {
		return nil, fmt.Errorf("json report: %w", err)
	}
	if out.HTMLPath, err = reporting.WriteHTML(run.ID, cfg.Reporting.OutDir, &run); err != nil {
		return nil, fmt.Errorf("html report: %w", err)
	}
	logger.Info("analyze complete",
		"run", run.ID,
		"units", len(run.Units),
		"issues", len(run.Issues),
		"waived", run.Waived,
		"errors", len(run.Errors),
		"json", out.JSONPath,
		"html", out.HTMLPath,
	)
	return out, aerr
}
