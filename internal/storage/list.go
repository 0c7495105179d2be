package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/codewithboateng/archlint/internal/ir"
)

// ListRuns returns a lightweight list of runs with counts, newest first.
func (db *DB) ListRuns(limit, offset int) ([]RunRow, error) {
	const q = `
		SELECT r.id, r.started_at, r.source, r.ir_version, COALESCE(r.catalog_fingerprint,''), r.cancelled,
		       (SELECT COUNT(1) FROM issues i WHERE i.run_id = r.id) AS issues,
		       (SELECT COUNT(1) FROM analysis_errors e WHERE e.run_id = r.id) AS errors
		  FROM runs r
		 ORDER BY r.started_at DESC, r.id DESC
		 LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var (
			rr           RunRow
			startedAtStr string
			cancelled    int
		)
		if err := rows.Scan(&rr.ID, &startedAtStr, &rr.Source, &rr.IRVersion, &rr.CatalogFingerprint,
			&cancelled, &rr.Issues, &rr.Errors); err != nil {
			return nil, err
		}
		rr.Cancelled = cancelled != 0
		if t, err := time.Parse(time.RFC3339Nano, startedAtStr); err == nil {
			rr.StartedAt = t
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// ListIssues returns issues for a run at or above a minimum severity, most
// severe first.
func (db *DB) ListIssues(runID, minSeverity string) ([]ir.Issue, error) {
	q := `
		SELECT id, rule_id, file, line, severity, layer, message, evidence, effort_minutes
		  FROM issues
		 WHERE run_id = ?
		   AND ` + rank("severity") + ` >= ` + rank("?") + `
		 ORDER BY ` + rank("severity") + ` DESC, file, line, rule_id, id`
	rows, err := db.conn.Query(q, runID, minSeverity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ir.Issue
	for rows.Next() {
		var is ir.Issue
		var sev, layer string
		if err := rows.Scan(&is.ID, &is.RuleID, &is.File, &is.Line, &sev, &layer, &is.Message, &is.Evidence, &is.Effort); err != nil {
			return nil, err
		}
		is.Severity, is.Layer = ir.Severity(sev), ir.Layer(layer)
		out = append(out, is)
	}
	return out, rows.Err()
}

// ListErrors returns the analysis errors recorded for a run.
func (db *DB) ListErrors(runID string) ([]ir.AnalysisError, error) {
	rows, err := db.conn.Query(`
		SELECT file, COALESCE(rule_id,''), kind, message
		  FROM analysis_errors WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ir.AnalysisError
	for rows.Next() {
		var e ir.AnalysisError
		var kind string
		if err := rows.Scan(&e.File, &e.RuleID, &kind, &e.Message); err != nil {
			return nil, err
		}
		e.Kind = ir.ErrorKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// HasRun reports whether a run with id exists.
func (db *DB) HasRun(id string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM runs WHERE id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func rank(expr string) string {
	return `(CASE ` + expr + ` WHEN 'CRITICAL' THEN 2 WHEN 'MAJOR' THEN 1 ELSE 0 END)`
}
