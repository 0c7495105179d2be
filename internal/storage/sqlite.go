package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite" // CGO-free SQLite driver

	"github.com/codewithboateng/archlint/internal/ir"
)

// ErrNotFound is returned when a run or waiver does not exist.
var ErrNotFound = errors.New("not found")

// DB is the concrete storage backed by SQLite.
type DB struct {
	conn *sql.DB
}

// OpenSQLite opens (and creates if missing) a SQLite DB at path. ":memory:"
// gives a private in-memory database.
func OpenSQLite(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
	}
	c, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		c.SetMaxOpenConns(1)
	}
	return &DB{conn: c}, nil
}

func (db *DB) Close() error { return db.conn.Close() }

// CreateSchema ensures tables exist.
func (db *DB) CreateSchema() error {
	_, err := db.conn.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id                  TEXT PRIMARY KEY,
  started_at          TEXT,          -- RFC3339Nano
  source              TEXT,
  ir_version          TEXT,
  catalog_fingerprint TEXT,
  cancelled           INTEGER NOT NULL DEFAULT 0,
  run_json            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS issues (
  id             TEXT,
  run_id         TEXT NOT NULL,
  rule_id        TEXT,
  file           TEXT,
  line           INTEGER,
  severity       TEXT,
  layer          TEXT,
  message        TEXT,
  evidence       TEXT,
  effort_minutes INTEGER,
  PRIMARY KEY (id, run_id),
  FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_issues_run ON issues(run_id);
CREATE INDEX IF NOT EXISTS idx_issues_rule ON issues(rule_id);

CREATE TABLE IF NOT EXISTS analysis_errors (
  run_id  TEXT NOT NULL,
  seq     INTEGER NOT NULL,
  file    TEXT,
  rule_id TEXT,
  kind    TEXT,
  message TEXT,
  PRIMARY KEY (run_id, seq),
  FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS audit (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts TEXT NOT NULL,
  actor TEXT,
  action TEXT NOT NULL,
  resource TEXT,
  meta_json TEXT
);

CREATE TABLE IF NOT EXISTS waivers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  rule_id     TEXT NOT NULL,
  file_glob   TEXT,              -- optional; NULL = any file
  pattern_sub TEXT,              -- optional substring of evidence/message
  reason      TEXT NOT NULL,
  expires_at  TEXT NOT NULL,     -- RFC3339Nano
  created_by  TEXT NOT NULL,
  created_at  TEXT NOT NULL,
  revoked_at  TEXT               -- NULL = active
);
`)
	return err
}

// SaveRun upserts a run JSON and (re)writes its issues and errors.
func (db *DB) SaveRun(run *ir.Run) error {
	b, err := json.Marshal(run)
	if err != nil {
		return err
	}
	ts := run.StartedAt.UTC().Format(time.RFC3339Nano)

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, started_at, source, ir_version, catalog_fingerprint, cancelled, run_json)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET started_at=excluded.started_at, source=excluded.source,
           ir_version=excluded.ir_version, catalog_fingerprint=excluded.catalog_fingerprint,
           cancelled=excluded.cancelled, run_json=excluded.run_json`,
		run.ID, ts, run.Source, run.IRVersion, run.Context.CatalogFingerprint, boolInt(run.Cancelled), string(b),
	); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM issues WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM analysis_errors WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	if len(run.Issues) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO issues
			(id, run_id, rule_id, file, line, severity, layer, message, evidence, effort_minutes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id, run_id) DO NOTHING`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, is := range run.Issues {
			if _, err := stmt.Exec(is.ID, run.ID, is.RuleID, is.File, is.Line, string(is.Severity),
				string(is.Layer), is.Message, is.Evidence, is.Effort); err != nil {
				return fmt.Errorf("save issue %s: %w", is.ID, err)
			}
		}
	}
	if len(run.Errors) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO analysis_errors (run_id, seq, file, rule_id, kind, message)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, e := range run.Errors {
			if _, err := stmt.Exec(run.ID, i, e.File, e.RuleID, string(e.Kind), e.Message); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// LoadRun returns the full run (from stored JSON).
func (db *DB) LoadRun(id string) (ir.Run, error) {
	var s string
	row := db.conn.QueryRow(`SELECT run_json FROM runs WHERE id = ?`, id)
	if err := row.Scan(&s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return ir.Run{}, err
	}
	var run ir.Run
	if err := json.Unmarshal([]byte(s), &run); err != nil {
		return ir.Run{}, err
	}
	return run, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
