// Package api serves stored runs, the rule inventory and waiver management
// over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/codewithboateng/archlint/internal/ir"
	"github.com/codewithboateng/archlint/internal/rules"
	"github.com/codewithboateng/archlint/internal/storage"
)

// Store is the minimal contract the API needs.
type Store interface {
	ListRuns(limit, offset int) ([]storage.RunRow, error)
	LoadRun(id string) (ir.Run, error)
	ListIssues(runID, minSeverity string) ([]ir.Issue, error)
	ListErrors(runID string) ([]ir.AnalysisError, error)

	ListWaivers(activeOnly bool) ([]storage.Waiver, error)
	CreateWaiver(w storage.Waiver) (int64, error)
	RevokeWaiver(id int64) error

	LogAudit(actor, action, resource string, meta map[string]any) error
}

type Server struct {
	DB             Store
	Rules          *rules.Catalog
	Logger         *slog.Logger
	AllowedOrigins []string
	// AdminTokenHash is a bcrypt hash of the bearer token that unlocks
	// waiver writes. Empty disables writes.
	AdminTokenHash string
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", s.withCORS(s.handleHealth))

	mux.HandleFunc("GET /api/v1/runs", s.withCORS(s.handleListRuns))
	mux.HandleFunc("GET /api/v1/runs/latest", s.withCORS(s.handleGetLatestRun))
	mux.HandleFunc("GET /api/v1/runs/{id}", s.withCORS(s.handleGetRun))
	mux.HandleFunc("GET /api/v1/runs/{id}/issues", s.withCORS(s.handleListIssues))
	mux.HandleFunc("GET /api/v1/runs/{id}/errors", s.withCORS(s.handleListErrors))

	mux.HandleFunc("GET /api/v1/rules", s.withCORS(s.handleRules))

	mux.HandleFunc("GET /api/v1/waivers", s.withCORS(s.handleListWaivers))
	mux.HandleFunc("POST /api/v1/waivers", s.withCORS(s.withAdmin(s.handleCreateWaiver, "waiver:create")))
	mux.HandleFunc("POST /api/v1/waivers/{id}/revoke", s.withCORS(s.withAdmin(s.handleRevokeWaiver, "waiver:revoke")))

	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}

	mux.HandleFunc("/", s.withCORS(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	return s.logRequests(mux)
}

func (s *Server) withCORS(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if o := s.pickCORSOrigin(r); o != "" {
			w.Header().Set("Access-Control-Allow-Origin", o)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS, POST")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h(w, r)
	}
}

func (s *Server) pickCORSOrigin(r *http.Request) string {
	if len(s.AllowedOrigins) == 0 {
		return ""
	}
	origin := r.Header.Get("Origin")
	for _, ao := range s.AllowedOrigins {
		if ao == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(origin, ao) {
			return origin
		}
	}
	return ""
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"ok":         true,
		"timestamp":  time.Now().UTC(),
		"ir_version": ir.Version,
	}
	if s.Rules != nil {
		out["catalog_fingerprint"] = s.Rules.Fingerprint()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := clamp(parseInt(q.Get("limit"), 20), 1, 200)
	offset := max(parseInt(q.Get("offset"), 0), 0)

	rows, err := s.DB.ListRuns(limit, offset)
	if err != nil {
		s.err(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	if rows == nil {
		rows = []storage.RunRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": rows, "limit": limit, "offset": offset,
	})
}

func (s *Server) handleGetLatestRun(w http.ResponseWriter, r *http.Request) {
	rows, err := s.DB.ListRuns(1, 0)
	if err != nil || len(rows) == 0 {
		s.err(w, http.StatusNotFound, "no runs")
		return
	}
	run, err := s.DB.LoadRun(rows[0].ID)
	if err != nil {
		s.err(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.DB.LoadRun(r.PathValue("id"))
	if err != nil {
		s.err(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	min := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("min_severity")))
	if min != "" && !rules.ValidSeverity(min) {
		s.err(w, http.StatusBadRequest, "min_severity must be MAJOR or CRITICAL")
		return
	}
	items, err := s.DB.ListIssues(id, min)
	if err != nil {
		s.err(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	if items == nil {
		items = []ir.Issue{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": id, "min_severity": min, "items": items, "count": len(items),
	})
}

func (s *Server) handleListErrors(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	items, err := s.DB.ListErrors(id)
	if err != nil {
		s.err(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	if items == nil {
		items = []ir.AnalysisError{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": id, "items": items, "count": len(items)})
}

type ruleMeta struct {
	ID       string   `json:"id"`
	Aliases  []string `json:"aliases,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Severity string   `json:"severity"`
	Layers   []string `json:"layers"`
	Checks   []string `json:"checks"`
	Active   bool     `json:"active"`
}

// GET /api/v1/rules lists every defined rule, active or not.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	out := []ruleMeta{}
	if s.Rules != nil {
		for _, d := range s.Rules.All() {
			m := ruleMeta{
				ID: d.ID, Aliases: d.Aliases, Summary: d.Summary,
				Severity: string(d.Severity), Active: s.Rules.Active(d.ID),
			}
			for _, l := range d.Layers {
				m.Layers = append(m.Layers, string(l))
			}
			for _, st := range d.Strategies {
				m.Checks = append(m.Checks, st.Describe())
			}
			out = append(out, m)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "count": len(out)})
}

func (s *Server) err(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
