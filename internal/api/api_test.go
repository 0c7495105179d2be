package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/archlint/internal/ir"
	"github.com/codewithboateng/archlint/internal/metrics"
	"github.com/codewithboateng/archlint/internal/rules"
	"github.com/codewithboateng/archlint/internal/rulesdsl"
	"github.com/codewithboateng/archlint/internal/security"
	"github.com/codewithboateng/archlint/internal/storage"
)

const adminToken = "s3cret-token"

func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	db, err := storage.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.CreateSchema())

	rc, _, err := rulesdsl.Load("", rules.Settings{Disabled: map[string]bool{"NoBusinessLogicInExposition": true}})
	require.NoError(t, err)

	hash, err := security.HashToken(adminToken)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	_, err = metrics.New(reg)
	require.NoError(t, err)

	s := &Server{
		DB:             db,
		Rules:          rc,
		AllowedOrigins: []string{"http://localhost:3000"},
		AdminTokenHash: hash,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	return s, db
}

func seedRun(t *testing.T, db *storage.DB, id string, at time.Time) {
	t.Helper()
	require.NoError(t, db.SaveRun(&ir.Run{
		ID: id, StartedAt: at, Source: "facts/", IRVersion: ir.Version,
		Issues: []ir.Issue{
			{ID: id + "-a", RuleID: "NoRepositoryAccessFromExposition", File: "a/controller/A.java", Line: 4, Severity: ir.SeverityMajor, Message: "m"},
			{ID: id + "-b", RuleID: "NoUpperLayerAccessFromRepository", File: "a/repository/R.java", Line: 2, Severity: ir.SeverityCritical, Message: "m"},
		},
		Errors: []ir.AnalysisError{{File: "broken.yaml", Kind: ir.ErrorExtraction, Message: "bad"}},
	}))
}

func do(t *testing.T, h http.Handler, method, target string, body []byte, hdr map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealthAndCORS(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Routes()

	rec, out := do(t, h, http.MethodGet, "/api/v1/health", nil, map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, s.Rules.Fingerprint(), out["catalog_fingerprint"])
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, _ = do(t, h, http.MethodGet, "/api/v1/health", nil, map[string]string{"Origin": "http://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRunsEndpoints(t *testing.T) {
	s, db := newTestServer(t)
	h := s.Routes()

	rec, _ := do(t, h, http.MethodGet, "/api/v1/runs/latest", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	seedRun(t, db, "r1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	seedRun(t, db, "r2", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))

	rec, out := do(t, h, http.MethodGet, "/api/v1/runs?limit=500", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 200, out["limit"])
	assert.Len(t, out["items"], 2)

	rec, out = do(t, h, http.MethodGet, "/api/v1/runs/latest", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r2", out["id"])

	rec, _ = do(t, h, http.MethodGet, "/api/v1/runs/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, out = do(t, h, http.MethodGet, "/api/v1/runs/r1/issues?min_severity=critical", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, out["count"])

	rec, _ = do(t, h, http.MethodGet, "/api/v1/runs/r1/issues?min_severity=LOW", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out = do(t, h, http.MethodGet, "/api/v1/runs/r1/errors", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, out["count"])
}

func TestRulesInventory(t *testing.T) {
	s, _ := newTestServer(t)
	rec, out := do(t, s.Routes(), http.MethodGet, "/api/v1/rules", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 13, out["count"])

	active := map[string]bool{}
	for _, it := range out["items"].([]any) {
		m := it.(map[string]any)
		active[m["id"].(string)] = m["active"].(bool)
	}
	assert.False(t, active["ExpositionMustDelegateToService"])
	assert.True(t, active["NoSqlOrJpaInController"])
}

func TestWaiverAdminFlow(t *testing.T) {
	s, db := newTestServer(t)
	h := s.Routes()

	body, _ := json.Marshal(map[string]string{
		"rule_id":    "NoSqlOrJpaInControllerRule",
		"file_glob":  "legacy/**",
		"reason":     "migration in progress",
		"expires_at": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
	})

	rec, _ := do(t, h, http.MethodPost, "/api/v1/waivers", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = do(t, h, http.MethodPost, "/api/v1/waivers", body, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	auth := map[string]string{"Authorization": "Bearer " + adminToken, "X-Archlint-Actor": "ana"}
	rec, out := do(t, h, http.MethodPost, "/api/v1/waivers", body, auth)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "NoSqlOrJpaInController", out["rule_id"])

	ws, err := db.ListWaivers(true)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "ana", ws[0].CreatedBy)

	rec, out = do(t, h, http.MethodGet, "/api/v1/waivers?active=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["items"], 1)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/waivers/"+itoa(ws[0].ID)+"/revoke", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, h, http.MethodPost, "/api/v1/waivers/"+itoa(ws[0].ID)+"/revoke", nil, auth)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	audit, err := db.ListAudit(10)
	require.NoError(t, err)
	assert.NotEmpty(t, audit)
}

func TestWaiverValidation(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Routes()
	auth := map[string]string{"Authorization": "Bearer " + adminToken}

	cases := map[string]map[string]string{
		"unknown rule": {"rule_id": "Nope", "reason": "x", "expires_at": time.Now().Add(time.Hour).Format(time.RFC3339)},
		"missing":      {"rule_id": "NoPersistenceInService"},
		"past":         {"rule_id": "NoPersistenceInService", "reason": "x", "expires_at": "2001-01-01T00:00:00Z"},
		"bad time":     {"rule_id": "NoPersistenceInService", "reason": "x", "expires_at": "tomorrow"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			body, _ := json.Marshal(in)
			rec, _ := do(t, h, http.MethodPost, "/api/v1/waivers", body, auth)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestMetricsMounted(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := do(t, s.Routes(), http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "archlint_")
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
