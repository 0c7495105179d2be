package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/archlint/internal/ir"
	"github.com/codewithboateng/archlint/internal/rules"
	"github.com/codewithboateng/archlint/internal/shared"
	"github.com/codewithboateng/archlint/internal/storage"
)

const controllerFacts = `
units:
  - path: src/main/java/com/acme/controller/UsuarioController.java
    package: com.acme.controller
    imports:
      - {name: com.acme.repository.UsuarioRepository, line: 3}
    types:
      - name: UsuarioController
        line: 6
        annotations: [{name: RestController, line: 5}]
  - path: src/main/java/com/acme/legacy/controller/OldController.java
    package: com.acme.legacy.controller
    imports:
      - {name: com.acme.repository.OldRepository, line: 3}
`

func testConfig(t *testing.T) shared.Config {
	t.Helper()
	dir := t.TempDir()
	facts := filepath.Join(dir, "facts")
	require.NoError(t, os.MkdirAll(facts, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(facts, "units.yaml"), []byte(controllerFacts), 0o644))

	cfg := shared.DefaultConfig()
	cfg.Analysis.Sources = []string{facts}
	cfg.Analysis.Workers = 2
	cfg.Database.DSN = filepath.Join(dir, "archlint.db")
	cfg.Reporting.OutDir = filepath.Join(dir, "reports")
	return cfg
}

func TestAnalyzePersistsAndReports(t *testing.T) {
	cfg := testConfig(t)
	res, err := analyze(context.Background(), cfg, slog.New(slog.DiscardHandler), nil)
	require.NoError(t, err)

	assert.Len(t, res.Run.Units, 2)
	assert.Len(t, res.Run.Issues, 2)
	for _, is := range res.Run.Issues {
		assert.Equal(t, "NoRepositoryAccessFromExposition", is.RuleID)
		assert.Equal(t, ir.LayerExposition, is.Layer)
	}
	assert.NotEmpty(t, res.Run.Context.CatalogFingerprint)
	assert.Equal(t, "MAJOR", res.Run.Context.SeverityThreshold)
	assert.Positive(t, res.Run.Context.EffortMinutes)
	assert.FileExists(t, res.JSONPath)
	assert.FileExists(t, res.HTMLPath)

	db, err := storage.OpenSQLite(cfg.Database.DSN)
	require.NoError(t, err)
	defer db.Close()
	stored, err := db.LoadRun(res.Run.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Issues, 2)
}

func TestAnalyzeAppliesWaivers(t *testing.T) {
	cfg := testConfig(t)

	db, err := storage.OpenSQLite(cfg.Database.DSN)
	require.NoError(t, err)
	require.NoError(t, db.CreateSchema())
	_, err = db.CreateWaiver(storage.Waiver{
		RuleID:    "NoRepositoryAccessFromExpositionRule",
		FileGlob:  "src/main/java/com/acme/legacy/**",
		Reason:    "being rewritten",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedBy: "test",
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	res, err := analyze(context.Background(), cfg, slog.New(slog.DiscardHandler), nil)
	require.NoError(t, err)
	require.Len(t, res.Run.Issues, 1)
	assert.Equal(t, "src/main/java/com/acme/controller/UsuarioController.java", res.Run.Issues[0].File)
	assert.Equal(t, 1, res.Run.Waived)
}

func TestAnalyzeConfigError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rules.SeverityThreshold = "LOW"
	res, err := analyze(context.Background(), cfg, slog.New(slog.DiscardHandler), nil)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, rules.ErrConfig)
}

func TestAnalyzeCancelledStoresPartialRun(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := analyze(ctx, cfg, slog.New(slog.DiscardHandler), nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.True(t, res.Run.Cancelled)
	assert.Empty(t, res.Run.Issues)
}

func TestSettingsFrom(t *testing.T) {
	cfg := shared.DefaultConfig()
	cfg.Rules.SeverityThreshold = " critical "
	cfg.Rules.Disabled = []string{"NoPersistenceInService"}
	s := settingsFrom(cfg)
	assert.Equal(t, "CRITICAL", s.SeverityThreshold)
	assert.True(t, s.Disabled["NoPersistenceInService"])
}
