package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/archlint/internal/ir"
)

func TestObserverCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.UnitEvaluated(ir.LayerExposition, time.Millisecond)
	m.UnitEvaluated(ir.LayerExposition, time.Millisecond)
	m.IssueRecorded("NoSqlOrJpaInController", ir.SeverityMajor)
	m.AnalysisFailed(ir.ErrorExtraction)
	m.BatchDone(time.Second, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.units.WithLabelValues("EXPOSITION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.issues.WithLabelValues("NoSqlOrJpaInController", "MAJOR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("EXTRACTION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batches.WithLabelValues("cancelled")))

	_, err = New(reg)
	assert.Error(t, err, "second registration must conflict")
}
