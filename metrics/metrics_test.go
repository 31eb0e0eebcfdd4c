package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Recorders(t *testing.T) {
	m := New()

	m.RecordStage("validate", "passed")
	m.RecordStage("validate", "passed")
	m.RecordStage("validate", "")
	m.RecordTick("ok")
	m.SetActiveJobs(3)
	m.RecordCollection("arxiv", nil)
	m.RecordCollection("arxiv", errors.New("503"))
	m.SetHashIndexSize(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StageOutcomes.WithLabelValues("validate", "passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageOutcomes.WithLabelValues("validate", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ticks.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveJobs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Collections.WithLabelValues("arxiv", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Collections.WithLabelValues("arxiv", "error")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.HashIndex))
}

func TestMetrics_Independent(t *testing.T) {
	a, b := New(), New()
	a.RecordTick("ok")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Ticks.WithLabelValues("ok")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordStage("store", "stored")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `gleaner_pipeline_stage_outcomes_total{outcome="stored",stage="store"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
