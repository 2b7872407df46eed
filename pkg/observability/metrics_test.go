package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Recording(t *testing.T) {
	m := NewMetrics()

	m.CommandFinished(false, 10*time.Millisecond)
	m.CommandFinished(true, 10*time.Millisecond)
	m.CommandBlocked()
	m.SuggestionsShown(4)
	m.SuggestionsShown(0)
	m.AnalysisStarted()
	m.AnalysisStarted()
	m.AnalysisFinished(ResultOK, time.Second)
	m.AnalysisRejected()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues(OutcomeAllowed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues(OutcomeBlocked)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.suggestions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues(ResultRejected)))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CommandFinished(false, time.Second)
		m.CommandBlocked()
		m.SuggestionsShown(3)
		m.AnalysisStarted()
		m.AnalysisFinished(ResultFailed, time.Second)
		m.AnalysisRejected()
		m.ChatFinished(time.Second)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.CommandBlocked()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `silvershell_commands_total{outcome="blocked"} 1`)
}
