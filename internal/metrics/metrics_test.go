package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.FeedbackSubmitted(OutcomeSuccess)
	m.FeedbackSubmitted(OutcomeSuccess)
	m.IngestStep("schedule", "insert", OutcomeMissing)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.feedbackSubmissions.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestTableResults.WithLabelValues("schedule", "insert", OutcomeMissing)))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "obsrecords_feedback_submissions_total")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FeedbackSubmitted(OutcomeFailure)
		m.IngestStep("program", "delete", OutcomeSuccess)
	})
}
