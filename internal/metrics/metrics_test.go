package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDatasetLoadsCounter(t *testing.T) {
	before := testutil.ToFloat64(DatasetLoads.WithLabelValues("festivals", "ok"))
	DatasetLoads.WithLabelValues("festivals", "ok").Inc()
	require.Equal(t, before+1, testutil.ToFloat64(DatasetLoads.WithLabelValues("festivals", "ok")))
}

func TestHandlerServesMetrics(t *testing.T) {
	SkippedRecords.WithLabelValues("venues").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "festdir_skipped_records_total")
	require.Contains(t, rec.Body.String(), "go_goroutines")
}
