package infrastructure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeOTel_MetricsExposedOnPrometheusHandler(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "campaignpulse-test",
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "none",
		EnableMetrics:  true,
	}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.Tracer)

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordStep(ctx, "clean", 25*time.Millisecond, true)
	metrics.RecordRecords(ctx, "clean", 42)
	metrics.RecordRepair(ctx, "missing", "ROI", 3)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), "pipeline_records_total")
	assert.Contains(t, string(body), "pipeline_quality_repairs_total")
}

func TestInitializeOTel_Disabled(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{ServiceName: "x", TraceExporter: "none"}, nil)
	require.NoError(t, err)

	assert.Nil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.MeterProvider)

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordStep(context.Background(), "load", time.Millisecond, false)

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnknownExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{ServiceName: "x", TraceExporter: "zipkin"}, nil)
	assert.Error(t, err)
}

func TestPipelineMetrics_NilSafe(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.RecordStep(context.Background(), "x", time.Second, true)
		m.RecordRecords(context.Background(), "x", 1)
		m.RecordRepair(context.Background(), "missing", "ROI", 1)
		m.RecordRun(context.Background(), "completed")
	})
}
