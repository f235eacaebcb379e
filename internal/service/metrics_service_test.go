package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshotAverages(t *testing.T) {
	metrics := NewMetricsService()
	fixed := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	metrics.clockSource = func() time.Time { return fixed }

	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/rooms", http.StatusOK, 10*time.Millisecond)
	metrics.ObserveHTTPRequest(http.MethodPost, "/api/v1/schedules", http.StatusConflict, 30*time.Millisecond)
	metrics.ObserveDBQuery("dashboard_totals", 4*time.Millisecond)
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)
	metrics.RecordScheduleConflict("room")

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(2), snapshot.RequestsTotal)
	assert.InDelta(t, 20.0, snapshot.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(1), snapshot.DBQueryCount)
	assert.InDelta(t, 4.0, snapshot.AverageDBQueryDurationMs, 0.001)
	assert.InDelta(t, 1.0/3.0, snapshot.CacheHitRatio, 0.0001)
	assert.Equal(t, uint64(1), snapshot.ScheduleConflicts)
	assert.Equal(t, fixed, snapshot.GeneratedAt)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordScheduleConflict("teacher")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `school_admin_schedule_conflicts_total{dimension="teacher"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetricsServiceNilReceiver(t *testing.T) {
	var metrics *MetricsService
	metrics.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.ObserveCacheWrite(time.Millisecond)
	metrics.ObserveDBQuery("q", time.Millisecond)
	metrics.RecordScheduleConflict("room")
	assert.Zero(t, metrics.Snapshot().RequestsTotal)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
