package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-admin-api/internal/dto"
)

type fakeDashboardSrv struct {
	resp *dto.AdminDashboardResponse
	hit  bool
	err  error
}

func (f *fakeDashboardSrv) Admin(context.Context) (*dto.AdminDashboardResponse, bool, error) {
	return f.resp, f.hit, f.err
}

func TestDashboardHandlerAdminSuccess(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{
		resp: &dto.AdminDashboardResponse{Totals: dto.DashboardTotals{Students: 12, Sessions: 4}},
		hit:  true,
	})
	c, rec := newTestContext(http.MethodGet, "/dashboard/admin", nil, nil)

	handler.Admin(c)

	assertStatus(t, rec, http.StatusOK)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, string(envelope.Data), `"students":12`)
}

func TestDashboardHandlerAdminFailure(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{err: errors.New("db down")})
	c, rec := newTestContext(http.MethodGet, "/dashboard/admin", nil, nil)

	handler.Admin(c)

	assertStatus(t, rec, http.StatusInternalServerError)
}

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(nil, pingerFunc(func(context.Context) error { return errors.New("refused") }))
	c, rec := newTestContext(http.MethodGet, "/ready", nil, nil)
	handler.Ready(c)
	assertStatus(t, rec, http.StatusServiceUnavailable)

	handler = NewMetricsHandler(nil, pingerFunc(func(context.Context) error { return nil }))
	c, rec = newTestContext(http.MethodGet, "/ready", nil, nil)
	handler.Ready(c)
	assertStatus(t, rec, http.StatusOK)

	c, rec = newTestContext(http.MethodGet, "/metrics", nil, nil)
	handler.Prometheus(c)
	assertStatus(t, rec, http.StatusServiceUnavailable)
}

type pingerFunc func(context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }
