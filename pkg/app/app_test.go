package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/s3presign/pkg/configs"
	"github.com/yeisme/s3presign/pkg/internal/types"
	"github.com/yeisme/s3presign/pkg/log"
	"github.com/yeisme/s3presign/pkg/metrics"
)

// probeFailingStore 探测总是失败，用于观察 Reload 后策略的变化.
type probeFailingStore struct{}

func (probeFailingStore) HeadObject(context.Context, string, string) (*types.ObjectInfo, error) {
	return nil, errors.New("connection refused")
}

func (probeFailingStore) PresignPostForm(context.Context, string, string, time.Duration) (*types.Descriptor, error) {
	return nil, errors.New("unexpected presign")
}

func (probeFailingStore) Ping(context.Context, string) error { return nil }

func testConfig() *configs.AppConfig {
	cfg := *configs.GetConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.RuntimeMetrics = false

	return &cfg
}

func presign(a *App) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/presign", strings.NewReader(`{"key":"1677634244.gz"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, req)

	return w
}

func TestReloadSwitchesProbePolicy(t *testing.T) {
	log.SetLogger(zerolog.Nop())

	cfg := testConfig()
	a := newApp(t.Context(), cfg, probeFailingStore{})

	assert.Equal(t, http.StatusServiceUnavailable, presign(a).Code)

	reloaded := *cfg
	reloaded.Presign.ProbeErrorPolicy = configs.ProbeErrorFail
	a.Reload(&reloaded)

	assert.Equal(t, http.StatusBadGateway, presign(a).Code)
}

func TestRoutes(t *testing.T) {
	log.SetLogger(zerolog.Nop())

	cfg := testConfig()
	require.NoError(t, metrics.InitMetrics(cfg.Metrics))

	a := newApp(t.Context(), cfg, probeFailingStore{})

	w := httptest.NewRecorder()
	a.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	a.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/s3", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	presign(a)

	w = httptest.NewRecorder()
	a.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("s3presign_authorizations_total")))
}
