package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chocandle/cho-candle-backend/pkg/config"
	"github.com/chocandle/cho-candle-backend/pkg/types"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	resp := serve(t, HealthReady(cfg, map[string]Pinger{"db": ok, "redis": ok}, testLogger), testRequest{method: http.MethodGet, target: "/health/ready"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "dev", resp.Header().Get(envHeader))

	var status types.HealthStatus
	decodeData(t, resp, &status)
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, map[string]string{"db": "ok", "redis": "ok"}, status.Checks)

	resp = serve(t, HealthReady(cfg, map[string]Pinger{"db": ok, "redis": down}, testLogger), testRequest{method: http.MethodGet, target: "/health/ready"})
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestLegacyHealthIsBare(t *testing.T) {
	resp := serve(t, LegacyHealth(), testRequest{method: http.MethodGet, target: "/api/health"})
	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.NotContains(t, body, "data")
}
