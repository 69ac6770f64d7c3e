package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/timelock/pkg/auth"
	"github.com/Mindburn-Labs/timelock/pkg/dispatch"
	"github.com/Mindburn-Labs/timelock/pkg/registry"
	"github.com/Mindburn-Labs/timelock/pkg/timelock"
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

type env struct {
	ts        *httptest.Server
	clock     *testClock
	validator *auth.TokenValidator
	ownerTok  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clk := &testClock{t: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)}
	disp := dispatch.NewLocalDispatcher()
	disp.Register("target-1", func(ctx context.Context, payload []byte, value uint64) ([]byte, error) {
		return []byte("ok"), nil
	})
	return newEnvWithDispatcher(t, clk, disp)
}

func newEnvWithDispatcher(t *testing.T, clk *testClock, disp *dispatch.LocalDispatcher) *env {
	t.Helper()
	gate := timelock.NewService("owner-1", registry.NewMemoryStore(), disp, clk)
	validator := auth.NewTokenValidator([]byte("test-key"))
	server := NewServer(gate)

	ts := httptest.NewServer(server.Routes(validator, nil))
	t.Cleanup(ts.Close)

	ownerTok, err := validator.Issue("owner-1")
	require.NoError(t, err)

	return &env{ts: ts, clock: clk, validator: validator, ownerTok: ownerTok}
}

func (e *env) post(t *testing.T, path, token string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.ts.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func queueBody(e *env, lead int64) map[string]any {
	return map[string]any{
		"target":         "target-1",
		"value":          0,
		"scheduled_time": e.clock.t.Unix() + lead,
	}
}

func TestHealth_Public(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	resp.Body.Close()
}

func TestDerive_PublicAndPure(t *testing.T) {
	e := newEnv(t)
	body := queueBody(e, timelock.MinDelay)

	resp := e.post(t, "/v1/transactions/derive", "", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	first := decodeBody(t, resp)["tx_id"]

	resp = e.post(t, "/v1/transactions/derive", "", body)
	second := decodeBody(t, resp)["tx_id"]
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestQueue_RequiresToken(t *testing.T) {
	e := newEnv(t)
	resp := e.post(t, "/v1/transactions/queue", "", queueBody(e, timelock.MinDelay))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestQueue_NonOwnerForbidden(t *testing.T) {
	e := newEnv(t)
	tok, err := e.validator.Issue("intruder")
	require.NoError(t, err)

	resp := e.post(t, "/v1/transactions/queue", tok, queueBody(e, timelock.MinDelay))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestQueueExecuteCancel_Flow(t *testing.T) {
	clk := &testClock{t: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)}
	disp := dispatch.NewLocalDispatcher()
	disp.Register("target-1", func(ctx context.Context, payload []byte, value uint64) ([]byte, error) {
		return []byte{0xca, 0xfe}, nil
	})
	e := newEnvWithDispatcher(t, clk, disp)

	// Queue
	body := queueBody(e, timelock.MinDelay)
	resp := e.post(t, "/v1/transactions/queue", e.ownerTok, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	txID := decodeBody(t, resp)["tx_id"].(string)

	// Execute too early → 422
	resp = e.post(t, "/v1/transactions/execute", e.ownerTok, body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// Execute inside the window
	clk.t = clk.t.Add(time.Duration(timelock.MinDelay) * time.Second)
	resp = e.post(t, "/v1/transactions/execute", e.ownerTok, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody(t, resp)
	assert.Equal(t, txID, out["tx_id"])
	assert.Equal(t, "cafe", out["result"])

	// Replay → 404 Not Queued
	resp = e.post(t, "/v1/transactions/execute", e.ownerTok, body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Cancel of the consumed id → 404 as well
	resp = e.post(t, "/v1/transactions/cancel", e.ownerTok, map[string]string{"tx_id": txID})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestQueue_DoubleQueueConflict(t *testing.T) {
	e := newEnv(t)
	body := queueBody(e, timelock.MinDelay)

	resp := e.post(t, "/v1/transactions/queue", e.ownerTok, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = e.post(t, "/v1/transactions/queue", e.ownerTok, body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestQueue_WindowViolation(t *testing.T) {
	e := newEnv(t)
	resp := e.post(t, "/v1/transactions/queue", e.ownerTok, queueBody(e, timelock.MinDelay-1))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	problem := decodeBody(t, resp)
	assert.Equal(t, "Time Window Violation", problem["title"])
}

func TestCancel_BadTxID(t *testing.T) {
	e := newEnv(t)
	resp := e.post(t, "/v1/transactions/cancel", e.ownerTok, map[string]string{"tx_id": "zz"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestDepositAndBalance(t *testing.T) {
	e := newEnv(t)
	resp := e.post(t, "/v1/deposit", e.ownerTok, map[string]uint64{"value": 25})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody(t, resp)
	assert.Equal(t, float64(25), out["balance"])

	req, err := http.NewRequest(http.MethodGet, e.ts.URL+"/v1/balance", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+e.ownerTok)
	getResp, err := e.ts.Client().Do(req)
	require.NoError(t, err)
	assert.Equal(t, float64(25), decodeBody(t, getResp)["balance"])
}

func TestRateLimitMiddleware(t *testing.T) {
	// 1 req/sec, burst 2: two immediate requests pass, the third is limited.
	limiter := NewGlobalRateLimiter(1, 2)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ts := httptest.NewServer(handler)
	defer ts.Close()

	for i := 0; i < 2; i++ {
		resp, err := ts.Client().Get(ts.URL)
		require.NoError(t, err, fmt.Sprintf("request %d", i))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := ts.Client().Get(ts.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	resp.Body.Close()
}
