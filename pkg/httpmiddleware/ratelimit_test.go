package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(h http.Handler, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	// A very low refill rate keeps the test independent of wall time.
	h := RateLimit(RateLimitConfig{RPS: 0.001, Burst: 3})(okHandler())

	for i := range 3 {
		w := doRequest(h, "192.168.1.1:1234", nil)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}

	w := doRequest(h, "192.168.1.1:1234", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, float64(429), body["code"])
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimit_SeparateClients(t *testing.T) {
	h := RateLimit(RateLimitConfig{RPS: 0.001, Burst: 1})(okHandler())

	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "10.0.0.1:1", nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.2:1", nil).Code)
}

func TestRateLimit_HeaderOrIP(t *testing.T) {
	h := RateLimit(RateLimitConfig{RPS: 0.001, Burst: 1, KeyFunc: HeaderOrIP("X-API-Key")})(okHandler())

	// Same IP, different keys are separate buckets.
	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1", map[string]string{"X-API-Key": "a"}).Code)
	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1", map[string]string{"X-API-Key": "b"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "10.0.0.1:1", map[string]string{"X-API-Key": "a"}).Code)
	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1", nil).Code)
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{RPS: 1, Burst: 1})
	now := time.Unix(1_700_000_000, 0)

	_, _, ok := rl.allow("k", now)
	require.True(t, ok)
	_, wait, ok := rl.allow("k", now)
	require.False(t, ok)
	assert.InDelta(t, time.Second.Seconds(), wait.Seconds(), 0.01)

	_, _, ok = rl.allow("k", now.Add(time.Second))
	assert.True(t, ok)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{RPS: 1, IdleTimeout: time.Minute})
	now := time.Unix(1_700_000_000, 0)

	rl.allow("old", now)
	rl.allow("fresh", now.Add(50*time.Second))
	require.Equal(t, 2, rl.len())

	rl.cleanup(now.Add(time.Minute))
	assert.Equal(t, 1, rl.len())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, remote: "10.0.0.2:1", want: "203.0.113.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "203.0.113.2"}, remote: "10.0.0.2:1", want: "203.0.113.2"},
		{name: "remote addr", remote: "10.0.0.2:1", want: "10.0.0.2"},
		{name: "remote without port", remote: "10.0.0.3", want: "10.0.0.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
