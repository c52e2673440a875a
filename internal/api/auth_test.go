package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"wrenchbid/internal/config"
)

func authConfig(keys []config.APIClientKey, rps float64, burst int) config.APIConfig {
	return config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled:      len(keys) > 0,
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
			APIKeys:      keys,
		},
		RateLimit: config.APIRateLimitConfig{RPS: rps, Burst: burst},
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func authedRequest(method, path, key, extra string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	if extra != "" {
		req.Header.Set("x-api-extra", extra)
	}
	return req
}

func TestHTTPAuthKeys(t *testing.T) {
	keys := []config.APIClientKey{
		{Key: "key-1", Extra: "secret-1", Name: "partner"},
	}
	auth := NewHTTPAuth(authConfig(keys, 0, 0))
	handler := auth.Wrap(okHandler())

	tests := []struct {
		name  string
		key   string
		extra string
		want  int
	}{
		{"valid pair", "key-1", "secret-1", http.StatusOK},
		{"missing headers", "", "", http.StatusUnauthorized},
		{"unknown key", "key-2", "secret-1", http.StatusUnauthorized},
		{"wrong extra", "key-1", "nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/rfqs", tt.key, tt.extra))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHTTPAuthPermissions(t *testing.T) {
	keys := []config.APIClientKey{
		{Key: "reader", Extra: "s1", Permissions: []string{"read:marketplace"}},
		{Key: "writer", Extra: "s2", Permissions: []string{"read:marketplace", "write:marketplace"}},
		{Key: "unscoped", Extra: "s3"},
	}
	auth := NewHTTPAuth(authConfig(keys, 0, 0))
	handler := auth.Wrap(okHandler())

	tests := []struct {
		name   string
		key    string
		extra  string
		method string
		want   int
	}{
		{"reader can read", "reader", "s1", http.MethodGet, http.StatusOK},
		{"reader cannot write", "reader", "s1", http.MethodPost, http.StatusForbidden},
		{"writer can write", "writer", "s2", http.MethodPost, http.StatusOK},
		{"empty permission list grants all", "unscoped", "s3", http.MethodPost, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, authedRequest(tt.method, "/api/v1/rfqs", tt.key, tt.extra))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHTTPAuthRateLimit(t *testing.T) {
	keys := []config.APIClientKey{{Key: "key-1", Extra: "secret-1"}}
	auth := NewHTTPAuth(authConfig(keys, 1, 2))
	handler := auth.Wrap(okHandler())

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/rfqs", "key-1", "secret-1"))
		statuses = append(statuses, rec.Code)
	}

	// Burst of 2 passes, the rest are throttled in the same instant.
	assert.Equal(t, http.StatusOK, statuses[0])
	assert.Equal(t, http.StatusOK, statuses[1])
	assert.Equal(t, http.StatusTooManyRequests, statuses[2])
	assert.Equal(t, http.StatusTooManyRequests, statuses[3])
}

func TestHTTPAuthDisabledPassesThrough(t *testing.T) {
	auth := NewHTTPAuth(authConfig(nil, 0, 0))
	handler := auth.Wrap(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/rfqs", "", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
}
