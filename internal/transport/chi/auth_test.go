package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveAuth(keys []string, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, http.NoBody)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	APIKeyAuthMiddleware(keys)(okHandler()).ServeHTTP(rr, req)
	return rr
}

func TestAPIKeyAuth_DisabledWithoutKeys(t *testing.T) {
	for _, keys := range [][]string{nil, {"", ""}} {
		rr := serveAuth(keys, "/v1/search", nil)
		assert.Equal(t, http.StatusOK, rr.Code, "keys %q", keys)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	keys := []string{"widget-key", "admin-key"}

	tests := []struct {
		name    string
		headers map[string]string
		want    int
		message string
	}{
		{"bearer first key", map[string]string{"Authorization": "Bearer widget-key"}, http.StatusOK, ""},
		{"bearer second key", map[string]string{"Authorization": "Bearer admin-key"}, http.StatusOK, ""},
		{"scheme is case-insensitive", map[string]string{"Authorization": "bearer widget-key"}, http.StatusOK, ""},
		{"api key header", map[string]string{APIKeyHeader: "widget-key"}, http.StatusOK, ""},
		{"missing", nil, http.StatusUnauthorized, "missing authorization header"},
		{"basic scheme", map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, http.StatusUnauthorized, "Bearer scheme"},
		{"empty bearer", map[string]string{"Authorization": "Bearer "}, http.StatusUnauthorized, "Bearer scheme"},
		{"unknown bearer", map[string]string{"Authorization": "Bearer wrong"}, http.StatusUnauthorized, "invalid api key"},
		{"unknown api key", map[string]string{APIKeyHeader: "widget"}, http.StatusUnauthorized, "invalid api key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveAuth(keys, "/v1/search", tt.headers)
			require.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusOK {
				return
			}

			assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, ErrorCodeUnauthorized, body.Code)
			assert.Contains(t, body.Message, tt.message)
		})
	}
}

func TestAPIKeyAuth_ExemptPaths(t *testing.T) {
	for _, path := range []string{"/health", "/health/live", "/health/ready", "/metrics"} {
		rr := serveAuth([]string{"secret"}, path, nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
	rr := serveAuth([]string{"secret"}, "/health/deep", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
