package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	var seen string
	h := TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromRequest(r)
	}))

	t.Run("reuses incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TraceIDHeader, "abc-123")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rr.Header().Get(TraceIDHeader))
	})

	t.Run("mints id when absent or oversized", func(t *testing.T) {
		for _, incoming := range []string{"", strings.Repeat("x", maxTraceIDLen+1)} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(TraceIDHeader, incoming)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			require.Len(t, seen, 36)
			assert.Equal(t, seen, rr.Header().Get(TraceIDHeader))
		}
	})
}

func TestTiming(t *testing.T) {
	var elapsed int64 = -1
	h := Timing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		elapsed = Elapsed(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.GreaterOrEqual(t, elapsed, int64(0))
	assert.Equal(t, int64(0), Elapsed(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := CORS(CORSConfig{
		AllowedOrigins: []string{"https://app.example.com"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         60,
	})(ok)

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
	}{
		{name: "no origin", method: http.MethodGet, wantStatus: http.StatusTeapot},
		{name: "allowed", method: http.MethodGet, origin: "https://app.example.com", wantStatus: http.StatusTeapot, wantOrigin: "https://app.example.com"},
		{name: "refused", method: http.MethodGet, origin: "https://evil.example", wantStatus: http.StatusForbidden},
		{name: "preflight", method: http.MethodOptions, origin: "https://app.example.com", preflight: true, wantStatus: http.StatusNoContent, wantOrigin: "https://app.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/captcha", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			if tt.preflight {
				assert.Equal(t, "GET, POST", rr.Header().Get("Access-Control-Allow-Methods"))
				assert.Equal(t, "60", rr.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}

func TestCORSDisabledPassesThrough(t *testing.T) {
	called := false
	h := CORS(CORSConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}

func TestSecureHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecureHeaders(http.NotFoundHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}
