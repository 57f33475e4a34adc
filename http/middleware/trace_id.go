// Package middleware holds the chi middleware of the HTTP server: trace
// ids, request timing, CORS and security headers.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	// TraceIDHeader carries the trace id in both directions.
	TraceIDHeader = "X-Trace-ID"
	maxTraceIDLen = 128
)

// TraceID reuses an incoming X-Trace-ID or mints a uuid, echoes it on the
// response and stores it in the request context.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(TraceIDHeader)
		if id == "" || len(id) > maxTraceIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(TraceIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), traceIDKey, id)))
	})
}

func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// TraceIDFromRequest matches the requestID hook of logging.HTTPMiddleware.
func TraceIDFromRequest(r *http.Request) string {
	return GetTraceID(r.Context())
}
