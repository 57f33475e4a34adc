package middleware

import (
	"context"
	"net/http"
	"time"
)

const startTimeKey contextKey = "start_time"

// Timing records the request start so handlers can report elapsed time.
func Timing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), startTimeKey, time.Now())))
	})
}

// Elapsed returns milliseconds since Timing saw the request, or 0.
func Elapsed(ctx context.Context) int64 {
	if start, ok := ctx.Value(startTimeKey).(time.Time); ok {
		return time.Since(start).Milliseconds()
	}
	return 0
}
