package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig lists the browser origins allowed to call the API. An empty
// AllowedOrigins disables CORS handling.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins" json:"allowedOrigins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" json:"allowedMethods" yaml:"allowed_methods" default:"[\"GET\",\"POST\",\"OPTIONS\"]"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" json:"allowedHeaders" yaml:"allowed_headers" default:"[\"Content-Type\",\"X-Trace-ID\"]"`
	AllowCredentials bool     `mapstructure:"allow_credentials" json:"allowCredentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" json:"maxAge" yaml:"max_age" default:"600" validate:"gte=0"`
}

// CORS answers preflight requests and tags responses for allowed origins.
// Requests from other origins are refused with 403.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(cfg.AllowedOrigins) == 0 {
			return next
		}
		methods := strings.Join(cfg.AllowedMethods, ", ")
		headers := strings.Join(cfg.AllowedHeaders, ", ")
		maxAge := strconv.Itoa(cfg.MaxAge)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			allowed := ""
			for _, o := range cfg.AllowedOrigins {
				if o == "*" || o == origin {
					allowed = o
					break
				}
			}
			if allowed == "" {
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowed)
			h.Add("Vary", "Origin")
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Expose-Headers", TraceIDHeader)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				h.Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var secureHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "strict-origin-when-cross-origin",
	"Content-Security-Policy": "default-src 'none'; img-src 'self' data:",
}

// SecureHeaders sets conservative response headers. The API serves JSON
// and images only, so nothing may be framed or execute scripts.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range secureHeaders {
			w.Header().Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
}
