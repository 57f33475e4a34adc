// Package responder writes the {data, error, meta} JSON envelope and maps
// apperrors to HTTP statuses.
package responder

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/leeforge/mediakit/http/middleware"
	"github.com/leeforge/mediakit/json"
	"github.com/leeforge/mediakit/logging"
)

const contentTypeJSON = "application/json; charset=utf-8"

var encodeFailed = []byte(`{"error":{"code":5000,"type":"internal","message":"encode failed"},"meta":{}}`)

// Responder answers one request. Trace id and elapsed time are read from
// the request context when the middleware put them there.
type Responder struct {
	w http.ResponseWriter
	r *http.Request
}

func From(w http.ResponseWriter, r *http.Request) *Responder {
	return &Responder{w: w, r: r}
}

func (r *Responder) meta(opts []Option) Meta {
	base := []Option{
		WithTraceID(middleware.GetTraceID(r.r.Context())),
		WithTook(middleware.Elapsed(r.r.Context())),
	}
	return NewMeta(append(base, opts...)...)
}

func (r *Responder) writeJSON(status int, payload *Response) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logging.FromContext(r.r.Context()).Error("encode response", zap.Error(err))
		status, raw = http.StatusInternalServerError, encodeFailed
	}
	r.w.Header().Set("Content-Type", contentTypeJSON)
	r.w.WriteHeader(status)
	_, _ = r.w.Write(raw)
}

// Write sends data in the envelope with the given status.
func (r *Responder) Write(status int, data any, opts ...Option) {
	r.writeJSON(status, &Response{Data: data, Meta: r.meta(opts)})
}

func (r *Responder) OK(data any, opts ...Option) {
	r.Write(http.StatusOK, data, opts...)
}

func (r *Responder) Created(data any, opts ...Option) {
	r.Write(http.StatusCreated, data, opts...)
}

// WriteError sends an explicit envelope error.
func (r *Responder) WriteError(status int, e Error, opts ...Option) {
	r.writeJSON(status, &Response{Error: &e, Meta: r.meta(opts)})
}

// Fail maps err through apperrors and writes it. Server-side failures are
// logged with the request logger.
func (r *Responder) Fail(err error, opts ...Option) {
	status, e := FromAppError(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.r.Context()).Error("request failed",
			zap.Error(err),
			zap.String("error_type", e.Type),
			zap.Int("status", status),
		)
	}
	r.WriteError(status, e, opts...)
}

// Binary writes raw bytes, bypassing the envelope.
func (r *Responder) Binary(status int, contentType string, body []byte) {
	h := r.w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	if id := middleware.GetTraceID(r.r.Context()); id != "" {
		h.Set(middleware.TraceIDHeader, id)
	}
	r.w.WriteHeader(status)
	_, _ = r.w.Write(body)
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	From(w, r).WriteError(http.StatusNotFound, Error{
		Code:    ErrCodeRouteNotFound,
		Type:    "not_found",
		Message: "route not found",
	})
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	From(w, r).WriteError(http.StatusMethodNotAllowed, Error{
		Code:    ErrCodeBadRequest,
		Type:    "invalid_argument",
		Message: "method not allowed",
	})
}
