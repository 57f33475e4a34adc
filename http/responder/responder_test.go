package responder

import (
	stdjson "encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/mediakit/errors"
	"github.com/leeforge/mediakit/http/middleware"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, stdjson.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestResponderWrite(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	From(rr, req).Write(http.StatusCreated, "hello", WithTraceID("trace"), WithTook(42))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, contentTypeJSON, rr.Header().Get("Content-Type"))

	resp := decode(t, rr)
	assert.Equal(t, "hello", resp.Data)
	assert.Nil(t, resp.Error)
	assert.Equal(t, Meta{TraceID: "trace", Took: 42}, resp.Meta)
}

func TestResponderReadsTraceFromContext(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.TraceIDHeader, "from-header")

	middleware.TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		From(w, r).OK(map[string]int{"n": 1})
	})).ServeHTTP(rr, req)

	resp := decode(t, rr)
	assert.Equal(t, "from-header", resp.Meta.TraceID)
}

func TestResponderFail(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
		wantType   string
		wantMsg    string
	}{
		{
			name:       "invalid argument",
			err:        apperrors.InvalidArgument("width", 0, "must be positive"),
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidationFailed,
			wantType:   "invalid_argument",
			wantMsg:    "invalid value for width: 0",
		},
		{
			name:       "rate limited",
			err:        apperrors.New(apperrors.ErrorTypeRateLimit, "slow down"),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   ErrCodeTooManyRequests,
			wantType:   "rate_limit",
			wantMsg:    "slow down",
		},
		{
			name:       "decode failure",
			err:        apperrors.WrapWithType(errors.New("bad magic"), apperrors.ErrorTypeDecodeFailed, "decode source image"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   ErrCodeDecodeFailed,
			wantType:   "decode_failed",
			wantMsg:    "decode source image",
		},
		{
			name:       "plain error is hidden",
			err:        errors.New("connection reset by peer"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternalServer,
			wantType:   "unknown",
			wantMsg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			From(rr, httptest.NewRequest(http.MethodGet, "/", nil)).Fail(tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			resp := decode(t, rr)
			require.NotNil(t, resp.Error)
			assert.Nil(t, resp.Data)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantType, resp.Error.Type)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
		})
	}
}

func TestResponderFailKeepsDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	From(rr, httptest.NewRequest(http.MethodGet, "/", nil)).Fail(apperrors.InvalidArgument("mode", "zoom", "unknown mode"))

	resp := decode(t, rr)
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "mode", details["field"])
	assert.Equal(t, "unknown mode", details["reason"])
}

func TestResponderFallbackOnMarshalError(t *testing.T) {
	rr := httptest.NewRecorder()
	From(rr, httptest.NewRequest(http.MethodGet, "/", nil)).OK(map[string]any{"ch": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, string(encodeFailed), rr.Body.String())
}

func TestResponderBinary(t *testing.T) {
	rr := httptest.NewRecorder()
	From(rr, httptest.NewRequest(http.MethodGet, "/", nil)).Binary(http.StatusOK, "image/png", []byte{0x89, 'P'})

	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "2", rr.Header().Get("Content-Length"))
	assert.Equal(t, []byte{0x89, 'P'}, rr.Body.Bytes())
}

func TestRouteFallbacks(t *testing.T) {
	rr := httptest.NewRecorder()
	NotFound(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, ErrCodeRouteNotFound, decode(t, rr).Error.Code)

	rr = httptest.NewRecorder()
	MethodNotAllowed(rr, httptest.NewRequest(http.MethodDelete, "/captcha", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
