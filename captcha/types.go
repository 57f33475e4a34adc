package captcha

import (
	"time"

	apperrors "github.com/leeforge/mediakit/errors"
)

// CaptchaType names the kind of challenge.
type CaptchaType string

const (
	TypeImage CaptchaType = "image"
)

// CaptchaData is returned to the client.
type CaptchaData struct {
	ID        string      `json:"id"`
	Type      CaptchaType `json:"type"`
	Content   string      `json:"content"` // base64 data URI
	ExpiresAt time.Time   `json:"expiresAt"`
}

// VerifyResult reports the outcome of a verification.
type VerifyResult struct {
	Valid         bool   `json:"valid"`
	FailureReason string `json:"failureReason,omitempty"`
	AttemptsLeft  int    `json:"attemptsLeft,omitempty"`
}

// Failure reasons reported in VerifyResult.
const (
	ReasonNotFound = "not_found"
	ReasonExpired  = "expired"
	ReasonMismatch = "mismatch"
)

var (
	ErrCaptchaNotFound   = apperrors.New(apperrors.ErrorTypeNotFound, "captcha not found")
	ErrCaptchaExpired    = apperrors.New(apperrors.ErrorTypeExpired, "captcha expired")
	ErrRateLimitExceeded = apperrors.New(apperrors.ErrorTypeRateLimit, "rate limit exceeded")
)
