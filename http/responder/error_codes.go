package responder

import (
	apperrors "github.com/leeforge/mediakit/errors"
)

// Numeric error codes. 4xxx are caller errors, 5xxx are server side.
const (
	ErrCodeBadRequest            = 4000
	ErrCodeValidationFailed      = 4002
	ErrCodeNotFound              = 4003
	ErrCodeRouteNotFound         = 4004
	ErrCodeConflict              = 4008
	ErrCodeTooManyRequests       = 4009
	ErrCodeExpired               = 4010
	ErrCodeSourceUnreadable      = 4011
	ErrCodeDecodeFailed          = 4012
	ErrCodeInternalServer        = 5000
	ErrCodeDestinationUnwritable = 5003
	ErrCodeStorageService        = 5004
	ErrCodeEncodeFailed          = 5007
	ErrCodeRenderFailed          = 5008
)

var typeCodes = map[apperrors.ErrorType]int{
	apperrors.ErrorTypeInvalidArgument:       ErrCodeValidationFailed,
	apperrors.ErrorTypeNotFound:              ErrCodeNotFound,
	apperrors.ErrorTypeExpired:               ErrCodeExpired,
	apperrors.ErrorTypeConflict:              ErrCodeConflict,
	apperrors.ErrorTypeRateLimit:             ErrCodeTooManyRequests,
	apperrors.ErrorTypeSourceUnreadable:      ErrCodeSourceUnreadable,
	apperrors.ErrorTypeDecodeFailed:          ErrCodeDecodeFailed,
	apperrors.ErrorTypeDestinationUnwritable: ErrCodeDestinationUnwritable,
	apperrors.ErrorTypeEncodeFailed:          ErrCodeEncodeFailed,
	apperrors.ErrorTypeRenderFailed:          ErrCodeRenderFailed,
	apperrors.ErrorTypeStorage:               ErrCodeStorageService,
}

// CodeFor returns the numeric code for an error type.
func CodeFor(t apperrors.ErrorType) int {
	if code, ok := typeCodes[t]; ok {
		return code
	}
	return ErrCodeInternalServer
}

// FromAppError builds the envelope error and HTTP status for err. Internal
// and unknown errors hide their message behind a generic one.
func FromAppError(err error) (int, Error) {
	ae := apperrors.FromError(err)
	status := ae.Status()
	out := Error{
		Code:    CodeFor(ae.Type),
		Type:    string(ae.Type),
		Message: ae.Message,
	}
	if len(ae.Details) > 0 {
		out.Details = ae.Details
	}
	if status >= 500 && (ae.Type == apperrors.ErrorTypeUnknown || ae.Type == apperrors.ErrorTypeInternal) {
		out.Message = "internal server error"
		out.Details = nil
	}
	return status, out
}
