package rest

import "fmt"

// ErrorCode is the machine readable classification of an SDK error.
type ErrorCode string

const (
	CodeInvalidConfig      ErrorCode = "INVALID_CONFIG"
	CodeNetworkError       ErrorCode = "NETWORK_ERROR"
	CodeHTTPError          ErrorCode = "HTTP_ERROR"
	CodeAPIError           ErrorCode = "API_ERROR"
	CodeUnknownError       ErrorCode = "UNKNOWN_ERROR"
	CodeTokenRenewalFailed ErrorCode = "TOKEN_RENEWAL_FAILED"
	CodeNotConnected       ErrorCode = "SUBSCRIPTION_NOT_CONNECTED"
)

func (c ErrorCode) String() string {
	return string(c)
}

// Error is the typed failure surfaced to SDK callers.
type Error struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
}

func NewError(code ErrorCode, message string, httpStatus int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func (e *Error) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the error code, UNKNOWN_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return CodeUnknownError
}

func IsNetworkError(err error) bool {
	return CodeOf(err) == CodeNetworkError
}

func IsAPIError(err error) bool {
	return CodeOf(err) == CodeAPIError
}

func IsHTTPError(err error) bool {
	return CodeOf(err) == CodeHTTPError
}
