package model

import "fmt"

// Error codes surfaced to callers and, for the gate, mapped onto HTTP
// responses.
const (
	FlagNotFoundErrorCode  = "FLAG_NOT_FOUND"
	MalformedErrorCode     = "MALFORMED_PAYLOAD"
	InvalidRangeErrorCode  = "INVALID_RANGE"
	DuplicateNameErrorCode = "DUPLICATE_NAME"
	GeneralErrorCode       = "GENERAL_ERROR"
)

// ReloadError reports why a definition payload was rejected. A failed reload
// never disturbs the previously published snapshot.
type ReloadError struct {
	Code   string
	Detail string
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// NewReloadError builds a ReloadError with a formatted detail message.
func NewReloadError(code string, format string, args ...interface{}) *ReloadError {
	return &ReloadError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// ReloadErrorCode extracts the error code from err, or GeneralErrorCode when
// err is not a ReloadError.
func ReloadErrorCode(err error) string {
	if re, ok := err.(*ReloadError); ok {
		return re.Code
	}
	return GeneralErrorCode
}
