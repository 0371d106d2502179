package dto

import "net/http"

// Transport-level error codes
const (
	ErrCodeInternal        = "INTERNAL"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// errorCodeHTTPStatus maps domain and transport error codes to HTTP statuses.
// Unknown codes map to 500 so new domain codes fail loudly instead of leaking
// as misleading 4xx responses.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Malformed input on bundle configuration
	"INVALID_TITLE":      http.StatusBadRequest,
	"INVALID_MODE":       http.StatusBadRequest,
	"INVALID_DISCOUNT":   http.StatusBadRequest,
	"INVALID_PICK_COUNT": http.StatusBadRequest,
	"INVALID_RANGE":      http.StatusBadRequest,
	"NO_ITEMS":           http.StatusBadRequest,
	"DUPLICATE_ITEM":     http.StatusBadRequest,
	"INVALID_ITEM":       http.StatusBadRequest,
	"INVALID_INPUT":      http.StatusBadRequest,
	"INVALID_VARIANT":    http.StatusBadRequest,
	"INVALID_QUANTITY":   http.StatusBadRequest,
	"INVALID_PRICE":      http.StatusBadRequest,
	"INVALID_BUNDLE_REF": http.StatusBadRequest,
	"INVALID_CURRENCY":   http.StatusBadRequest,

	// Resource state
	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Business rule violations on a well-formed request
	"VALIDATION_FAILED": http.StatusUnprocessableEntity,
	"PRICE_UNAVAILABLE": http.StatusUnprocessableEntity,
	"INVALID_STATE":     http.StatusUnprocessableEntity,

	// Downstream store failures
	"WRITE_FAILED":    http.StatusBadGateway,
	"PARTIAL_FAILURE": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 for unknown
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
