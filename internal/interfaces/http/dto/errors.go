package dto

import (
	"net/http"
	"strings"
)

// General error codes used by the HTTP layer itself
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when actor identification is missing
	ErrCodeUnauthorized = "UNAUTHORIZED"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Validation-style codes (INVALID_*) fall through to 400 by prefix.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,

	// Resource errors
	"NOT_FOUND":      http.StatusNotFound,
	"ITEM_NOT_FOUND": http.StatusNotFound,
	"ALREADY_EXISTS": http.StatusConflict,

	// Concurrency and slot contention -> 409 Conflict
	"CARD_IN_USE":          http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Permissions
	"PERMISSION_DENIED": http.StatusForbidden,

	// Business rule errors -> 422 Unprocessable Entity
	"INVALID_STATE":      http.StatusUnprocessableEntity,
	"INSUFFICIENT_FUNDS": http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK": http.StatusUnprocessableEntity,
	"NOT_SELLABLE":       http.StatusUnprocessableEntity,
	"NO_CLIENT":          http.StatusUnprocessableEntity,
	"NO_FREE_CARD":       http.StatusUnprocessableEntity,
	"NO_OPEN_SESSION":    http.StatusUnprocessableEntity,
	"PERFORMER_REQUIRED": http.StatusUnprocessableEntity,
	"REVERSAL_FAILED":    http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for a domain error code.
// Unknown INVALID_* codes are input validation failures; anything else
// unknown surfaces as 500 so it shows up in monitoring.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
