package dto

import (
	"net/http"
	"strings"

	"github.com/checkmaster/backend/internal/domain/shared"
)

// Transport-level error codes. Domain errors keep their own codes on the wire.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "INVALID_TOKEN"
	ErrCodeTokenRevoked    = "TOKEN_REVOKED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeForbidden       = "FORBIDDEN"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeTokenRevoked:    http.StatusUnauthorized,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeForbidden:       http.StatusForbidden,

	// Per-document failures
	shared.CodeParseError:       http.StatusUnprocessableEntity,
	shared.CodeDuplicateInvoice: http.StatusConflict,

	// Input
	shared.CodeInvalidInput:          http.StatusBadRequest,
	shared.CodeInvalidQuantity:       http.StatusBadRequest,
	shared.CodeJustificationRequired: http.StatusBadRequest,

	// Identity
	shared.CodeUnauthorized:           http.StatusUnauthorized,
	shared.CodeInsufficientPermission: http.StatusForbidden,

	// Resources
	shared.CodeNotFound:      http.StatusNotFound,
	shared.CodeItemNotFound:  http.StatusNotFound,
	shared.CodeAlreadyExists: http.StatusConflict,

	// Conference state
	shared.CodeNoActiveBatch:        http.StatusConflict,
	shared.CodeConfirmationRequired: http.StatusConflict,
	shared.CodeInvalidState:         http.StatusUnprocessableEntity,
	shared.CodeInvalidTransition:    http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code. Field validation codes
// of the domain (INVALID_NAME, INVALID_CNPJ, ...) map to 400, other unknown codes to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
