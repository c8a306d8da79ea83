package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return e.Code == de.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// ErrorCode extracts the domain error code from err, or "" if err is not a DomainError
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Error codes of the conference workflow
const (
	CodeParseError             = "PARSE_ERROR"
	CodeDuplicateInvoice       = "DUPLICATE_INVOICE"
	CodeItemNotFound           = "ITEM_NOT_FOUND"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeJustificationRequired  = "JUSTIFICATION_REQUIRED"
	CodeInsufficientPermission = "INSUFFICIENT_PERMISSION"
	CodeNotFound               = "NOT_FOUND"
	CodeAlreadyExists          = "ALREADY_EXISTS"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInvalidState           = "INVALID_STATE"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeInvalidQuantity        = "INVALID_QUANTITY"
	CodeNoActiveBatch          = "NO_ACTIVE_BATCH"
	CodeConfirmationRequired   = "CONFIRMATION_REQUIRED"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists          = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput           = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrUnauthorized           = NewDomainError(CodeUnauthorized, "Invalid credentials or insufficient role")
	ErrInsufficientPermission = NewDomainError(CodeInsufficientPermission, "Not allowed to perform this action")
	ErrInvalidState           = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrJustificationRequired  = NewDomainError(CodeJustificationRequired, "A justification is required to approve a divergent conference")
	ErrNoActiveBatch          = NewDomainError(CodeNoActiveBatch, "There is no active conference")
	ErrConfirmationRequired   = NewDomainError(CodeConfirmationRequired, "Another conference is active; confirm to pause it")
)
