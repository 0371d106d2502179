package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// ReconciliationRequired is set when a saga step failed and one of its
	// compensations also failed, so the cart may need manual repair.
	ReconciliationRequired bool `json:"reconciliation_required,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewPartialFailure creates a PARTIAL_FAILURE error flagged for reconciliation
func NewPartialFailure(message string) *DomainError {
	return &DomainError{
		Code:                   "PARTIAL_FAILURE",
		Message:                message,
		ReconciliationRequired: true,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrValidationFailed    = NewDomainError("VALIDATION_FAILED", "Selection violates bundle rules")
	ErrPriceUnavailable    = NewDomainError("PRICE_UNAVAILABLE", "No price available for variant in cart currency")
	ErrWriteFailed         = NewDomainError("WRITE_FAILED", "Store write failed")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
