package errors

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// BusinessError is an expected, user-facing rejection: insufficient capacity,
// illegal state transition, group size out of bounds and the like. It is never
// a system fault and handlers surface it with its message intact.
type BusinessError struct {
	Code    string
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// Business creates a BusinessError with the given machine-readable code.
func Business(code, message string) *BusinessError {
	return &BusinessError{Code: code, Message: message}
}

// Businessf creates a BusinessError with a formatted message.
func Businessf(code, format string, args ...any) *BusinessError {
	return &BusinessError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsBusiness reports whether err is (or wraps) a BusinessError.
func IsBusiness(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}

// AsBusiness unwraps err into a BusinessError, if it is one.
func AsBusiness(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// IntegrationError wraps a failure of an external collaborator (payment
// processor, search cluster). Local state must be left unchanged by the
// operation that returns one.
type IntegrationError struct {
	Op  string
	Err error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}

// Integration wraps err as an IntegrationError for the named operation.
func Integration(op string, err error) *IntegrationError {
	return &IntegrationError{Op: op, Err: err}
}

// IsIntegration reports whether err is (or wraps) an IntegrationError.
func IsIntegration(err error) bool {
	var ie *IntegrationError
	return errors.As(err, &ie)
}

// Business rejection codes shared across services and handlers.
const (
	CodeSlotNotOpen          = "slot_not_open"
	CodeInsufficientCapacity = "insufficient_capacity"
	CodeGroupSizeOutOfBounds = "group_size_out_of_bounds"
	CodeInvalidTransition    = "invalid_transition"
	CodePaymentNotSucceeded  = "payment_not_succeeded"
	CodeDuplicateReview      = "duplicate_review"
	CodeReviewNotAllowed     = "review_not_allowed"
	CodeRefundNotAllowed     = "refund_not_allowed"
	CodeRefundTooLarge       = "refund_too_large"
	CodeResponseAlreadySet   = "response_already_set"
	CodeUnsupportedCurrency  = "unsupported_currency"
)
