package comanda

import "net/http"

type ErrorCode string

const (
	ErrTableRequired   ErrorCode = "TABLE_REQUIRED"
	ErrServerRequired  ErrorCode = "SERVER_REQUIRED"
	ErrEmptyCart       ErrorCode = "EMPTY_CART"
	ErrInvalidQuantity ErrorCode = "INVALID_QUANTITY"
	ErrItemUnavailable ErrorCode = "ITEM_UNAVAILABLE"
	ErrItemNotFound    ErrorCode = "ITEM_NOT_FOUND"
)

type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

func ValidationError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, StatusCode: http.StatusBadRequest}
}

// SubmissionInput is everything a comanda submission needs beyond the cart
// itself. ServerID comes from the authenticated session, never from state.
type SubmissionInput struct {
	TableID  int64
	ServerID int64
	Cart     []CartLine
}

// ValidateSubmission enforces the submission preconditions. Failures here
// abort the operation before any write is attempted.
func ValidateSubmission(input SubmissionInput) *Error {
	if input.TableID <= 0 {
		return ValidationError(ErrTableRequired, "A table must be selected before submitting a comanda.")
	}
	if input.ServerID <= 0 {
		return ValidationError(ErrServerRequired, "A server identity is required to submit a comanda.")
	}
	if len(input.Cart) == 0 {
		return ValidationError(ErrEmptyCart, "The cart is empty.")
	}
	for _, line := range input.Cart {
		if line.Quantity <= 0 {
			return ValidationError(ErrInvalidQuantity, "Item quantities must be positive.")
		}
	}
	return nil
}
