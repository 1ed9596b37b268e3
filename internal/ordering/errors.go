package ordering

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateOrderID = errors.New("order id already exists")
)

// ValidationError marks caller-correctable input problems: missing fields,
// malformed cart JSON, failed human verification, invalid status values.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is caller-correctable input.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StockInsufficientError aborts a submission when a requested quantity
// exceeds the stock of a resolved entity. Title is the display title of
// the entity ("<product title> - <variant name>" for variants).
type StockInsufficientError struct {
	Title     string
	Available int
}

func (e *StockInsufficientError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d.", e.Title, e.Available)
}

// AsStockError unwraps err into a StockInsufficientError when possible.
func AsStockError(err error) (*StockInsufficientError, bool) {
	var se *StockInsufficientError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
