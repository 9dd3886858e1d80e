package carbon

import (
	"fmt"

	"github.com/emilianohg/carbontrack/internal/catalog"
)

type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrFactorNotFound means the (type, category, scope) triple matched no
	// emission factor. It is a client input error.
	ErrFactorNotFound = catalog.ErrFactorNotFound

	// ErrEntityNotFound means a company, worker or emission id is missing or
	// is not owned by the caller.
	ErrEntityNotFound = constError("entity not found")

	ErrInvalidAmount = constError("amount must be a positive number")
	ErrInvalidDate   = constError("emission date out of range")
	ErrInvalidInput  = constError("invalid input")

	// ErrDuplicateEmail means another company already uses the email. It is
	// reported together with ErrInvalidInput.
	ErrDuplicateEmail = constError("email already registered")

	// ErrScopeMismatch is returned when a worker records an ORG scoped emission.
	ErrScopeMismatch = constError("scope not allowed for caller")
)

// CalculationError wraps a data store failure that happened while an
// emission was being calculated and persisted.
type CalculationError struct {
	Op  string
	Err error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CalculationError) Unwrap() error {
	return e.Err
}
