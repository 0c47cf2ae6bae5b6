package database

import (
	"errors"
	"fmt"
)

// Set of error kinds returned when the consensus rules reject data. Every
// rejection wraps one of these so callers can use errors.Is.
var (
	ErrInvalidBlock       = errors.New("invalid block")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// invalidBlock constructs an error wrapping ErrInvalidBlock.
func invalidBlock(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidBlock, fmt.Sprintf(format, args...))
}

// invalidTx constructs an error wrapping ErrInvalidTransaction.
func invalidTx(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransaction, fmt.Sprintf(format, args...))
}

// InvalidTransaction constructs an error wrapping ErrInvalidTransaction for
// packages that apply their own transaction rules.
func InvalidTransaction(format string, args ...any) error {
	return invalidTx(format, args...)
}

// InvalidBlock constructs an error wrapping ErrInvalidBlock for packages
// that apply their own block rules.
func InvalidBlock(format string, args ...any) error {
	return invalidBlock(format, args...)
}
