package optimizer

import (
	"errors"
	"fmt"
)

// FoldErrorCode categorizes fold-time errors.
type FoldErrorCode string

const (
	// ErrCodeDivisionByZero indicates a constant zero divisor.
	ErrCodeDivisionByZero FoldErrorCode = "DIVISION_BY_ZERO"

	// ErrCodeEmptyList indicates max or min of an empty constant list.
	ErrCodeEmptyList FoldErrorCode = "EMPTY_LIST"
)

// FoldError is an error detected while folding constants.
type FoldError struct {
	Code    FoldErrorCode
	Message string
}

// Error implements the error interface.
func (e *FoldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func divisionByZero() error {
	return &FoldError{Code: ErrCodeDivisionByZero, Message: "division by zero"}
}

func reverseDivisionByZero(index int) error {
	return &FoldError{
		Code:    ErrCodeDivisionByZero,
		Message: fmt.Sprintf("division by zero in reverse list division at index %d", index),
	}
}

// IsDivisionByZero reports whether err is a fold-time division by zero.
func IsDivisionByZero(err error) bool {
	var fe *FoldError
	return errors.As(err, &fe) && fe.Code == ErrCodeDivisionByZero
}
