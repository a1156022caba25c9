package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/dicegraph/internal/graph"
)

// RuntimeError represents an error detected while evaluating a graph or
// driving a session.
//
// Runtime errors include:
//   - Arithmetic: division or modulo by a zero that was only known at run time
//   - Type mismatch: a node received a value of the wrong shape
//   - Empty list: max or min of an empty list
//   - Quota exceeded: the session ran out of rounds or dice
//   - Protocol: responses that do not match the outstanding requests
//   - Invalid state: a session operation called in the wrong state
//
// Every runtime error except INVALID_STATE is fatal for the session.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Node is the graph node that failed, or graph.NoNode.
	Node graph.NodeID

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeDivisionByZero indicates a zero divisor at evaluation time.
	ErrCodeDivisionByZero RuntimeErrorCode = "DIVISION_BY_ZERO"

	// ErrCodeTypeMismatch indicates an operand of the wrong shape.
	ErrCodeTypeMismatch RuntimeErrorCode = "TYPE_MISMATCH"

	// ErrCodeEmptyList indicates max or min of an empty list.
	ErrCodeEmptyList RuntimeErrorCode = "EMPTY_LIST"

	// ErrCodeQuotaExceeded indicates the round or dice budget ran out.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeProtocol indicates responses that do not fit the requests.
	ErrCodeProtocol RuntimeErrorCode = "PROTOCOL"

	// ErrCodeInvalidState indicates a session call in the wrong state.
	ErrCodeInvalidState RuntimeErrorCode = "INVALID_STATE"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Node != graph.NoNode {
		return fmt.Sprintf("%s: %s (node=%d)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func nodeError(code RuntimeErrorCode, id graph.NodeID, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Node: id}
}

func protocolError(format string, args ...any) *RuntimeError {
	return nodeError(ErrCodeProtocol, graph.NoNode, format, args...)
}

func stateError(format string, args ...any) *RuntimeError {
	return nodeError(ErrCodeInvalidState, graph.NoNode, format, args...)
}

// NewQuotaError wraps a budget violation as a runtime error.
func NewQuotaError(err *BudgetExceededError) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeQuotaExceeded,
		Message: err.Error(),
		Node:    graph.NoNode,
		Err:     err,
	}
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsDivisionByZero returns true if the error is a run-time division by zero.
// Uses errors.As to handle wrapped errors.
func IsDivisionByZero(err error) bool {
	return hasCode(err, ErrCodeDivisionByZero)
}

// IsProtocolError returns true if responses did not match the requests.
func IsProtocolError(err error) bool {
	return hasCode(err, ErrCodeProtocol)
}

// IsInvalidState returns true if a session call was made in the wrong state.
func IsInvalidState(err error) bool {
	return hasCode(err, ErrCodeInvalidState)
}

// IsBudgetExceeded returns true if the error is a quota error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and BudgetExceededError.
func IsBudgetExceeded(err error) bool {
	if hasCode(err, ErrCodeQuotaExceeded) {
		return true
	}
	var be *BudgetExceededError
	return errors.As(err, &be)
}
