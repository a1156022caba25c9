package lower

import "fmt"

// Lowering error codes (E200-E299).
const (
	ErrShape    = "E201" // operand has the wrong shape
	ErrModifier = "E202" // modifier applied to the wrong operand
	ErrArity    = "E203" // wrong number of function arguments
	ErrRepeat   = "E204" // invalid list repetition
	ErrParam    = "E205" // compare or limit parameter is not a number
)

// Error is a lowering failure. Lowering stops at the first error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func errorf(code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
