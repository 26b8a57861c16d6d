package interpreter

import (
	"errors"
	"fmt"
)

// Fatal errors. They signal a broken invariant of the instruction tree and
// abort the whole invocation; no enclosing frame recovers from them.
var (
	ErrTypeMismatch     = errors.New("operand type mismatch")
	ErrStackUnderflow   = errors.New("operand stack underflow")
	ErrLocalOutOfRange  = errors.New("local index out of range")
	ErrLocalUnset       = errors.New("local not set")
	ErrUnknownOpcode    = errors.New("unknown operation")
	ErrMissingValue     = errors.New("operand missing")
	ErrLabelMismatch    = errors.New("label mismatch")
	ErrMaxDepthExceeded = errors.New("maximum nesting depth exceeded")
	ErrMaxStepsExceeded = errors.New("maximum steps exceeded")
)

// ExecError records where a fatal error was raised. It is attached once, at
// the innermost frame, and passed through enclosing frames untouched.
type ExecError struct {
	Depth  int
	PC     int
	Opcode string
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("depth %d, pc %d, %s: %v", e.Depth, e.PC, e.Opcode, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
