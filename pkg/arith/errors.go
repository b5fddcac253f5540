package arith

import (
	"errors"
	"fmt"
)

var (
	// ErrDivideByZero is returned when the right operand of /, %, /= or %=
	// is zero.
	ErrDivideByZero = errors.New("divided by zero")
	// ErrStackInconsistency is returned when evaluation does not leave
	// exactly one value on the stack.
	ErrStackInconsistency = errors.New("stack inconsistency")
)

// NegativeExponentError is returned when an integer is raised to a negative
// power.
type NegativeExponentError struct {
	Exponent int64
}

func (e *NegativeExponentError) Error() string {
	return fmt.Sprintf("exponent less than 0: %d", e.Exponent)
}

// OperandTypeError is returned when an operator that only applies to
// integers gets a floating-point operand.
type OperandTypeError struct {
	Op      string
	Operand Value
}

func (e *OperandTypeError) Error() string {
	return fmt.Sprintf("operator %s not applicable to floating-point number %v", e.Op, e.Operand)
}

// SyntaxError is returned for malformed expressions.
type SyntaxError struct {
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Message)
}

// NotANumberError is returned when a variable used in an expression has a
// value that is not a number.
type NotANumberError struct {
	Name  string
	Value string
}

func (e *NotANumberError) Error() string {
	return fmt.Sprintf("$%s not a number: %q", e.Name, e.Value)
}
