package binding

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
)

// Kind classifies a validation error.
type Kind string

const (
	KindConversion Kind = "conversion"
	KindConstraint Kind = "constraint"
)

// ErrUnsupportedType is returned when no converter is registered for a
// parameter type.
var ErrUnsupportedType = errors.New("binding: unsupported type")

// ValidationError is one failure recorded into a Result.
type ValidationError struct {
	Param   string `json:"param"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Message)
}

// ConversionError reports a raw value that could not be converted to the
// parameter type. Unhandled conversion errors map to a server error.
type ConversionError struct {
	Param string
	Type  reflect.Type
	Raw   string
	Err   error
}

func (e *ConversionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("binding: convert %q for param %q to %s: %v", e.Raw, e.Param, typeName(e.Type), e.Err)
}

func (e *ConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ConversionError) StatusCode() int {
	return http.StatusInternalServerError
}

// ConstraintViolation reports a converted value that failed a constraint.
// Unhandled violations map to a client error.
type ConstraintViolation struct {
	Param      string
	Constraint string
	Value      any
	Err        error
}

func (e *ConstraintViolation) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("binding: param %q violates %s: %v", e.Param, e.Constraint, e.Err)
}

func (e *ConstraintViolation) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ConstraintViolation) StatusCode() int {
	return http.StatusBadRequest
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
