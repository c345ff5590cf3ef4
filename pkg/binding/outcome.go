package binding

// Outcome is the result of binding one parameter. It is one of Ok,
// ConversionFailed, or ConstraintFailed.
type Outcome interface {
	// Bound is the value handed to the handler.
	Bound() any
	outcome()
}

// Ok carries a converted value that passed every constraint.
type Ok struct {
	Value any
}

func (o Ok) Bound() any { return o.Value }
func (Ok) outcome()     {}

// ConversionFailed reports a raw value that could not be converted. Value is
// the zero value of the parameter type.
type ConversionFailed struct {
	Value    any
	Err      *ConversionError
	Recorded bool
}

func (o ConversionFailed) Bound() any { return o.Value }
func (ConversionFailed) outcome()     {}

// ConstraintFailed reports a converted value that violated a constraint.
// Value is the converted value and is still delivered for opt-in params.
type ConstraintFailed struct {
	Value    any
	Err      *ConstraintViolation
	Recorded bool
}

func (o ConstraintFailed) Bound() any { return o.Value }
func (ConstraintFailed) outcome()     {}
