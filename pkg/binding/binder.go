package binding

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/goliatone/go-mvc/internal/ctxlog"
	"github.com/goliatone/go-mvc/pkg/metrics"
)

// Option configures a Binder.
type Option func(*Binder)

// WithConverters replaces the converter registry.
func WithConverters(converters *Converters) Option {
	return func(b *Binder) {
		if converters != nil {
			b.converters = converters
		}
	}
}

// WithLogger sets the binder logger. When unset the context logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) {
		b.logger = logger
	}
}

// WithMetrics records binding failures on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(b *Binder) {
		b.metrics = collector
	}
}

// Binder converts and validates request parameters. A Binder holds no
// request state and is safe for concurrent use.
type Binder struct {
	converters *Converters
	logger     *slog.Logger
	metrics    *metrics.Collector
}

// NewBinder returns a Binder with the default converters.
func NewBinder(options ...Option) *Binder {
	b := &Binder{converters: NewConverters()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// Converters returns the converter registry.
func (b *Binder) Converters() *Converters {
	return b.converters
}

// Bind converts raw into p's type and runs its constraints.
//
// For opt-in params every failure is recorded into result and the returned
// error is nil; the Outcome still says what happened. For opt-out params the
// failure is returned as *ConversionError or *ConstraintViolation and result
// is left untouched. An opt-in param with a nil result is treated as opt-out.
func (b *Binder) Bind(ctx context.Context, p Param, raw []string, result *Result) (Outcome, error) {
	if p.Type == nil {
		return nil, fmt.Errorf("binding: param %q has no type", p.Name)
	}
	if !b.converters.Supports(p.Type) {
		return nil, fmt.Errorf("%w: param %q of type %s", ErrUnsupportedType, p.Name, p.Type)
	}

	record := p.OptIn && result != nil
	logger := ctxlog.Or(ctx, b.logger)

	raw = present(raw)
	if len(raw) == 0 && p.Default != "" {
		raw = []string{p.Default}
	}
	if len(raw) == 0 {
		zero := Zero(p.Type)
		if !p.required() {
			return Ok{Value: zero}, nil
		}
		return b.constraintFailure(logger, p, zero, "", requiredConstraint{}, ErrRequired, record, result)
	}

	value, err := b.converters.Convert(p.Type, raw)
	if err != nil {
		convErr := &ConversionError{Param: p.Name, Type: p.Type, Raw: strings.Join(raw, ","), Err: err}
		zero := Zero(p.Type)
		if !record {
			b.metrics.RecordBindingFailure(string(KindConversion), metrics.ModeRaised)
			logger.Debug("binding: conversion failed", "param", p.Name, "error", err)
			return ConversionFailed{Value: zero, Err: convErr}, convErr
		}
		result.append(ValidationError{
			Param:   p.Name,
			Value:   convErr.Raw,
			Message: conversionMessage(p.Type),
			Kind:    KindConversion,
		})
		b.metrics.RecordBindingFailure(string(KindConversion), metrics.ModeRecorded)
		return ConversionFailed{Value: zero, Err: convErr, Recorded: true}, nil
	}

	for _, c := range p.Constraints {
		if c == nil {
			continue
		}
		if err := c.Check(value); err != nil {
			return b.constraintFailure(logger, p, value, strings.Join(raw, ","), c, err, record, result)
		}
	}
	return Ok{Value: value}, nil
}

func (b *Binder) constraintFailure(logger *slog.Logger, p Param, value any, raw string, c Constraint, err error, record bool, result *Result) (Outcome, error) {
	violation := &ConstraintViolation{Param: p.Name, Constraint: c.Name(), Value: value, Err: err}
	if !record {
		b.metrics.RecordBindingFailure(string(KindConstraint), metrics.ModeRaised)
		logger.Debug("binding: constraint failed", "param", p.Name, "constraint", c.Name(), "error", err)
		return ConstraintFailed{Value: value, Err: violation}, violation
	}
	result.append(ValidationError{
		Param:   p.Name,
		Value:   raw,
		Message: err.Error(),
		Kind:    KindConstraint,
	})
	b.metrics.RecordBindingFailure(string(KindConstraint), metrics.ModeRecorded)
	return ConstraintFailed{Value: value, Err: violation, Recorded: true}, nil
}

// BindAll binds params from values. It stops at the first failure that is
// not recorded into result and returns it with the values bound so far.
func (b *Binder) BindAll(ctx context.Context, params []Param, values Values, result *Result) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for _, p := range params {
		var raw []string
		if values != nil {
			raw = values.Lookup(p.Source, p.Name)
		}
		outcome, err := b.Bind(ctx, p, raw, result)
		if err != nil {
			return out, err
		}
		out[p.Name] = outcome.Bound()
	}
	return out, nil
}

// present drops blank values.
func present(raw []string) []string {
	var out []string
	for _, value := range raw {
		if strings.TrimSpace(value) != "" {
			out = append(out, value)
		}
	}
	return out
}

func conversionMessage(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if t.PkgPath() == "time" {
			return "must be a duration"
		}
		return "must be a whole number"
	case reflect.Float32, reflect.Float64:
		return "must be a number"
	case reflect.Bool:
		return "must be true or false"
	case reflect.Slice:
		return conversionMessage(t.Elem())
	}
	if t == reflect.TypeOf(timeZero) {
		return "must be a date"
	}
	return "has an invalid format"
}
