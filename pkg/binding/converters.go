package binding

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Converter turns one raw parameter string into a typed value.
type Converter func(raw string) (any, error)

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// Converters maps target types to converters. Slice types are handled by
// converting each raw value with the element converter.
type Converters struct {
	byType map[reflect.Type]Converter
}

// NewConverters returns a registry with converters for strings, booleans,
// every int, uint and float width, time.Duration, and RFC 3339 time.Time.
func NewConverters() *Converters {
	c := &Converters{byType: make(map[reflect.Type]Converter)}
	c.Register(reflect.TypeOf(""), func(raw string) (any, error) { return raw, nil })
	c.Register(reflect.TypeOf(false), func(raw string) (any, error) { return strconv.ParseBool(strings.TrimSpace(raw)) })

	for _, kind := range []reflect.Type{
		reflect.TypeOf(int(0)), reflect.TypeOf(int8(0)), reflect.TypeOf(int16(0)),
		reflect.TypeOf(int32(0)), reflect.TypeOf(int64(0)),
	} {
		t := kind
		c.Register(t, func(raw string) (any, error) {
			n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, t.Bits())
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(n).Convert(t).Interface(), nil
		})
	}
	for _, kind := range []reflect.Type{
		reflect.TypeOf(uint(0)), reflect.TypeOf(uint8(0)), reflect.TypeOf(uint16(0)),
		reflect.TypeOf(uint32(0)), reflect.TypeOf(uint64(0)),
	} {
		t := kind
		c.Register(t, func(raw string) (any, error) {
			n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, t.Bits())
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(n).Convert(t).Interface(), nil
		})
	}
	for _, kind := range []reflect.Type{reflect.TypeOf(float32(0)), reflect.TypeOf(float64(0))} {
		t := kind
		c.Register(t, func(raw string) (any, error) {
			f, err := strconv.ParseFloat(strings.TrimSpace(raw), t.Bits())
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(f).Convert(t).Interface(), nil
		})
	}

	c.Register(reflect.TypeOf(time.Duration(0)), func(raw string) (any, error) {
		return time.ParseDuration(strings.TrimSpace(raw))
	})
	c.Register(reflect.TypeOf(time.Time{}), func(raw string) (any, error) {
		raw = strings.TrimSpace(raw)
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts, nil
		}
		return time.Parse(time.DateOnly, raw)
	})
	return c
}

// Register sets the converter for t, replacing any existing one.
func (c *Converters) Register(t reflect.Type, fn Converter) {
	if t == nil || fn == nil {
		return
	}
	c.byType[t] = fn
}

// RegisterConverter registers a typed converter for T.
func RegisterConverter[T any](c *Converters, fn func(raw string) (T, error)) {
	c.Register(reflect.TypeOf((*T)(nil)).Elem(), func(raw string) (any, error) {
		return fn(raw)
	})
}

// Supports reports whether values of t can be converted.
func (c *Converters) Supports(t reflect.Type) bool {
	if c.lookup(t) != nil {
		return true
	}
	return t != nil && t.Kind() == reflect.Slice && c.lookup(t.Elem()) != nil
}

// Convert converts raw into a value of type t. Scalar types use the first
// raw value; slice types convert every value.
func (c *Converters) Convert(t reflect.Type, raw []string) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrUnsupportedType)
	}
	if t.Kind() == reflect.Slice && c.byType[t] == nil {
		elem := c.lookup(t.Elem())
		if elem == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
		}
		out := reflect.MakeSlice(t, 0, len(raw))
		for _, item := range raw {
			v, err := elem(item)
			if err != nil {
				return nil, err
			}
			out = reflect.Append(out, reflect.ValueOf(v))
		}
		return out.Interface(), nil
	}

	fn := c.lookup(t)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	first := ""
	if len(raw) > 0 {
		first = raw[0]
	}
	return fn(first)
}

func (c *Converters) lookup(t reflect.Type) Converter {
	if fn, ok := c.byType[t]; ok {
		return fn
	}
	if t == nil {
		return nil
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return func(raw string) (any, error) {
			ptr := reflect.New(t)
			if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
				return nil, err
			}
			return ptr.Elem().Interface(), nil
		}
	}
	// Named types over a supported kind, e.g. type Status string.
	for base, fn := range c.byType {
		if base.PkgPath() == "" && base.Kind() == t.Kind() && base.ConvertibleTo(t) {
			conv, target := fn, t
			return func(raw string) (any, error) {
				v, err := conv(raw)
				if err != nil {
					return nil, err
				}
				return reflect.ValueOf(v).Convert(target).Interface(), nil
			}
		}
	}
	return nil
}

// Zero returns the zero value of t.
func Zero(t reflect.Type) any {
	if t == nil {
		return nil
	}
	return reflect.Zero(t).Interface()
}

var timeZero time.Time
