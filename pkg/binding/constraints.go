package binding

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Constraint validates a converted parameter value.
type Constraint interface {
	Name() string
	Check(value any) error
}

// ErrRequired is returned by the Required constraint.
var ErrRequired = errors.New("is required")

type requiredConstraint struct{}

// Required rejects missing values, empty strings, and empty slices.
func Required() Constraint { return requiredConstraint{} }

func (requiredConstraint) Name() string { return "required" }

func (requiredConstraint) Check(value any) error {
	if value == nil {
		return ErrRequired
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map:
		if rv.Len() == 0 {
			return ErrRequired
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ErrRequired
		}
	}
	return nil
}

type boundConstraint struct {
	min   bool
	limit float64
}

// Min rejects numbers below n. Slices are checked element-wise.
func Min(n float64) Constraint { return boundConstraint{min: true, limit: n} }

// Max rejects numbers above n. Slices are checked element-wise.
func Max(n float64) Constraint { return boundConstraint{limit: n} }

func (c boundConstraint) Name() string {
	if c.min {
		return "min"
	}
	return "max"
}

func (c boundConstraint) Check(value any) error {
	return eachElement(value, func(rv reflect.Value) error {
		n, ok := numeric(rv)
		if !ok {
			return fmt.Errorf("%s: unsupported type %s", c.Name(), rv.Type())
		}
		if c.min && n < c.limit {
			return fmt.Errorf("must be at least %s", formatNumber(c.limit))
		}
		if !c.min && n > c.limit {
			return fmt.Errorf("must be at most %s", formatNumber(c.limit))
		}
		return nil
	})
}

type sizeConstraint struct {
	min, max int
}

// Size bounds the length of a string (in runes) or slice. A negative hi
// means no upper bound.
func Size(lo, hi int) Constraint { return sizeConstraint{min: lo, max: hi} }

func (sizeConstraint) Name() string { return "size" }

func (c sizeConstraint) Check(value any) error {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	var n int
	switch rv.Kind() {
	case reflect.String:
		n = utf8.RuneCountInString(rv.String())
	case reflect.Slice, reflect.Array, reflect.Map:
		n = rv.Len()
	default:
		return fmt.Errorf("size: unsupported type %s", rv.Type())
	}
	if n >= c.min && (c.max < 0 || n <= c.max) {
		return nil
	}
	switch {
	case c.max < 0:
		return fmt.Errorf("length must be at least %d", c.min)
	case c.min == c.max:
		return fmt.Errorf("length must be %d", c.min)
	default:
		return fmt.Errorf("length must be between %d and %d", c.min, c.max)
	}
}

type patternConstraint struct {
	re *regexp.Regexp
}

// Pattern requires string values to match re.
func Pattern(re *regexp.Regexp) Constraint { return patternConstraint{re: re} }

func (patternConstraint) Name() string { return "pattern" }

func (c patternConstraint) Check(value any) error {
	if c.re == nil {
		return nil
	}
	return eachElement(value, func(rv reflect.Value) error {
		if rv.Kind() != reflect.String {
			return fmt.Errorf("pattern: unsupported type %s", rv.Type())
		}
		if !c.re.MatchString(rv.String()) {
			return fmt.Errorf("must match %s", c.re.String())
		}
		return nil
	})
}

type oneOfConstraint struct {
	values []string
}

// OneOf restricts values to the allowed set, compared by their string form.
func OneOf(values ...string) Constraint { return oneOfConstraint{values: values} }

func (oneOfConstraint) Name() string { return "oneof" }

func (c oneOfConstraint) Check(value any) error {
	return eachElement(value, func(rv reflect.Value) error {
		s := fmt.Sprint(rv.Interface())
		for _, allowed := range c.values {
			if s == allowed {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(c.values, ", "))
	})
}

type eachConstraint struct {
	inner Constraint
}

// Each applies c to every element of a slice value. Non-slice values are
// checked directly.
func Each(c Constraint) Constraint { return eachConstraint{inner: c} }

func (c eachConstraint) Name() string { return c.inner.Name() }

func (c eachConstraint) Check(value any) error {
	return eachElement(value, func(rv reflect.Value) error {
		return c.inner.Check(rv.Interface())
	})
}

// ParseConstraints reads a validate tag such as
// "required,min=1,max=10,size=2..8,oneof=a|b,pattern=^[a-z]+$". The pattern
// rule takes the rest of the tag, commas included, so it must come last.
func ParseConstraints(tag string) ([]Constraint, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, nil
	}
	var out []Constraint
	for tag != "" {
		var rule string
		if strings.HasPrefix(tag, "pattern=") {
			rule, tag = tag, ""
		} else if idx := strings.IndexByte(tag, ','); idx >= 0 {
			rule, tag = tag[:idx], tag[idx+1:]
		} else {
			rule, tag = tag, ""
		}
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		name, arg, _ := strings.Cut(rule, "=")
		c, err := parseConstraint(strings.ToLower(strings.TrimSpace(name)), arg)
		if err != nil {
			return nil, fmt.Errorf("binding: constraint %q: %w", rule, err)
		}
		out = append(out, c)
		tag = strings.TrimSpace(tag)
	}
	return out, nil
}

func parseConstraint(name, arg string) (Constraint, error) {
	switch name {
	case "required":
		return Required(), nil
	case "min", "max":
		n, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil {
			return nil, err
		}
		if name == "min" {
			return Min(n), nil
		}
		return Max(n), nil
	case "size":
		loRaw, hiRaw, ranged := strings.Cut(arg, "..")
		lo, err := strconv.Atoi(strings.TrimSpace(loRaw))
		if err != nil {
			return nil, err
		}
		hi := lo
		if ranged {
			hi = -1
			if hiRaw = strings.TrimSpace(hiRaw); hiRaw != "" {
				if hi, err = strconv.Atoi(hiRaw); err != nil {
					return nil, err
				}
			}
		}
		return Size(lo, hi), nil
	case "pattern":
		re, err := regexp.Compile(arg)
		if err != nil {
			return nil, err
		}
		return Pattern(re), nil
	case "oneof":
		return OneOf(strings.Split(arg, "|")...), nil
	default:
		return nil, errors.New("unknown constraint")
	}
}

func eachElement(value any, fn func(reflect.Value) error) error {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if err := fn(rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}
	return fn(rv)
}

func numeric(rv reflect.Value) (float64, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
