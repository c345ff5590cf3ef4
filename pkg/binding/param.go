package binding

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
)

// Source names where a raw parameter value is read from.
type Source string

const (
	// SourceAny reads the merged query and form values.
	SourceAny    Source = ""
	SourceQuery  Source = "query"
	SourceForm   Source = "form"
	SourcePath   Source = "path"
	SourceHeader Source = "header"
)

// ParseSource validates a source name.
func ParseSource(raw string) (Source, error) {
	switch s := Source(strings.ToLower(strings.TrimSpace(raw))); s {
	case SourceAny, SourceQuery, SourceForm, SourcePath, SourceHeader:
		return s, nil
	default:
		return "", fmt.Errorf("binding: unknown source %q", raw)
	}
}

// Param declares one bound parameter.
type Param struct {
	Name        string
	Source      Source
	Type        reflect.Type
	Constraints []Constraint
	// OptIn routes failures into the request Result instead of returning
	// them.
	OptIn bool
	// Default is used when the request carries no value.
	Default string
}

// ParamOf declares a parameter of type T.
func ParamOf[T any](name string, constraints ...Constraint) Param {
	return Param{
		Name:        name,
		Type:        reflect.TypeOf((*T)(nil)).Elem(),
		Constraints: constraints,
	}
}

// From returns p reading from source.
func (p Param) From(source Source) Param {
	p.Source = source
	return p
}

// WithOptIn returns p marked opt-in.
func (p Param) WithOptIn() Param {
	p.OptIn = true
	return p
}

// WithDefault returns p with a default raw value.
func (p Param) WithDefault(raw string) Param {
	p.Default = raw
	return p
}

func (p Param) required() bool {
	for _, c := range p.Constraints {
		if _, ok := c.(requiredConstraint); ok {
			return true
		}
	}
	return false
}

// Values supplies raw parameter strings.
type Values interface {
	Lookup(source Source, name string) []string
}

// URLValues serves every source from one url.Values.
type URLValues url.Values

func (v URLValues) Lookup(_ Source, name string) []string {
	return v[name]
}

// RequestValues reads parameters from an HTTP request.
type RequestValues struct {
	r *http.Request
}

// NewRequestValues parses the request form so query and form values are
// available.
func NewRequestValues(r *http.Request) (*RequestValues, error) {
	if r == nil {
		return nil, fmt.Errorf("binding: request is nil")
	}
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("binding: parse form: %w", err)
	}
	return &RequestValues{r: r}, nil
}

func (v *RequestValues) Lookup(source Source, name string) []string {
	switch source {
	case SourceQuery:
		return v.r.URL.Query()[name]
	case SourceForm:
		return v.r.PostForm[name]
	case SourcePath:
		if value := v.r.PathValue(name); value != "" {
			return []string{value}
		}
		return nil
	case SourceHeader:
		return v.r.Header.Values(name)
	default:
		return v.r.Form[name]
	}
}
