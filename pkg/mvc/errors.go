package mvc

import (
	"context"
	"errors"
	"net/http"
)

// StatusCoder is implemented by errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// StatusError attaches an HTTP status to an error.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.StatusCode())
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// StatusOf is the default error mapping: the status of the first StatusCoder
// in the chain, otherwise 500. Constraint violations carry 400; conversion
// and view engine errors carry 500.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var coder StatusCoder
	if errors.As(err, &coder) {
		if code := coder.StatusCode(); code > 0 {
			return code
		}
	}
	return http.StatusInternalServerError
}

type mapper func(ctx context.Context, err error) (Response, bool)

// Mappers turns handler, binding, and render errors into responses. Mappers
// are tried in registration order; the first one whose type matches wins.
type Mappers struct {
	entries []mapper
}

// NewMappers returns an empty set; unmatched errors use StatusOf.
func NewMappers() *Mappers {
	return &Mappers{}
}

// Register adds a mapper for errors of type T, matched with errors.As.
func Register[T error](m *Mappers, fn func(ctx context.Context, err T) Response) {
	if m == nil || fn == nil {
		return
	}
	m.entries = append(m.entries, func(ctx context.Context, err error) (Response, bool) {
		var target T
		if !errors.As(err, &target) {
			return Response{}, false
		}
		return fn(ctx, target), true
	})
}

// Map returns the response for err. Responses without a status get the
// default mapping.
func (m *Mappers) Map(ctx context.Context, err error) Response {
	var resp Response
	if m != nil {
		for _, entry := range m.entries {
			if mapped, ok := entry(ctx, err); ok {
				resp = mapped
				break
			}
		}
	}
	if resp.Status == 0 {
		resp.Status = StatusOf(err)
	}
	return resp
}
