package mvc

import (
	"context"
	"net/http"

	"github.com/goliatone/go-mvc/pkg/binding"
	"github.com/goliatone/go-mvc/pkg/model"
)

// Request is what a controller sees: the bound values, the binding result,
// and the originating HTTP request.
type Request struct {
	Values map[string]any
	// Form is the struct bound from tagged fields, when the controller
	// declares one.
	Form   any
	Result *binding.Result
	HTTP   *http.Request
	ID     string
}

// Value returns the bound value name as T.
func Value[T any](req *Request, name string) (T, bool) {
	var zero T
	if req == nil {
		return zero, false
	}
	raw, ok := req.Values[name]
	if !ok {
		return zero, false
	}
	typed, ok := raw.(T)
	return typed, ok
}

// Response names the view to render and the models it sees.
type Response struct {
	View   string
	Models *model.Models
	Status int
}

// View is shorthand for a 200 response rendering name.
func View(name string, models *model.Models) Response {
	return Response{View: name, Models: models}
}

// HandlerFunc handles one request.
type HandlerFunc func(ctx context.Context, req *Request) (Response, error)

// Controller declares the parameters a handler binds and the handler itself.
type Controller struct {
	Params []binding.Param
	// NewForm returns a fresh pointer to a struct bound from its tags on
	// every request. The form receives the binding result when it declares
	// a *binding.Result field or a SetBindingResult method.
	NewForm func() any
	Handle  HandlerFunc
}
