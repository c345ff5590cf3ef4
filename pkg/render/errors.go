package render

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEngineNotFound reports that no registered engine supports a view.
var ErrEngineNotFound = errors.New("render: no engine for view")

// Dispatch stages reported in ViewEngineError.Op.
const (
	OpResolve = "resolve"
	OpSelect  = "select"
	OpRender  = "render"
)

// ViewEngineError is the only error Dispatch returns. It wraps the original
// cause: selection failures wrap ErrEngineNotFound, render failures wrap
// whatever the engine (or the output sink) returned.
type ViewEngineError struct {
	Op     string
	View   string
	Engine string
	Err    error
}

func (e *ViewEngineError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "render: " + e.Op
	if e.View != "" {
		msg += fmt.Sprintf(" view %q", e.View)
	}
	if e.Engine != "" {
		msg += fmt.Sprintf(" with engine %q", e.Engine)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ViewEngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StatusCode maps every view engine failure to a server error.
func (e *ViewEngineError) StatusCode() int {
	return http.StatusInternalServerError
}
