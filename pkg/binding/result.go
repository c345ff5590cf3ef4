package binding

import "sort"

// State is the aggregator state. It only ever moves from StateEmpty to
// StateHasErrors.
type State int

const (
	StateEmpty State = iota
	StateHasErrors
)

func (s State) String() string {
	if s == StateHasErrors {
		return "has_errors"
	}
	return "empty"
}

// Result collects the binding failures of a single request. A Result is
// created per request with NewResult and must not be shared across requests.
// Only the Binder appends to it; handlers read it.
type Result struct {
	errors []ValidationError
	seen   map[resultKey]struct{}
}

type resultKey struct {
	param   string
	kind    Kind
	message string
}

// NewResult returns an empty Result.
func NewResult() *Result {
	return &Result{}
}

// append records err unless an identical (param, kind, message) entry already
// exists. It reports whether err was added.
func (r *Result) append(err ValidationError) bool {
	key := resultKey{param: err.Param, kind: err.Kind, message: err.Message}
	if _, dup := r.seen[key]; dup {
		return false
	}
	if r.seen == nil {
		r.seen = make(map[resultKey]struct{})
	}
	r.seen[key] = struct{}{}
	r.errors = append(r.errors, err)
	return true
}

// IsFailed reports whether any error has been recorded.
func (r *Result) IsFailed() bool {
	return r != nil && len(r.errors) > 0
}

// State returns the current aggregator state.
func (r *Result) State() State {
	if r.IsFailed() {
		return StateHasErrors
	}
	return StateEmpty
}

// Len returns the number of recorded errors.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.errors)
}

// Errors returns the recorded errors in the order they occurred.
func (r *Result) Errors() []ValidationError {
	if r == nil {
		return nil
	}
	return append([]ValidationError(nil), r.errors...)
}

// ErrorsFor returns the errors recorded for param.
func (r *Result) ErrorsFor(param string) []ValidationError {
	if r == nil {
		return nil
	}
	var out []ValidationError
	for _, err := range r.errors {
		if err.Param == param {
			out = append(out, err)
		}
	}
	return out
}

// HasErrorsFor reports whether param has at least one recorded error.
func (r *Result) HasErrorsFor(param string) bool {
	return len(r.ErrorsFor(param)) > 0
}

// Params lists the parameters with errors, sorted.
func (r *Result) Params() []string {
	if r == nil {
		return nil
	}
	set := make(map[string]struct{}, len(r.errors))
	for _, err := range r.errors {
		set[err.Param] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for param := range set {
		out = append(out, param)
	}
	sort.Strings(out)
	return out
}

// Messages groups error messages by parameter, for templates.
func (r *Result) Messages() map[string][]string {
	out := make(map[string][]string)
	if r == nil {
		return out
	}
	for _, err := range r.errors {
		out[err.Param] = append(out[err.Param], err.Message)
	}
	return out
}
