package template

import (
	"io"
)

// FilterFunc transforms a template value. param is nil when the filter is
// used without an argument.
type FilterFunc func(input any, param any) (any, error)

// TemplateRenderer is the seam template-backed view engines render through.
// The gotemplate package provides the pongo2 implementation.
type TemplateRenderer interface {
	// RenderTemplate executes the named template with data and writes the
	// result to every writer in out.
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn FilterFunc) error
	GlobalContext(data any) error
}

// Reloader is implemented by renderers that cache compiled templates and can
// drop that cache when sources change.
type Reloader interface {
	Reload()
}
