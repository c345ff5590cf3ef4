package component

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-mvc/pkg/render"
)

var htmlPolicy = bluemonday.UGCPolicy()

// Value returns the request attribute name as T.
func Value[T any](ctx context.Context, name string) (T, bool) {
	var zero T
	raw, ok := render.Attribute(ctx, name)
	if !ok {
		return zero, false
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Text writes the attribute name HTML-escaped. Missing attributes render
// nothing.
func Text(name string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		raw, ok := render.Attribute(ctx, name)
		if !ok || raw == nil {
			return nil
		}
		_, err := io.WriteString(w, templ.EscapeString(fmt.Sprint(raw)))
		return err
	})
}

// SafeHTML writes the attribute name as HTML after running it through the
// user-generated-content sanitizer.
func SafeHTML(name string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		raw, ok := render.Attribute(ctx, name)
		if !ok || raw == nil {
			return nil
		}
		_, err := io.WriteString(w, htmlPolicy.Sanitize(fmt.Sprint(raw)))
		return err
	})
}

// Func adapts fn into a component that receives the request attributes.
func Func(fn func(ctx context.Context, attrs *render.Attributes, w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return fn(ctx, render.AttributesFrom(ctx), w)
	})
}
