package render

import (
	"context"

	"github.com/goliatone/go-mvc/pkg/view"
)

// DefaultPriority is assigned to engines that declare no priority.
const DefaultPriority = 1

// Engine renders views it supports. Engines are stateless across requests;
// everything request-scoped arrives through the RenderContext.
type Engine interface {
	Name() string
	// Supports reports whether the engine can render v. A panic is treated
	// as "not supported".
	Supports(v view.View) bool
	Render(ctx context.Context, rc *RenderContext) error
}

// Prioritized is implemented by engines that declare their own priority.
type Prioritized interface {
	Priority() int
}
