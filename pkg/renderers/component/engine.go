// Package component provides the component-tree view engine. Views name
// templ components registered in a catalog; components read request
// attributes from the render context.
package component

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/a-h/templ"

	"github.com/goliatone/go-mvc/pkg/render"
	"github.com/goliatone/go-mvc/pkg/view"
)

// Name is the registry name of the component engine.
const Name = "component"

// Extension marks a view as a component view. Views without an extension are
// accepted as well when their name is in the catalog.
const Extension = ".templ"

type Option func(*Engine)

// WithComponent registers c under name. Names are stored without the base
// folder or extension, e.g. "users/show".
func WithComponent(name string, c templ.Component) Option {
	return func(e *Engine) {
		if key := catalogKey(name); key != "" && c != nil {
			e.components[key] = c
		}
	}
}

// WithComponents registers every entry of catalog.
func WithComponents(catalog map[string]templ.Component) Option {
	return func(e *Engine) {
		for name, c := range catalog {
			WithComponent(name, c)(e)
		}
	}
}

// WithLayout wraps every page in layout. The page is passed as the layout's
// children.
func WithLayout(layout templ.Component) Option {
	return func(e *Engine) {
		e.layout = layout
	}
}

// WithBaseFolder sets the prefix stripped from view paths before the catalog
// lookup.
func WithBaseFolder(base string) Option {
	return func(e *Engine) {
		e.baseFolder = view.NewResolver(base).Base()
	}
}

// WithPriority sets the priority the engine declares.
func WithPriority(priority int) Option {
	return func(e *Engine) {
		e.priority = priority
	}
}

// Engine renders templ components looked up by view name. The catalog is
// fixed at construction.
type Engine struct {
	components map[string]templ.Component
	layout     templ.Component
	baseFolder string
	priority   int
}

var _ render.Engine = (*Engine)(nil)

// New builds a component engine.
func New(options ...Option) *Engine {
	e := &Engine{
		components: make(map[string]templ.Component),
		baseFolder: view.DefaultBaseFolder,
		priority:   render.DefaultPriority,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

func (e *Engine) Name() string {
	return Name
}

func (e *Engine) Priority() int {
	return e.priority
}

// Supports reports whether v is a .templ (or extension-less) view with a
// registered component.
func (e *Engine) Supports(v view.View) bool {
	ext := v.Ext()
	if ext != "" && ext != Extension {
		return false
	}
	_, ok := e.components[e.key(v)]
	return ok
}

// Components lists the catalog keys in sorted order.
func (e *Engine) Components() []string {
	keys := make([]string, 0, len(e.components))
	for key := range e.components {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Render writes the component for the view to the render sink.
func (e *Engine) Render(ctx context.Context, rc *render.RenderContext) error {
	key := e.key(rc.View())
	c, ok := e.components[key]
	if !ok {
		return fmt.Errorf("component engine: no component %q", key)
	}
	if e.layout != nil {
		if err := e.layout.Render(templ.WithChildren(ctx, c), rc.Out()); err != nil {
			return fmt.Errorf("component engine: render layout for %q: %w", key, err)
		}
		return nil
	}
	if err := c.Render(ctx, rc.Out()); err != nil {
		return fmt.Errorf("component engine: render %q: %w", key, err)
	}
	return nil
}

func (e *Engine) key(v view.View) string {
	return catalogKey(v.Trim(e.baseFolder))
}

func catalogKey(name string) string {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if strings.EqualFold(path.Ext(name), Extension) {
		name = strings.TrimSuffix(name, path.Ext(name))
	}
	return name
}
