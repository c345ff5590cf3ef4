// Package pongo provides the template view engine: views are pongo2
// templates, and every request attribute is exposed as a template variable
// before execution.
package pongo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/goliatone/go-mvc/pkg/render"
	rendertemplate "github.com/goliatone/go-mvc/pkg/render/template"
	gotemplate "github.com/goliatone/go-mvc/pkg/render/template/gotemplate"
	"github.com/goliatone/go-mvc/pkg/view"
)

// Name is the registry name of the template engine.
const Name = "pongo"

// DefaultExtensions lists the view extensions the engine supports.
var DefaultExtensions = []string{".tpl", ".html", ".django"}

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateDir      string
	templateRenderer rendertemplate.TemplateRenderer
	extensions       []string
	baseFolder       string
	priority         int
	watch            bool
	globals          map[string]any
	filters          map[string]rendertemplate.FilterFunc
	logger           *slog.Logger
}

// WithTemplatesFS supplies the template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templateDir = strings.TrimSpace(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithExtensions replaces the supported view extensions.
func WithExtensions(extensions ...string) Option {
	return func(cfg *config) {
		cfg.extensions = extensions
	}
}

// WithBaseFolder sets the prefix stripped from view paths to obtain template
// names. It should match the dispatcher's resolver base folder.
func WithBaseFolder(base string) Option {
	return func(cfg *config) {
		cfg.baseFolder = base
	}
}

// WithPriority sets the priority the engine declares.
func WithPriority(priority int) Option {
	return func(cfg *config) {
		cfg.priority = priority
	}
}

// WithWatch reloads templates from disk when they change. Only applies to
// WithTemplatesDir.
func WithWatch(enabled bool) Option {
	return func(cfg *config) {
		cfg.watch = enabled
	}
}

// WithGlobals seeds values visible to every template. Request attributes
// with the same name win.
func WithGlobals(globals map[string]any) Option {
	return func(cfg *config) {
		cfg.globals = globals
	}
}

// WithFilters registers template filters on the renderer. pongo2 filters
// are process-wide, so a name registered twice keeps the last function.
func WithFilters(filters map[string]rendertemplate.FilterFunc) Option {
	return func(cfg *config) {
		if cfg.filters == nil {
			cfg.filters = make(map[string]rendertemplate.FilterFunc, len(filters))
		}
		for name, fn := range filters {
			cfg.filters[name] = fn
		}
	}
}

// WithLogger sets the logger handed to the template adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// Engine renders pongo2 templates.
type Engine struct {
	templates  rendertemplate.TemplateRenderer
	extensions map[string]struct{}
	baseFolder string
	priority   int
	owned      *gotemplate.Engine
}

var _ render.Engine = (*Engine)(nil)

// New constructs the template engine applying any provided options.
func New(options ...Option) (*Engine, error) {
	cfg := config{
		extensions: DefaultExtensions,
		baseFolder: view.DefaultBaseFolder,
		priority:   render.DefaultPriority,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	engine := &Engine{
		extensions: normaliseExtensions(cfg.extensions),
		baseFolder: view.NewResolver(cfg.baseFolder).Base(),
		priority:   cfg.priority,
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		opts := []gotemplate.Option{
			gotemplate.WithExtension(""),
			gotemplate.WithGlobalData(cfg.globals),
			gotemplate.WithFilters(cfg.filters),
			gotemplate.WithLogger(cfg.logger),
		}
		switch {
		case cfg.templateDir != "":
			if _, err := os.Stat(cfg.templateDir); err != nil {
				return nil, fmt.Errorf("pongo engine: templates dir: %w", err)
			}
			opts = append(opts, gotemplate.WithBaseDir(cfg.templateDir), gotemplate.WithWatch(cfg.watch))
		case cfg.templateFS != nil:
			opts = append(opts, gotemplate.WithFS(cfg.templateFS))
		default:
			return nil, errors.New("pongo engine: templates dir, fs, or renderer is required")
		}
		owned, err := gotemplate.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("pongo engine: configure template renderer: %w", err)
		}
		engine.owned = owned
		renderer = owned
	} else {
		if len(cfg.globals) > 0 {
			if err := renderer.GlobalContext(cfg.globals); err != nil {
				return nil, fmt.Errorf("pongo engine: apply globals: %w", err)
			}
		}
		for name, fn := range cfg.filters {
			if err := renderer.RegisterFilter(name, fn); err != nil {
				return nil, fmt.Errorf("pongo engine: register filter %q: %w", name, err)
			}
		}
	}
	engine.templates = renderer

	return engine, nil
}

func (e *Engine) Name() string {
	return Name
}

func (e *Engine) Priority() int {
	return e.priority
}

// Supports reports whether v has one of the configured extensions.
func (e *Engine) Supports(v view.View) bool {
	_, ok := e.extensions[v.Ext()]
	return ok
}

// Render executes the template named after the view path, relative to the
// base folder, with the request attributes as its context.
func (e *Engine) Render(ctx context.Context, rc *render.RenderContext) error {
	if e.templates == nil {
		return errors.New("pongo engine: template renderer is nil")
	}

	data := rc.Models()
	if attrs := render.AttributesFrom(ctx); attrs != nil {
		data = attrs.Map()
	}

	name := rc.View().Trim(e.baseFolder)
	if _, err := e.templates.RenderTemplate(name, data, rc.Out()); err != nil {
		return fmt.Errorf("pongo engine: render %q: %w", name, err)
	}
	return nil
}

// Reload drops compiled templates when the renderer supports it.
func (e *Engine) Reload() {
	if reloader, ok := e.templates.(rendertemplate.Reloader); ok {
		reloader.Reload()
	}
}

// Close releases the template watcher owned by the engine.
func (e *Engine) Close() error {
	if e.owned == nil {
		return nil
	}
	return e.owned.Close()
}

func normaliseExtensions(extensions []string) map[string]struct{} {
	out := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = struct{}{}
	}
	return out
}
