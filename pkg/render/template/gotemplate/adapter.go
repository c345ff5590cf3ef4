package gotemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/fsnotify/fsnotify"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-mvc/pkg/render/template"
)

// Option configures the pongo2 adapter before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extension  string
	filters    map[string]template.FilterFunc
	globalData map[string]any
	watch      bool
	logger     *slog.Logger
}

// WithBaseDir configures the underlying engine to load templates from a base
// directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS configures the underlying engine to load templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the default template extension used by the engine.
// An empty value keeps template names verbatim.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			cfg.extension = ""
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithFilters registers pongo2 filters when the engine is built.
func WithFilters(filters map[string]template.FilterFunc) Option {
	return func(cfg *config) {
		if len(filters) == 0 {
			return
		}
		if cfg.filters == nil {
			cfg.filters = make(map[string]template.FilterFunc, len(filters))
		}
		for name, fn := range filters {
			cfg.filters[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds global context values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithWatch reloads compiled templates whenever files under the base
// directory change. It has no effect for fs.FS-only engines.
func WithWatch(enabled bool) Option {
	return func(cfg *config) {
		cfg.watch = enabled
	}
}

// WithLogger sets the logger used by the file watcher.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// Engine satisfies template.TemplateRenderer using a pongo2 template set.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	tplExt      string

	watcher *fsnotify.Watcher
	done    chan struct{}
	logger  *slog.Logger
}

var (
	_ template.TemplateRenderer = (*Engine)(nil)
	_ template.Reloader         = (*Engine)(nil)
)

// New constructs an Engine using the provided configuration options.
func New(options ...Option) (*Engine, error) {
	cfg := &config{
		extension: ".tpl",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("gotemplate: need to provide either base dir or fs.FS")
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		templateSet: pongo2.NewSet("mvc", loaders...),
		templates:   make(map[string]*pongo2.Template),
		tplExt:      cfg.extension,
		logger:      logger,
	}
	registerDefaultFilters()

	if err := engine.GlobalContext(cfg.globalData); err != nil {
		return nil, fmt.Errorf("gotemplate: apply global data: %w", err)
	}
	for name, fn := range cfg.filters {
		if err := engine.RegisterFilter(name, fn); err != nil {
			return nil, err
		}
	}

	if cfg.watch && cfg.baseDir != "" {
		if err := engine.watch(cfg.baseDir); err != nil {
			return nil, err
		}
	}

	return engine, nil
}

// RenderTemplate renders a named template, appending the configured extension
// when the name lacks it.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("gotemplate: engine is nil")
	}
	templatePath := name
	if e.tplExt != "" && !strings.HasSuffix(templatePath, e.tplExt) {
		templatePath += e.tplExt
	}

	tmpl, err := e.getTemplate(templatePath)
	if err != nil {
		return "", err
	}

	viewContext, err := convertToContext(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: convert data: %w", err)
	}

	var buf bytes.Buffer

	e.mu.RLock()
	err = tmpl.ExecuteWriter(viewContext, &buf)
	e.mu.RUnlock()

	if err != nil {
		return "", fmt.Errorf("gotemplate: execute template %q: %w", templatePath, err)
	}

	rendered := buf.String()
	if err := writeAll(rendered, out); err != nil {
		return "", err
	}
	return rendered, nil
}

// RegisterFilter registers a pongo2 filter. pongo2 filters are process-wide:
// registering an existing name replaces it for every template set.
func (e *Engine) RegisterFilter(name string, fn template.FilterFunc) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("gotemplate: filter name and function required")
	}

	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}

	filterMu.Lock()
	defer filterMu.Unlock()
	if pongo2.FilterExists(name) {
		if err := pongo2.ReplaceFilter(name, filter); err != nil {
			return fmt.Errorf("gotemplate: replace filter %q: %w", name, err)
		}
		return nil
	}
	if err := pongo2.RegisterFilter(name, filter); err != nil {
		return fmt.Errorf("gotemplate: register filter %q: %w", name, err)
	}
	return nil
}

// GlobalContext seeds global data on the template set.
func (e *Engine) GlobalContext(data any) error {
	if e == nil || e.templateSet == nil {
		return errors.New("gotemplate: engine is nil")
	}
	if data == nil {
		return nil
	}

	globalCtx, err := convertToContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals.Update(globalCtx)
	return nil
}

// Reload drops every compiled template so the next render reads sources
// again.
func (e *Engine) Reload() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.templates = make(map[string]*pongo2.Template)
	e.templateSet.CleanCache()
}

// Close stops the file watcher, if any.
func (e *Engine) Close() error {
	if e == nil || e.watcher == nil {
		return nil
	}
	close(e.done)
	err := e.watcher.Close()
	e.watcher = nil
	return err
}

func (e *Engine) watch(dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("gotemplate: create watcher: %w", err)
	}
	if err := addTree(watcher, dir); err != nil {
		_ = watcher.Close()
		return err
	}
	e.watcher = watcher
	e.done = make(chan struct{})

	go func(events <-chan fsnotify.Event, errs <-chan error, done <-chan struct{}) {
		for {
			select {
			case <-done:
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				// fsnotify is not recursive: new directories are added as they appear.
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := addTree(watcher, event.Name); err != nil {
							e.logger.Warn("gotemplate: watch new directory failed", "dir", event.Name, "error", err)
						}
					}
				}
				e.logger.Debug("gotemplate: reloading templates", "file", event.Name, "op", event.Op.String())
				e.Reload()
			case err, ok := <-errs:
				if !ok {
					return
				}
				e.logger.Warn("gotemplate: watcher error", "error", err)
			}
		}
	}(watcher.Events, watcher.Errors, e.done)
	return nil
}

// addTree watches dir and every directory below it.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("gotemplate: watch %q: %w", path, err)
		}
		return nil
	})
}

func (e *Engine) getTemplate(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.templates[path]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}

	tmpl, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load template %q: %w", path, err)
	}

	e.templates[path] = tmpl
	return tmpl, nil
}

func writeAll(rendered string, out []io.Writer) error {
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return err
		}
	}
	return nil
}

// convertToContext turns data into a pongo2 context. Maps are copied with
// their values untouched so templates can reach struct fields and methods;
// any other top-level value is flattened through JSON.
func convertToContext(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return copyContext(v), nil
	case map[string]any:
		return copyContext(v), nil
	default:
		m, err := jsonToMap(v)
		if err != nil {
			return nil, err
		}
		return copyContext(m), nil
	}
}

func copyContext(in map[string]any) pongo2.Context {
	out := make(pongo2.Context, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func jsonToMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var ugcPolicy = bluemonday.UGCPolicy()

// filterMu serialises changes to pongo2's process-wide filter table.
var filterMu sync.Mutex

func registerDefaultFilters() {
	filterMu.Lock()
	defer filterMu.Unlock()
	if !pongo2.FilterExists("trim") {
		_ = pongo2.RegisterFilter("trim", filterTrim)
	}
	if !pongo2.FilterExists("sanitize") {
		_ = pongo2.RegisterFilter("sanitize", filterSanitize)
	}
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

// filterSanitize strips unsafe markup and marks the result safe so autoescape
// leaves the allowed tags intact.
func filterSanitize(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsSafeValue(ugcPolicy.Sanitize(in.String())), nil
}
