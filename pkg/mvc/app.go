package mvc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-mvc/internal/ctxlog"
	"github.com/goliatone/go-mvc/pkg/binding"
	"github.com/goliatone/go-mvc/pkg/config"
	"github.com/goliatone/go-mvc/pkg/metrics"
	"github.com/goliatone/go-mvc/pkg/render"
	"github.com/goliatone/go-mvc/pkg/renderers/pongo"
	"github.com/goliatone/go-mvc/pkg/view"
)

// Option customises the App.
type Option func(*App)

// WithConfig sets the configuration used to build the defaults.
func WithConfig(cfg config.Config) Option {
	return func(a *App) {
		a.cfg = cfg
	}
}

// WithEngines registers engines in addition to the configured template
// engine. Ignored when WithDispatcher or WithRegistry is supplied.
func WithEngines(engines ...render.Engine) Option {
	return func(a *App) {
		a.engines = append(a.engines, engines...)
	}
}

// WithRegistry injects a prebuilt engine registry.
func WithRegistry(registry *render.Registry) Option {
	return func(a *App) {
		a.registry = registry
	}
}

// WithDispatcher injects a prebuilt dispatcher.
func WithDispatcher(dispatcher *render.Dispatcher) Option {
	return func(a *App) {
		a.dispatcher = dispatcher
	}
}

// WithBinder injects a parameter binder.
func WithBinder(binder *binding.Binder) Option {
	return func(a *App) {
		a.binder = binder
	}
}

// WithMappers sets the error mappers.
func WithMappers(mappers *Mappers) Option {
	return func(a *App) {
		a.mappers = mappers
	}
}

// WithLogger sets the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithMetrics sets the metrics collector. When unset and metrics are enabled
// in the configuration a collector is created.
func WithMetrics(collector *metrics.Collector) Option {
	return func(a *App) {
		a.metrics = collector
	}
}

// App wires the engine registry, dispatcher, binder, and error mappers that
// controllers are served through. Missing pieces are built from the
// configuration.
type App struct {
	cfg        config.Config
	engines    []render.Engine
	registry   *render.Registry
	dispatcher *render.Dispatcher
	binder     *binding.Binder
	mappers    *Mappers
	logger     *slog.Logger
	metrics    *metrics.Collector
	closers    []io.Closer
	initErr    error
}

// New constructs an App applying any provided options. Configuration errors
// are reported by Err and make every handler answer 500.
func New(options ...Option) *App {
	a := &App{cfg: config.Default()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}
	a.applyDefaults()
	return a
}

func (a *App) applyDefaults() {
	if err := a.cfg.Validate(); err != nil {
		a.initErr = err
	}
	if a.logger == nil {
		logger, err := a.cfg.Logger(nil)
		if err != nil {
			a.initErr = errors.Join(a.initErr, err)
			logger = slog.Default()
		}
		a.logger = logger
	}
	if a.metrics == nil && a.cfg.Metrics.Enabled {
		a.metrics = metrics.NewCollector(metrics.Config{
			Namespace: a.cfg.Metrics.Namespace,
			Subsystem: a.cfg.Metrics.Subsystem,
		}, nil)
	}
	if a.dispatcher == nil {
		if a.registry == nil {
			a.registry = a.buildRegistry()
		}
		a.dispatcher = render.NewDispatcher(a.registry,
			render.WithResolver(view.NewResolver(a.cfg.Views.BaseFolder)),
			render.WithLogger(a.logger),
			render.WithMetrics(a.metrics),
		)
	} else if a.registry == nil {
		a.registry = a.dispatcher.Registry()
	}
	if a.binder == nil {
		a.binder = binding.NewBinder(
			binding.WithLogger(a.logger),
			binding.WithMetrics(a.metrics),
		)
	}
	if a.mappers == nil {
		a.mappers = NewMappers()
	}
}

func (a *App) buildRegistry() *render.Registry {
	engines := append([]render.Engine(nil), a.engines...)
	if dir := a.cfg.Views.TemplateDir; dir != "" {
		options := []pongo.Option{
			pongo.WithTemplatesDir(dir),
			pongo.WithBaseFolder(a.cfg.Views.BaseFolder),
			pongo.WithWatch(a.cfg.Views.Watch),
			pongo.WithLogger(a.logger),
			pongo.WithPriority(a.defaultPriority()),
		}
		if len(a.cfg.Views.TemplateExtensions) > 0 {
			options = append(options, pongo.WithExtensions(a.cfg.Views.TemplateExtensions...))
		}
		engine, err := pongo.New(options...)
		if err != nil {
			a.initErr = errors.Join(a.initErr, err)
		} else {
			engines = append(engines, engine)
			a.closers = append(a.closers, engine)
		}
	}
	return render.NewRegistry(
		render.WithProvider(render.EnginesAt(a.defaultPriority(), engines...)),
		render.WithPriorityOverrides(a.cfg.Priorities()),
		render.WithDisabled(a.cfg.Disabled()...),
		render.WithRegistryLogger(a.logger),
		render.WithRegistryMetrics(a.metrics),
	)
}

// defaultPriority is the priority for the configured template engine and for
// engines that declare none.
func (a *App) defaultPriority() int {
	if a.cfg.Views.DefaultPriority == 0 {
		return render.DefaultPriority
	}
	return a.cfg.Views.DefaultPriority
}

// Err reports configuration errors collected while building the App.
func (a *App) Err() error {
	return a.initErr
}

// Handler serves c through the App's dispatcher, binder, and mappers.
func (a *App) Handler(c Controller) http.Handler {
	if a.initErr != nil {
		err := fmt.Errorf("mvc: app not initialised: %w", a.initErr)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a.logger.Error("mvc: request failed", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		})
	}
	inner := Handler(a.dispatcher, a.binder, a.mappers, c)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxlog.WithLogger(r.Context(), a.logger)
		inner.ServeHTTP(w, r.WithContext(ctx))
	})
}

// MetricsHandler exposes the collector registry, or 404s when metrics are
// disabled.
func (a *App) MetricsHandler() http.Handler {
	if a.metrics == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(a.metrics.Registry(), promhttp.HandlerOpts{})
}

// Dispatcher returns the view dispatcher.
func (a *App) Dispatcher() *render.Dispatcher { return a.dispatcher }

// Registry returns the frozen engine registry.
func (a *App) Registry() *render.Registry { return a.registry }

// Binder returns the parameter binder.
func (a *App) Binder() *binding.Binder { return a.binder }

// Mappers returns the error mappers.
func (a *App) Mappers() *Mappers { return a.mappers }

// Metrics returns the collector, which may be nil.
func (a *App) Metrics() *metrics.Collector { return a.metrics }

// Close releases engines the App created.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
