package render

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/goliatone/go-mvc/internal/ctxlog"
	"github.com/goliatone/go-mvc/pkg/metrics"
	"github.com/goliatone/go-mvc/pkg/view"
)

// RegistryOption configures a Registry before its engine set is frozen.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	providers []Provider
	overrides map[string]int
	disabled  map[string]struct{}
	logger    *slog.Logger
	metrics   *metrics.Collector
}

// WithProvider adds a descriptor provider. Providers are enumerated in the
// order they are supplied.
func WithProvider(provider Provider) RegistryOption {
	return func(cfg *registryConfig) {
		if provider != nil {
			cfg.providers = append(cfg.providers, provider)
		}
	}
}

// WithEngines registers engines using their own or the default priority.
func WithEngines(engines ...Engine) RegistryOption {
	return WithProvider(Engines(engines...))
}

// WithPriorityOverrides replaces the priority of named engines. Overrides are
// applied once, before the registry is frozen.
func WithPriorityOverrides(overrides map[string]int) RegistryOption {
	return func(cfg *registryConfig) {
		if len(overrides) == 0 {
			return
		}
		if cfg.overrides == nil {
			cfg.overrides = make(map[string]int, len(overrides))
		}
		for name, priority := range overrides {
			cfg.overrides[strings.TrimSpace(name)] = priority
		}
	}
}

// WithDisabled drops the named engines during enumeration.
func WithDisabled(names ...string) RegistryOption {
	return func(cfg *registryConfig) {
		if cfg.disabled == nil {
			cfg.disabled = make(map[string]struct{}, len(names))
		}
		for _, name := range names {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				cfg.disabled[trimmed] = struct{}{}
			}
		}
	}
}

// WithRegistryLogger sets the logger used for discarded engines.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.logger = logger
	}
}

// WithRegistryMetrics records selection failures and predicate panics.
func WithRegistryMetrics(collector *metrics.Collector) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.metrics = collector
	}
}

// Registry is the frozen set of view engines. The set is enumerated once in
// NewRegistry and never changes afterwards, so lookups take no locks and can
// run concurrently from any number of requests.
type Registry struct {
	descriptors []Descriptor
	logger      *slog.Logger
	metrics     *metrics.Collector
}

// NewRegistry enumerates every provider and freezes the resulting engine set.
// Nil engines, blank names, disabled names, and duplicate names are dropped;
// for duplicates the first registration wins.
func NewRegistry(options ...RegistryOption) *Registry {
	cfg := registryConfig{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]struct{})
	var descriptors []Descriptor
	for _, provider := range cfg.providers {
		for _, d := range provider() {
			if d.Engine == nil {
				continue
			}
			name := strings.TrimSpace(d.Name())
			if name == "" {
				logger.Warn("render: skipping engine without a name")
				continue
			}
			if _, off := cfg.disabled[name]; off {
				logger.Debug("render: engine disabled", "engine", name)
				continue
			}
			if _, dup := seen[name]; dup {
				logger.Warn("render: duplicate engine ignored", "engine", name)
				continue
			}
			seen[name] = struct{}{}
			if priority, ok := cfg.overrides[name]; ok {
				d.Priority = priority
			}
			descriptors = append(descriptors, d)
		}
	}

	return &Registry{
		descriptors: descriptors,
		logger:      cfg.logger,
		metrics:     cfg.metrics,
	}
}

// Select returns the highest priority engine supporting v. Engines with equal
// priority keep their discovery order. An engine whose Supports panics is
// logged and skipped. When nothing supports v the error wraps
// ErrEngineNotFound.
func (r *Registry) Select(ctx context.Context, v view.View) (Descriptor, error) {
	if r == nil {
		return Descriptor{}, fmt.Errorf("%w %q: registry is nil", ErrEngineNotFound, v.Path)
	}

	candidates := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		if r.supports(ctx, d, v) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		r.metrics.RecordEngineNotFound()
		return Descriptor{}, fmt.Errorf("%w %q", ErrEngineNotFound, v.Path)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})
	return candidates[0], nil
}

func (r *Registry) supports(ctx context.Context, d Descriptor, v view.View) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
			r.metrics.RecordPredicatePanic(d.Name())
			ctxlog.Or(ctx, r.logger).Warn("render: engine predicate panicked",
				"engine", d.Name(),
				"view", v.Path,
				"panic", fmt.Sprint(rec),
			)
		}
	}()
	return d.Engine.Supports(v)
}

// Get retrieves a descriptor by engine name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	for _, d := range r.descriptors {
		if d.Name() == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Has reports whether an engine is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns engine names in discovery order.
func (r *Registry) List() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		names = append(names, d.Name())
	}
	return names
}

// Descriptors returns a copy of the frozen descriptor set.
func (r *Registry) Descriptors() []Descriptor {
	if r == nil {
		return nil
	}
	return append([]Descriptor(nil), r.descriptors...)
}

// Len returns the number of registered engines.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.descriptors)
}
