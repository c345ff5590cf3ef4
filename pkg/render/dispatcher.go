package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-mvc/internal/ctxlog"
	"github.com/goliatone/go-mvc/pkg/metrics"
	"github.com/goliatone/go-mvc/pkg/model"
	"github.com/goliatone/go-mvc/pkg/view"
)

const tracerName = "github.com/goliatone/go-mvc/pkg/render"

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithResolver sets the view resolver. Defaults to view.DefaultBaseFolder.
func WithResolver(resolver view.Resolver) DispatcherOption {
	return func(d *Dispatcher) {
		d.resolver = resolver
	}
}

// WithLogger sets the dispatcher logger. When unset the logger carried by the
// request context is used.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics records render outcomes on collector.
func WithMetrics(collector *metrics.Collector) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = collector
	}
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// Dispatcher resolves views, selects an engine, binds the model, and renders.
type Dispatcher struct {
	registry *Registry
	resolver view.Resolver
	logger   *slog.Logger
	metrics  *metrics.Collector
	tracer   trace.Tracer
}

// NewDispatcher constructs a Dispatcher over registry.
func NewDispatcher(registry *Registry, options ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		resolver: view.NewResolver(view.DefaultBaseFolder),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(d)
	}
	return d
}

// Registry returns the engine registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Resolver returns the view resolver.
func (d *Dispatcher) Resolver() view.Resolver {
	return d.resolver
}

// DispatchOption attaches per-request handles to a dispatch.
type DispatchOption func(*dispatchConfig)

type dispatchConfig struct {
	request   *http.Request
	response  http.ResponseWriter
	requestID string
}

// WithHTTP attaches the HTTP request and response to the RenderContext.
func WithHTTP(r *http.Request, w http.ResponseWriter) DispatchOption {
	return func(cfg *dispatchConfig) {
		cfg.request = r
		cfg.response = w
	}
}

// WithRequestID sets the request id reported in logs and spans.
func WithRequestID(id string) DispatchOption {
	return func(cfg *dispatchConfig) {
		cfg.requestID = id
	}
}

// Dispatch renders viewName with models into out. Every failure, including
// resolution, selection, engine errors, engine panics, sink write errors, and
// context cancellation, is returned as a *ViewEngineError.
func (d *Dispatcher) Dispatch(ctx context.Context, viewName string, models *model.Models, out io.Writer, options ...DispatchOption) error {
	return d.DispatchView(ctx, view.View{Path: viewName}, models, out, options...)
}

// DispatchView is Dispatch for a View that may already be resolved.
func (d *Dispatcher) DispatchView(ctx context.Context, v view.View, models *model.Models, out io.Writer, options ...DispatchOption) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := dispatchConfig{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.requestID == "" {
		cfg.requestID = uuid.NewString()
	}
	logger := ctxlog.Or(ctx, d.logger).With("request_id", cfg.requestID)

	resolved, err := d.resolver.ResolveView(v)
	if err != nil {
		return &ViewEngineError{Op: OpResolve, View: v.Path, Err: err}
	}

	ctx, span := d.tracer.Start(ctx, "mvc.render", trace.WithAttributes(
		attribute.String("mvc.view", resolved.Path),
		attribute.String("mvc.request_id", cfg.requestID),
	))
	defer span.End()

	selected, err := d.registry.Select(ctx, resolved)
	if err != nil {
		logger.Error("render: engine selection failed", "view", resolved.Path, "error", err)
		return d.fail(span, &ViewEngineError{Op: OpSelect, View: resolved.Path, Err: err})
	}
	engineName := selected.Name()
	span.SetAttributes(attribute.String("mvc.engine", engineName))

	// The whole model is bound before the engine is invoked.
	snapshot := models.AsMap()
	ctx = WithAttributes(ctx, NewAttributes(snapshot))
	request := cfg.request
	if request != nil {
		request = request.WithContext(ctx)
	}

	if out == nil {
		out = io.Discard
	}
	target := &sink{w: out}
	rc := &RenderContext{
		view:      resolved,
		models:    snapshot,
		out:       target,
		request:   request,
		response:  cfg.response,
		requestID: cfg.requestID,
	}

	started := time.Now()
	err = invoke(ctx, selected.Engine, rc)
	if err == nil {
		err = target.err
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		d.metrics.RecordRender(engineName, metrics.StatusError, time.Since(started))
		logger.Error("render: engine failed", "view", resolved.Path, "engine", engineName, "error", err)
		return d.fail(span, &ViewEngineError{Op: OpRender, View: resolved.Path, Engine: engineName, Err: err})
	}

	d.metrics.RecordRender(engineName, metrics.StatusOK, time.Since(started))
	logger.Debug("render: view rendered", "view", resolved.Path, "engine", engineName, "bytes", target.n)
	return nil
}

func (d *Dispatcher) fail(span trace.Span, err *ViewEngineError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Op)
	return err
}

func invoke(ctx context.Context, engine Engine, rc *RenderContext) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render: engine panicked: %v", rec)
		}
	}()
	return engine.Render(ctx, rc)
}

// sink records the first write error so failures an engine ignores still
// surface from Dispatch.
type sink struct {
	w   io.Writer
	n   int64
	err error
}

func (s *sink) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.n += int64(n)
	if err != nil && s.err == nil {
		s.err = err
	}
	return n, err
}
