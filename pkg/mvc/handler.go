package mvc

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-mvc/internal/ctxlog"
	"github.com/goliatone/go-mvc/pkg/binding"
	"github.com/goliatone/go-mvc/pkg/render"
)

// RequestIDHeader is read for an inbound request id and echoed on the
// response.
const RequestIDHeader = "X-Request-Id"

// ErrorModel is the model name an error view receives the error message
// under, unless the mapper already set it.
const ErrorModel = "error"

const defaultContentType = "text/html; charset=utf-8"

// Handler serves c: it binds the request into a fresh binding.Result, runs
// the handler, and renders the returned view. Binding, handler, and render
// errors are turned into responses by mappers.
func Handler(dispatcher *render.Dispatcher, binder *binding.Binder, mappers *Mappers, c Controller) http.Handler {
	if binder == nil {
		binder = binding.NewBinder()
	}
	return &handler{dispatcher: dispatcher, binder: binder, mappers: mappers, controller: c}
}

type handler struct {
	dispatcher *render.Dispatcher
	binder     *binding.Binder
	mappers    *Mappers
	controller Controller
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)

	logger := ctxlog.FromContext(r.Context()).With("request_id", id)
	ctx := ctxlog.WithLogger(r.Context(), logger)
	r = r.WithContext(ctx)

	req, err := h.bind(ctx, r, id)
	if err != nil {
		h.fail(ctx, w, r, id, err)
		return
	}

	if h.controller.Handle == nil {
		h.fail(ctx, w, r, id, StatusError{Code: http.StatusNotImplemented, Err: errors.New("mvc: controller has no handler")})
		return
	}
	resp, err := h.controller.Handle(ctx, req)
	if err != nil {
		h.fail(ctx, w, r, id, err)
		return
	}

	if err := h.write(ctx, w, r, id, resp); err != nil {
		h.fail(ctx, w, r, id, err)
	}
}

func (h *handler) bind(ctx context.Context, r *http.Request, id string) (*Request, error) {
	values, err := binding.NewRequestValues(r)
	if err != nil {
		return nil, StatusError{Code: http.StatusBadRequest, Err: err}
	}

	// One Result per request, shared by the params and the form.
	result := binding.NewResult()
	bound, err := h.binder.BindAll(ctx, h.controller.Params, values, result)
	if err != nil {
		return nil, err
	}

	req := &Request{Values: bound, Result: result, HTTP: r, ID: id}
	if h.controller.NewForm != nil {
		form := h.controller.NewForm()
		if err := h.binder.BindStruct(ctx, form, values, result); err != nil {
			return nil, err
		}
		req.Form = form
	}
	return req, nil
}

// write renders resp into a buffer first so a failed render never leaves a
// partial body behind.
func (h *handler) write(ctx context.Context, w http.ResponseWriter, r *http.Request, id string, resp Response) error {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if strings.TrimSpace(resp.View) == "" {
		w.WriteHeader(status)
		return nil
	}
	if h.dispatcher == nil {
		return errors.New("mvc: dispatcher is nil")
	}

	var buf bytes.Buffer
	if err := h.dispatcher.Dispatch(ctx, resp.View, resp.Models, &buf,
		render.WithHTTP(r, w),
		render.WithRequestID(id),
	); err != nil {
		return err
	}

	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", defaultContentType)
	}
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	if err != nil {
		ctxlog.FromContext(ctx).Warn("mvc: write response failed", "error", err)
	}
	return nil
}

func (h *handler) fail(ctx context.Context, w http.ResponseWriter, r *http.Request, id string, err error) {
	resp := h.mappers.Map(ctx, err)
	logger := ctxlog.FromContext(ctx)
	if resp.Status >= http.StatusInternalServerError {
		logger.Error("mvc: request failed", "status", resp.Status, "error", err)
	} else {
		logger.Info("mvc: request rejected", "status", resp.Status, "error", err)
	}

	if strings.TrimSpace(resp.View) != "" && h.dispatcher != nil {
		// mappers may hand out a shared store; the error entry is per request.
		models := resp.Models.Clone()
		if !models.Has(ErrorModel) {
			models.Put(ErrorModel, err.Error())
		}
		var buf bytes.Buffer
		renderErr := h.dispatcher.Dispatch(ctx, resp.View, models, &buf, render.WithHTTP(r, w), render.WithRequestID(id))
		if renderErr == nil {
			w.Header().Set("Content-Type", defaultContentType)
			w.WriteHeader(resp.Status)
			_, _ = w.Write(buf.Bytes())
			return
		}
		logger.Error("mvc: error view failed", "view", resp.View, "error", renderErr)
		resp.Status = http.StatusInternalServerError
	}
	http.Error(w, http.StatusText(resp.Status), resp.Status)
}
