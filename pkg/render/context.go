package render

import (
	"io"
	"net/http"

	"github.com/goliatone/go-mvc/pkg/view"
)

// RenderContext bundles everything an engine needs for one render call. It
// is built by the Dispatcher and must not be retained after Render returns.
type RenderContext struct {
	view      view.View
	models    map[string]any
	out       io.Writer
	request   *http.Request
	response  http.ResponseWriter
	requestID string
}

// View returns the resolved view.
func (rc *RenderContext) View() view.View {
	return rc.view
}

// Models returns the model snapshot. Engines must treat it as read-only.
func (rc *RenderContext) Models() map[string]any {
	return rc.models
}

// Model returns a single model value.
func (rc *RenderContext) Model(name string) (any, bool) {
	value, ok := rc.models[name]
	return value, ok
}

// Out is the sink the response body is written to.
func (rc *RenderContext) Out() io.Writer {
	return rc.out
}

// Request returns the originating HTTP request, if any. Its context carries
// the request attributes.
func (rc *RenderContext) Request() *http.Request {
	return rc.request
}

// Response returns the HTTP response writer, if any.
func (rc *RenderContext) Response() http.ResponseWriter {
	return rc.response
}

// RequestID identifies the request in logs and traces.
func (rc *RenderContext) RequestID() string {
	return rc.requestID
}
