package mvc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-mvc/internal/ctxlog"
	"github.com/goliatone/go-mvc/pkg/config"
	"github.com/goliatone/go-mvc/pkg/model"
	"github.com/goliatone/go-mvc/pkg/mvc"
	"github.com/goliatone/go-mvc/pkg/render"
)

var homeController = mvc.Controller{
	Handle: func(context.Context, *mvc.Request) (mvc.Response, error) {
		return mvc.View("home.tpl", model.New().Put("name", "ada")), nil
	},
}

func templatesDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home.tpl"), []byte("Hi {{ name }}"), 0o644))
	return dir
}

func TestApp_BuildsTemplateEngineFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Views.TemplateDir = templatesDir(t)
	cfg.Metrics.Enabled = true

	app := mvc.New(mvc.WithConfig(cfg), mvc.WithLogger(ctxlog.Discard()))
	require.NoError(t, app.Err())
	t.Cleanup(func() { _ = app.Close() })
	require.Equal(t, []string{"pongo"}, app.Registry().List())

	rec := httptest.NewRecorder()
	app.Handler(homeController).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Hi ada", rec.Body.String())

	metrics := httptest.NewRecorder()
	app.MetricsHandler().ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, metrics.Code)
	require.Contains(t, metrics.Body.String(), `mvc_views_renders_total{engine="pongo",status="ok"} 1`)
}

func TestApp_DefaultPriorityAppliesToUndeclaredEngines(t *testing.T) {
	cfg := config.Default()
	cfg.Views.TemplateDir = templatesDir(t)
	cfg.Views.DefaultPriority = 4

	plain := &stubEngine{name: "plain", render: func(context.Context, *render.RenderContext) error { return nil }}
	app := mvc.New(mvc.WithConfig(cfg), mvc.WithEngines(plain), mvc.WithLogger(ctxlog.Discard()))
	require.NoError(t, app.Err())
	t.Cleanup(func() { _ = app.Close() })

	for _, name := range []string{"plain", "pongo"} {
		desc, ok := app.Registry().Get(name)
		require.True(t, ok, name)
		require.Equal(t, 4, desc.Priority, name)
	}
}

func TestApp_DisabledEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Views.TemplateDir = templatesDir(t)
	cfg.DisabledEngines = []string{"pongo"}

	app := mvc.New(mvc.WithConfig(cfg), mvc.WithLogger(ctxlog.Discard()))
	require.NoError(t, app.Err())
	t.Cleanup(func() { _ = app.Close() })
	require.Zero(t, app.Registry().Len())

	rec := httptest.NewRecorder()
	app.Handler(homeController).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestApp_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Format = "xml"

	app := mvc.New(mvc.WithConfig(cfg), mvc.WithLogger(ctxlog.Discard()))
	require.Error(t, app.Err())

	rec := httptest.NewRecorder()
	app.Handler(homeController).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestApp_MetricsDisabled(t *testing.T) {
	app := mvc.New(mvc.WithLogger(ctxlog.Discard()))
	require.Nil(t, app.Metrics())

	rec := httptest.NewRecorder()
	app.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
