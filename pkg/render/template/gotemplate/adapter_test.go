package gotemplate_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-mvc/pkg/render/template"
	"github.com/goliatone/go-mvc/pkg/render/template/gotemplate"
)

var testTemplates = fstest.MapFS{
	"hello.tpl":      {Data: []byte("Hello {{ name }}!")},
	"use-global.tpl": {Data: []byte("env={{ settings.env }}")},
	"use-filter.tpl": {Data: []byte("{{ name|shout }}")},
	"user.tpl":       {Data: []byte("{{ user.Name }} <{{ user.Email }}>")},
	"bio.tpl":        {Data: []byte("{{ bio|sanitize }}")},
}

type user struct {
	Name  string
	Email string
}

func newEngine(t *testing.T, options ...gotemplate.Option) *gotemplate.Engine {
	t.Helper()
	engine, err := gotemplate.New(append([]gotemplate.Option{gotemplate.WithFS(testTemplates)}, options...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderTemplateWritesResultAndWriter(t *testing.T) {
	engine := newEngine(t)

	var buf bytes.Buffer
	result, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, &buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "Hello Ada!" {
		t.Fatalf("unexpected result %q", result)
	}
	if buf.String() != result {
		t.Fatalf("writer mismatch: %q", buf.String())
	}
}

func TestEngine_StructValuesStayAddressable(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderTemplate("user.tpl", map[string]any{
		"user": user{Name: "Grace", Email: "grace@example.com"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "Grace <grace@example.com>" {
		t.Fatalf("unexpected result %q", result)
	}
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t, gotemplate.WithGlobalData(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}))

	result, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "env=staging" {
		t.Fatalf("unexpected result %q", result)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		return strings.ToUpper(fmt.Sprint(input)), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	err = engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("re-register filter: %v", err)
	}
	if err := engine.RegisterFilter(" ", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected blank filter name to fail")
	}

	result, err := engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "ADA!" {
		t.Fatalf("unexpected result %q", result)
	}
}

func TestNew_WithFilters(t *testing.T) {
	engine := newEngine(t, gotemplate.WithFilters(map[string]template.FilterFunc{
		"shout": func(input any, _ any) (any, error) {
			return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
		},
	}))

	result, err := engine.RenderTemplate("use-filter", map[string]any{"name": "grace"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "GRACE!" {
		t.Fatalf("unexpected result %q", result)
	}
}

func TestEngine_SanitizeFilter(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderTemplate("bio", map[string]any{
		"bio": `<b>bold</b><script>alert(1)</script>`,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "<b>bold</b>" {
		t.Fatalf("unexpected sanitized output %q", result)
	}
}

func TestEngine_MissingTemplate(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("nope", nil); err == nil || !strings.Contains(err.Error(), "load template") {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without base dir or fs")
	}
}

func TestEngine_WatchReloadsChangedTemplates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.tpl"), "v1")
	writeFile(t, filepath.Join(dir, "sub", "page.tpl"), "v1")

	engine, err := gotemplate.New(gotemplate.WithBaseDir(dir), gotemplate.WithWatch(true))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })

	t.Run("top level", func(t *testing.T) {
		path := filepath.Join(dir, "page.tpl")
		expectRender(t, engine, "page", "v1")
		writeFile(t, path, "v2")
		waitForRender(t, engine, "page", "v2", nil)
	})

	t.Run("nested directory", func(t *testing.T) {
		path := filepath.Join(dir, "sub", "page.tpl")
		expectRender(t, engine, "sub/page", "v1")
		writeFile(t, path, "v2")
		waitForRender(t, engine, "sub/page", "v2", nil)
	})

	t.Run("directory created after start", func(t *testing.T) {
		path := filepath.Join(dir, "late", "page.tpl")
		writeFile(t, path, "v1")
		expectRender(t, engine, "late/page", "v1")
		// the directory may be added to the watcher after the first write
		waitForRender(t, engine, "late/page", "v2", func() { writeFile(t, path, "v2") })
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func expectRender(t *testing.T, engine *gotemplate.Engine, name, want string) {
	t.Helper()
	if got, err := engine.RenderTemplate(name, nil); err != nil || got != want {
		t.Fatalf("render %s: %q %v", name, got, err)
	}
}

// waitForRender polls until name renders as want, calling touch before each
// attempt when set.
func waitForRender(t *testing.T, engine *gotemplate.Engine, name, want string, touch func()) {
	t.Helper()
	var last atomic.Value
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if touch != nil {
			touch()
		}
		got, err := engine.RenderTemplate(name, nil)
		if err == nil {
			last.Store(got)
			if got == want {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("template %s was not reloaded, last render %v", name, last.Load())
}

func TestEngine_ReloadWithoutWatcher(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("hello", map[string]any{"name": "x"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	engine.Reload()
	if _, err := engine.RenderTemplate("hello", map[string]any{"name": "y"}); err != nil {
		t.Fatalf("render after reload: %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("close without watcher: %v", err)
	}
}
