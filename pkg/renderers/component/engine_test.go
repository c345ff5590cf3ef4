package component_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-mvc/internal/ctxlog"
	"github.com/goliatone/go-mvc/pkg/model"
	"github.com/goliatone/go-mvc/pkg/render"
	"github.com/goliatone/go-mvc/pkg/renderers/component"
	"github.com/goliatone/go-mvc/pkg/view"
)

func greeting() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<p>Hi "); err != nil {
			return err
		}
		if err := component.Text("user").Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</p>")
		return err
	})
}

func dispatcherFor(engines ...render.Engine) *render.Dispatcher {
	reg := render.NewRegistry(render.WithEngines(engines...), render.WithRegistryLogger(ctxlog.Discard()))
	return render.NewDispatcher(reg, render.WithLogger(ctxlog.Discard()))
}

func TestEngine_Supports(t *testing.T) {
	engine := component.New(component.WithComponent("users/show", greeting()))

	cases := map[string]bool{
		"/WEB-INF/views/users/show.templ": true,
		"/WEB-INF/views/users/show":       true,
		"/WEB-INF/views/users/show.tpl":   false,
		"/WEB-INF/views/users/edit.templ": false,
	}
	for path, want := range cases {
		if got := engine.Supports(view.View{Path: path, Resolved: true}); got != want {
			t.Errorf("Supports(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestEngine_RendersEscapedAttribute(t *testing.T) {
	d := dispatcherFor(component.New(component.WithComponent("users/show.templ", greeting())))

	var buf bytes.Buffer
	models := model.New().Put("user", "<Ada>")
	if err := d.Dispatch(context.Background(), "users/show.templ", models, &buf); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := buf.String(); got != "<p>Hi &lt;Ada&gt;</p>" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_Layout(t *testing.T) {
	layout := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<main>"); err != nil {
			return err
		}
		if err := templ.GetChildren(ctx).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</main>")
		return err
	})
	d := dispatcherFor(component.New(
		component.WithComponent("home", component.Text("title")),
		component.WithLayout(layout),
	))

	var buf bytes.Buffer
	if err := d.Dispatch(context.Background(), "home", model.New().Put("title", "Home"), &buf); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := buf.String(); got != "<main>Home</main>" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEngine_ComponentErrorIsWrapped(t *testing.T) {
	boom := errors.New("component failed")
	d := dispatcherFor(component.New(component.WithComponent("bad", templ.ComponentFunc(func(context.Context, io.Writer) error {
		return boom
	}))))

	err := d.Dispatch(context.Background(), "bad.templ", nil, io.Discard)
	var ve *render.ViewEngineError
	if !errors.As(err, &ve) || ve.Engine != component.Name {
		t.Fatalf("expected component ViewEngineError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause in chain, got %v", err)
	}
}

func TestEngine_BaseFolderAndCatalog(t *testing.T) {
	engine := component.New(
		component.WithBaseFolder("pages"),
		component.WithComponents(map[string]templ.Component{
			"b":        component.Text("x"),
			"/a.templ": component.Text("x"),
		}),
	)
	if diff := cmp.Diff([]string{"a", "b"}, engine.Components()); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}
	if !engine.Supports(view.View{Path: "/pages/a.templ"}) {
		t.Fatalf("expected base folder to be stripped")
	}
}

func TestSafeHTMLAndValue(t *testing.T) {
	ctx := render.WithAttributes(context.Background(), render.NewAttributes(map[string]any{
		"bio":   `<i>hi</i><script>x()</script>`,
		"count": 3,
	}))

	var buf bytes.Buffer
	if err := component.SafeHTML("bio").Render(ctx, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := buf.String(); got != "<i>hi</i>" {
		t.Fatalf("unexpected output %q", got)
	}

	if n, ok := component.Value[int](ctx, "count"); !ok || n != 3 {
		t.Fatalf("Value[int] = %v, %v", n, ok)
	}
	if _, ok := component.Value[string](ctx, "count"); ok {
		t.Fatalf("type mismatch should report false")
	}

	buf.Reset()
	if err := component.Text("missing").Render(ctx, &buf); err != nil || buf.Len() != 0 {
		t.Fatalf("missing attribute should render nothing, got %q %v", buf.String(), err)
	}
}

func TestFunc(t *testing.T) {
	ctx := render.WithAttributes(context.Background(), render.NewAttributes(map[string]any{"a": 1, "b": 2}))
	var names []string
	c := component.Func(func(_ context.Context, attrs *render.Attributes, _ io.Writer) error {
		names = attrs.Names()
		return nil
	})
	if err := c.Render(ctx, io.Discard); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
