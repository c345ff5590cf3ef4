package binding_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-mvc/internal/ctxlog"
	"github.com/goliatone/go-mvc/pkg/binding"
	"github.com/goliatone/go-mvc/pkg/metrics"
)

func newBinder(opts ...binding.Option) *binding.Binder {
	return binding.NewBinder(append([]binding.Option{binding.WithLogger(ctxlog.Discard())}, opts...)...)
}

func TestBind_Ok(t *testing.T) {
	b := newBinder()
	result := binding.NewResult()

	outcome, err := b.Bind(context.Background(), binding.ParamOf[int]("age", binding.Min(18)), []string{"42"}, result)
	require.NoError(t, err)
	require.Equal(t, binding.Ok{Value: 42}, outcome)
	require.False(t, result.IsFailed())
}

func TestBind_OptInConversionRecordsZeroValue(t *testing.T) {
	b := newBinder()
	result := binding.NewResult()

	outcome, err := b.Bind(context.Background(), binding.ParamOf[int]("age").WithOptIn(), []string{"abc"}, result)
	require.NoError(t, err)

	failed, ok := outcome.(binding.ConversionFailed)
	require.True(t, ok, "want ConversionFailed, got %T", outcome)
	require.True(t, failed.Recorded)
	require.Equal(t, 0, failed.Bound())

	require.True(t, result.IsFailed())
	require.Equal(t, []binding.ValidationError{{
		Param:   "age",
		Value:   "abc",
		Message: "must be a whole number",
		Kind:    binding.KindConversion,
	}}, result.Errors())
}

func TestBind_OptOutConversionRaises(t *testing.T) {
	b := newBinder()
	result := binding.NewResult()

	_, err := b.Bind(context.Background(), binding.ParamOf[int]("age"), []string{"abc"}, result)
	var convErr *binding.ConversionError
	require.ErrorAs(t, err, &convErr)
	require.Equal(t, "age", convErr.Param)
	require.Equal(t, http.StatusInternalServerError, convErr.StatusCode())
	require.False(t, result.IsFailed(), "opt-out failures never populate the result")
}

func TestBind_OptInConstraintDeliversValue(t *testing.T) {
	b := newBinder()
	result := binding.NewResult()

	outcome, err := b.Bind(context.Background(), binding.ParamOf[int]("age", binding.Min(18)).WithOptIn(), []string{"3"}, result)
	require.NoError(t, err)
	require.Equal(t, 3, outcome.Bound())

	failed, ok := outcome.(binding.ConstraintFailed)
	require.True(t, ok)
	require.Equal(t, "min", failed.Err.Constraint)
	require.Equal(t, []string{"must be at least 18"}, result.Messages()["age"])
}

func TestBind_OptOutConstraintRaises(t *testing.T) {
	b := newBinder()
	result := binding.NewResult()

	_, err := b.Bind(context.Background(), binding.ParamOf[int]("age", binding.Max(10)), []string{"11"}, result)
	var violation *binding.ConstraintViolation
	require.ErrorAs(t, err, &violation)
	require.Equal(t, http.StatusBadRequest, violation.StatusCode())
	require.Equal(t, 11, violation.Value)
	require.False(t, result.IsFailed())
}

func TestBind_OptInIsIdempotentPerRequest(t *testing.T) {
	b := newBinder()
	p := binding.ParamOf[int]("quantity", binding.Min(1), binding.Max(5)).WithOptIn()

	for i := 0; i < 2; i++ {
		result := binding.NewResult()
		// The same field bound twice within one request yields one entry.
		for j := 0; j < 2; j++ {
			_, err := b.Bind(context.Background(), p, []string{"9"}, result)
			require.NoError(t, err)
		}
		require.True(t, result.IsFailed())
		require.Len(t, result.ErrorsFor("quantity"), 1)
	}
}

func TestBind_OptInWithoutResultRaises(t *testing.T) {
	_, err := newBinder().Bind(context.Background(), binding.ParamOf[int]("n").WithOptIn(), []string{"x"}, nil)
	var convErr *binding.ConversionError
	require.ErrorAs(t, err, &convErr)
}

func TestBind_MissingValues(t *testing.T) {
	b := newBinder()

	outcome, err := b.Bind(context.Background(), binding.ParamOf[int]("page"), nil, binding.NewResult())
	require.NoError(t, err)
	require.Equal(t, binding.Ok{Value: 0}, outcome)

	outcome, err = b.Bind(context.Background(), binding.ParamOf[int]("page").WithDefault("1"), []string{" "}, binding.NewResult())
	require.NoError(t, err)
	require.Equal(t, 1, outcome.Bound())

	_, err = b.Bind(context.Background(), binding.ParamOf[string]("name", binding.Required()), []string{""}, binding.NewResult())
	var violation *binding.ConstraintViolation
	require.ErrorAs(t, err, &violation)
	require.ErrorIs(t, err, binding.ErrRequired)

	result := binding.NewResult()
	_, err = b.Bind(context.Background(), binding.ParamOf[string]("name", binding.Required()).WithOptIn(), nil, result)
	require.NoError(t, err)
	require.Equal(t, []string{"is required"}, result.Messages()["name"])
}

func TestBind_UnsupportedType(t *testing.T) {
	type opaque struct{ x int }
	_, err := newBinder().Bind(context.Background(), binding.ParamOf[opaque]("o"), []string{"1"}, binding.NewResult())
	require.ErrorIs(t, err, binding.ErrUnsupportedType)

	_, err = newBinder().Bind(context.Background(), binding.Param{Name: "untyped"}, nil, nil)
	require.Error(t, err)
}

type status string

type level int

type upper string

func (u *upper) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return errors.New("empty")
	}
	*u = upper(strings.ToUpper(string(text)))
	return nil
}

func TestConverters(t *testing.T) {
	c := binding.NewConverters()

	cases := []struct {
		name string
		typ  reflect.Type
		raw  []string
		want any
	}{
		{"bool", reflect.TypeOf(false), []string{"true"}, true},
		{"int8", reflect.TypeOf(int8(0)), []string{"-5"}, int8(-5)},
		{"uint16", reflect.TypeOf(uint16(0)), []string{"65535"}, uint16(65535)},
		{"float32", reflect.TypeOf(float32(0)), []string{"1.5"}, float32(1.5)},
		{"duration", reflect.TypeOf(time.Duration(0)), []string{"1m30s"}, 90 * time.Second},
		{"time", reflect.TypeOf(time.Time{}), []string{"2024-05-01T10:00:00Z"}, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"date", reflect.TypeOf(time.Time{}), []string{"2024-05-01"}, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"ints", reflect.TypeOf([]int{}), []string{"1", "2"}, []int{1, 2}},
		{"named string", reflect.TypeOf(status("")), []string{"open"}, status("open")},
		{"named int", reflect.TypeOf(level(0)), []string{"3"}, level(3)},
		{"text unmarshaler", reflect.TypeOf(upper("")), []string{"abc"}, upper("ABC")},
		{"first of many", reflect.TypeOf(""), []string{"a", "b"}, "a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Convert(tc.typ, tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	_, err := c.Convert(reflect.TypeOf(int8(0)), []string{"300"})
	require.Error(t, err, "overflow should fail")
}

func TestRegisterConverterOverridesDefault(t *testing.T) {
	c := binding.NewConverters()
	binding.RegisterConverter(c, func(raw string) (bool, error) {
		return raw == "yes", nil
	})
	b := newBinder(binding.WithConverters(c))

	outcome, err := b.Bind(context.Background(), binding.ParamOf[bool]("agree"), []string{"yes"}, nil)
	require.NoError(t, err)
	require.Equal(t, true, outcome.Bound())
}

func TestBindAll_StopsAtFirstRaisedError(t *testing.T) {
	b := newBinder()
	params := []binding.Param{
		binding.ParamOf[string]("name", binding.Size(2, 10)).WithOptIn(),
		binding.ParamOf[int]("age", binding.Min(0)),
		binding.ParamOf[[]string]("tags", binding.OneOf("go", "web")),
	}
	values := binding.URLValues(url.Values{"name": {"x"}, "age": {"-1"}, "tags": {"go"}})
	result := binding.NewResult()

	out, err := b.BindAll(context.Background(), params, values, result)
	var violation *binding.ConstraintViolation
	require.ErrorAs(t, err, &violation)
	require.Equal(t, "age", violation.Param)
	require.Equal(t, map[string]any{"name": "x"}, out)
	require.Equal(t, []string{"length must be between 2 and 10"}, result.Messages()["name"])
}

func TestBindAll_Sources(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/items/7?q=shoes", strings.NewReader("qty=2"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Trace", "abc")
	req.SetPathValue("id", "7")

	values, err := binding.NewRequestValues(req)
	require.NoError(t, err)

	params := []binding.Param{
		binding.ParamOf[int]("id").From(binding.SourcePath),
		binding.ParamOf[string]("q").From(binding.SourceQuery),
		binding.ParamOf[int]("qty").From(binding.SourceForm),
		binding.ParamOf[string]("X-Trace").From(binding.SourceHeader),
		binding.ParamOf[string]("q"),
	}
	out, err := newBinder().BindAll(context.Background(), params, values, binding.NewResult())
	require.NoError(t, err)
	require.Equal(t, map[string]any{"id": 7, "q": "shoes", "qty": 2, "X-Trace": "abc"}, out)

	require.Empty(t, values.Lookup(binding.SourceQuery, "qty"))
}

func TestBind_RecordsMetrics(t *testing.T) {
	collector := metrics.NewCollector(metrics.Config{}, nil)
	b := newBinder(binding.WithMetrics(collector))

	_, _ = b.Bind(context.Background(), binding.ParamOf[int]("a").WithOptIn(), []string{"x"}, binding.NewResult())
	_, _ = b.Bind(context.Background(), binding.ParamOf[int]("a", binding.Max(1)), []string{"5"}, binding.NewResult())

	count, err := testutil.GatherAndCount(collector.Registry(), "mvc_views_binding_failures_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestConstraints(t *testing.T) {
	cases := []struct {
		name  string
		c     binding.Constraint
		value any
		ok    bool
	}{
		{"min float ok", binding.Min(1.5), 1.5, true},
		{"min uint fail", binding.Min(2), uint(1), false},
		{"max slice fail", binding.Max(3), []int{1, 4}, false},
		{"size runes", binding.Size(2, 2), "日本", true},
		{"size open ended", binding.Size(1, -1), []string{"a", "b", "c"}, true},
		{"size too short", binding.Size(3, -1), "ab", false},
		{"pattern ok", binding.Pattern(regexp.MustCompile(`^[a-z]+$`)), "abc", true},
		{"pattern fail", binding.Pattern(regexp.MustCompile(`^[a-z]+$`)), "ab1", false},
		{"oneof int", binding.OneOf("1", "2"), 2, true},
		{"oneof fail", binding.OneOf("a"), "b", false},
		{"required empty slice", binding.Required(), []string{}, false},
		{"required zero int", binding.Required(), 0, true},
		{"min unsupported", binding.Min(1), "x", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.c.Check(tc.value)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestParseConstraints(t *testing.T) {
	cs, err := binding.ParseConstraints("required, min=1,max=10,size=2..,oneof=a|b,pattern=^(a|b),?$")
	require.NoError(t, err)

	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.Name())
	}
	require.Equal(t, []string{"required", "min", "max", "size", "oneof", "pattern"}, names)
	require.NoError(t, cs[5].Check("a,"))

	_, err = binding.ParseConstraints("between=1")
	require.Error(t, err)
	_, err = binding.ParseConstraints("min=abc")
	require.Error(t, err)
	_, err = binding.ParseConstraints("pattern=(")
	require.Error(t, err)
}

func TestEach(t *testing.T) {
	c := binding.Each(binding.Size(2, -1))
	require.Equal(t, "size", c.Name())
	require.NoError(t, c.Check([]string{"ab", "cd"}))
	require.EqualError(t, c.Check([]string{"ab", "c"}), "length must be at least 2")
	require.Error(t, c.Check("c"))
}
