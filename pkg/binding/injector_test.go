package binding_test

import (
	"context"
	"net/url"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-mvc/pkg/binding"
)

type fieldOnly struct {
	Name   string
	Result *binding.Result
}

type fieldAndSetter struct {
	Result *binding.Result
	viaSet *binding.Result
}

func (f *fieldAndSetter) SetBindingResult(r *binding.Result) {
	f.viaSet = r
}

type noDependency struct {
	Name string
}

func TestInject_SetterTakesPrecedenceOverField(t *testing.T) {
	target := &fieldAndSetter{}
	result := binding.NewResult()

	ok, err := binding.Inject(target, result)
	require.NoError(t, err)
	require.True(t, ok)
	require.Same(t, result, target.viaSet)
	require.Nil(t, target.Result, "field must stay unset when a setter exists")
}

func TestInject_Field(t *testing.T) {
	target := &fieldOnly{}
	result := binding.NewResult()

	ok, err := binding.Inject(target, result)
	require.NoError(t, err)
	require.True(t, ok)
	require.Same(t, result, target.Result)
}

func TestInject_NoDependency(t *testing.T) {
	ok, err := binding.Inject(&noDependency{}, binding.NewResult())
	require.NoError(t, err)
	require.False(t, ok)

	_, err = binding.Inject(nil, binding.NewResult())
	require.ErrorIs(t, err, binding.ErrNotInjectable)

	var missing *fieldOnly
	_, err = binding.Inject(missing, binding.NewResult())
	require.ErrorIs(t, err, binding.ErrNotInjectable)
}

func TestInjectorFor_IsCachedPerType(t *testing.T) {
	typ := reflect.TypeOf(&fieldOnly{})
	first := binding.InjectorFor(typ)
	second := binding.InjectorFor(typ)

	require.Equal(t, first, second)
	require.True(t, first.Accepts())
	require.False(t, first.Setter)
	require.Equal(t, []int{1}, first.Field)

	require.True(t, binding.InjectorFor(reflect.TypeOf(&fieldAndSetter{})).Setter)
	require.False(t, binding.InjectorFor(reflect.TypeOf(noDependency{})).Accepts())
}

type signupForm struct {
	Email    string   `param:"email" validate:"required,pattern=^[^@]+@[^@]+$"`
	Age      int      `param:"age" validate:"min=18" optin:"true"`
	Plan     string   `param:"plan" validate:"oneof=free|pro" default:"free"`
	Tags     []string `param:"tag" source:"query" validate:"size=0..3"`
	Internal string
	Skipped  string `param:"-"`

	Result *binding.Result
}

func TestBindStruct_OptInFieldRecordsAndHandlerSeesValue(t *testing.T) {
	form := &signupForm{}
	result := binding.NewResult()
	values := binding.URLValues(url.Values{
		"email": {"ada@example.com"},
		"age":   {"16"},
		"tag":   {"a", "b"},
	})

	err := newBinder().BindStruct(context.Background(), form, values, result)
	require.NoError(t, err)

	require.Same(t, result, form.Result)
	require.Equal(t, "ada@example.com", form.Email)
	require.Equal(t, 16, form.Age, "constraint-violating value is still delivered")
	require.Equal(t, "free", form.Plan)
	require.Equal(t, []string{"a", "b"}, form.Tags)
	require.True(t, form.Result.IsFailed())
	require.Len(t, form.Result.ErrorsFor("age"), 1)
}

func TestBindStruct_OptOutFieldRaises(t *testing.T) {
	form := &signupForm{}
	result := binding.NewResult()
	values := binding.URLValues(url.Values{"email": {"nope"}})

	err := newBinder().BindStruct(context.Background(), form, values, result)
	var violation *binding.ConstraintViolation
	require.ErrorAs(t, err, &violation)
	require.Equal(t, "email", violation.Param)
	require.Equal(t, "pattern", violation.Constraint)
	require.False(t, result.IsFailed())
}

func TestParamsFor(t *testing.T) {
	params, err := binding.ParamsFor(reflect.TypeOf(signupForm{}))
	require.NoError(t, err)

	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	require.Equal(t, []string{"email", "age", "plan", "tag"}, names)
	require.True(t, params[1].OptIn)
	require.Equal(t, binding.SourceQuery, params[3].Source)
	require.Equal(t, reflect.TypeOf([]string{}), params[3].Type)

	type badSource struct {
		X string `param:"x" source:"cookie"`
	}
	_, err = binding.ParamsFor(reflect.TypeOf(badSource{}))
	require.Error(t, err)

	_, err = binding.ParamsFor(reflect.TypeOf(0))
	require.Error(t, err)
}

func TestBindStruct_RejectsNonPointer(t *testing.T) {
	err := newBinder().BindStruct(context.Background(), signupForm{}, nil, nil)
	require.Error(t, err)
}
