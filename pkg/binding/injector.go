package binding

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ResultSetter is implemented by targets that receive the request Result
// through a setter. A setter always wins over a *Result field.
type ResultSetter interface {
	SetBindingResult(*Result)
}

var (
	resultPtrType   = reflect.TypeOf((*Result)(nil))
	resultSetterTyp = reflect.TypeOf((*ResultSetter)(nil)).Elem()
)

// ErrNotInjectable is returned for targets that cannot receive a Result.
var ErrNotInjectable = errors.New("binding: target cannot receive a result")

// Injector describes how a target type receives the request Result. It is
// computed once per type and reused for every request.
type Injector struct {
	Type   reflect.Type
	Setter bool
	// Field is the index path of the *Result field when Setter is false.
	Field []int
}

// Accepts reports whether the target type declares a Result dependency.
func (i Injector) Accepts() bool {
	return i.Setter || len(i.Field) > 0
}

var injectors sync.Map

// InjectorFor returns the cached injector for t.
func InjectorFor(t reflect.Type) Injector {
	if t == nil {
		return Injector{}
	}
	if cached, ok := injectors.Load(t); ok {
		return cached.(Injector)
	}
	inj := describe(t)
	actual, _ := injectors.LoadOrStore(t, inj)
	return actual.(Injector)
}

func describe(t reflect.Type) Injector {
	inj := Injector{Type: t}
	if t.Implements(resultSetterTyp) {
		inj.Setter = true
		return inj
	}
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return inj
	}
	st := t.Elem()
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Type == resultPtrType {
			inj.Field = field.Index
			return inj
		}
	}
	return inj
}

// Inject hands result to target. It reports false when target declares no
// Result dependency.
func Inject(target any, result *Result) (bool, error) {
	if target == nil {
		return false, fmt.Errorf("%w: nil", ErrNotInjectable)
	}
	inj := InjectorFor(reflect.TypeOf(target))
	switch {
	case inj.Setter:
		target.(ResultSetter).SetBindingResult(result)
		return true, nil
	case len(inj.Field) > 0:
		rv := reflect.ValueOf(target)
		if rv.IsNil() {
			return false, fmt.Errorf("%w: nil %s", ErrNotInjectable, inj.Type)
		}
		rv.Elem().FieldByIndex(inj.Field).Set(reflect.ValueOf(result))
		return true, nil
	default:
		return false, nil
	}
}
