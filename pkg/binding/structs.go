package binding

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Struct tags read by BindStruct.
const (
	TagParam    = "param"
	TagSource   = "source"
	TagValidate = "validate"
	TagOptIn    = "optin"
	TagDefault  = "default"
)

type structField struct {
	index []int
	param Param
}

type structPlan struct {
	fields []structField
	err    error
}

var structPlans sync.Map

// ParamsFor derives parameter declarations from the tagged fields of a
// struct type. Fields without a param tag, or tagged "-", are skipped.
func ParamsFor(t reflect.Type) ([]Param, error) {
	plan := planFor(t)
	if plan.err != nil {
		return nil, plan.err
	}
	out := make([]Param, 0, len(plan.fields))
	for _, f := range plan.fields {
		out = append(out, f.param)
	}
	return out, nil
}

func planFor(t reflect.Type) *structPlan {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return &structPlan{err: errors.New("binding: target must be a struct")}
	}
	if cached, ok := structPlans.Load(t); ok {
		return cached.(*structPlan)
	}
	plan := buildPlan(t)
	actual, _ := structPlans.LoadOrStore(t, plan)
	return actual.(*structPlan)
}

func buildPlan(t reflect.Type) *structPlan {
	plan := &structPlan{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := strings.TrimSpace(field.Tag.Get(TagParam))
		if name == "" || name == "-" || !field.IsExported() {
			continue
		}
		source, err := ParseSource(field.Tag.Get(TagSource))
		if err != nil {
			plan.err = fmt.Errorf("binding: field %s: %w", field.Name, err)
			return plan
		}
		constraints, err := ParseConstraints(field.Tag.Get(TagValidate))
		if err != nil {
			plan.err = fmt.Errorf("binding: field %s: %w", field.Name, err)
			return plan
		}
		optIn := false
		if raw := strings.TrimSpace(field.Tag.Get(TagOptIn)); raw != "" {
			if optIn, err = strconv.ParseBool(raw); err != nil {
				plan.err = fmt.Errorf("binding: field %s: optin: %w", field.Name, err)
				return plan
			}
		}
		plan.fields = append(plan.fields, structField{
			index: field.Index,
			param: Param{
				Name:        name,
				Source:      source,
				Type:        field.Type,
				Constraints: constraints,
				OptIn:       optIn,
				Default:     field.Tag.Get(TagDefault),
			},
		})
	}
	return plan
}

// BindStruct binds the tagged fields of dst, a pointer to a struct, and
// injects result when dst declares a Result dependency. Opt-in failures leave
// the field at its recorded value; the first raised failure is returned.
func (b *Binder) BindStruct(ctx context.Context, dst any, values Values, result *Result) error {
	rv := reflect.ValueOf(dst)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.New("binding: target must be a non-nil pointer to a struct")
	}
	plan := planFor(rv.Type())
	if plan.err != nil {
		return plan.err
	}
	if _, err := Inject(dst, result); err != nil {
		return err
	}

	elem := rv.Elem()
	for _, f := range plan.fields {
		var raw []string
		if values != nil {
			raw = values.Lookup(f.param.Source, f.param.Name)
		}
		outcome, err := b.Bind(ctx, f.param, raw, result)
		if err != nil {
			return err
		}
		if bound := outcome.Bound(); bound != nil {
			elem.FieldByIndex(f.index).Set(reflect.ValueOf(bound))
		}
	}
	return nil
}
