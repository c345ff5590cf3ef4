package render

import (
	"context"
	"sort"
)

// Attributes are the request-scoped values engines resolve template
// expressions against. The dispatcher fills them from the Model Store before
// any engine runs.
type Attributes struct {
	names  []string
	values map[string]any
}

// NewAttributes builds attributes from values, sorted by name.
func NewAttributes(values map[string]any) *Attributes {
	a := &Attributes{values: make(map[string]any, len(values))}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		a.set(key, values[key])
	}
	return a
}

func (a *Attributes) set(name string, value any) {
	if _, exists := a.values[name]; !exists {
		a.names = append(a.names, name)
	}
	a.values[name] = value
}

// Get returns the attribute stored under name.
func (a *Attributes) Get(name string) (any, bool) {
	if a == nil {
		return nil, false
	}
	value, ok := a.values[name]
	return value, ok
}

// Names lists the attribute names in sorted order.
func (a *Attributes) Names() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.names...)
}

// Map returns a copy of the attributes.
func (a *Attributes) Map() map[string]any {
	out := make(map[string]any)
	if a == nil {
		return out
	}
	for key, value := range a.values {
		out[key] = value
	}
	return out
}

type attributesKey struct{}

// WithAttributes stores attrs on ctx. Attributes already on ctx are kept
// unless attrs defines the same name.
func WithAttributes(ctx context.Context, attrs *Attributes) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if attrs == nil {
		return ctx
	}
	if existing := AttributesFrom(ctx); existing != nil {
		merged := existing.Map()
		for key, value := range attrs.values {
			merged[key] = value
		}
		attrs = NewAttributes(merged)
	}
	return context.WithValue(ctx, attributesKey{}, attrs)
}

// AttributesFrom returns the attributes stored on ctx, or nil.
func AttributesFrom(ctx context.Context) *Attributes {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(attributesKey{}).(*Attributes)
	return attrs
}

// Attribute looks up a single request attribute.
func Attribute(ctx context.Context, name string) (any, bool) {
	return AttributesFrom(ctx).Get(name)
}
