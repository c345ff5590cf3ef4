package openapi

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-mvc/pkg/binding"
)

// ExtensionBindingResult marks a parameter, schema property, or operation as
// opt-in.
const ExtensionBindingResult = "x-binding-result"

var formMediaTypes = []string{"application/x-www-form-urlencoded", "multipart/form-data"}

// Operation is one OpenAPI operation with its derived parameters.
type Operation struct {
	ID     string
	Method string
	Path   string
	Params []binding.Param
}

// Operations parses data and returns every operation keyed by operation id.
// Operations without an id are keyed "method:path", e.g. "get:/users".
func Operations(ctx context.Context, data []byte) (map[string]Operation, error) {
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("openapi: document does not contain any paths")
	}

	out := make(map[string]Operation)
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			params, err := operationParams(item, op)
			if err != nil {
				return nil, fmt.Errorf("openapi: operation %q: %w", id, err)
			}
			out[id] = Operation{ID: id, Method: strings.ToUpper(method), Path: path, Params: params}
		}
	}
	return out, nil
}

// LoadParams maps each operation id in data to its parameter declarations.
func LoadParams(ctx context.Context, data []byte) (map[string][]binding.Param, error) {
	ops, err := Operations(ctx, data)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]binding.Param, len(ops))
	for id, op := range ops {
		out[id] = op.Params
	}
	return out, nil
}

// LoadParamsFile is LoadParams for a document on disk.
func LoadParamsFile(ctx context.Context, path string) (map[string][]binding.Param, error) {
	data, err := NewLoader().Load(ctx, SourceFromFile(path))
	if err != nil {
		return nil, err
	}
	return LoadParams(ctx, data)
}

func operationParams(item *openapi3.PathItem, op *openapi3.Operation) ([]binding.Param, error) {
	opIn := truthy(op.Extensions[ExtensionBindingResult])

	// Operation parameters override path item parameters with the same name
	// and location.
	type key struct{ name, in string }
	var order []key
	byKey := make(map[key]*openapi3.Parameter)
	for _, group := range []openapi3.Parameters{item.Parameters, op.Parameters} {
		for _, ref := range group {
			if ref == nil || ref.Value == nil {
				continue
			}
			k := key{name: ref.Value.Name, in: ref.Value.In}
			if _, seen := byKey[k]; !seen {
				order = append(order, k)
			}
			byKey[k] = ref.Value
		}
	}

	var params []binding.Param
	for _, k := range order {
		p := byKey[k]
		source, ok := sourceFor(p.In)
		if !ok {
			continue
		}
		param, err := paramFromSchema(p.Name, source, p.Schema, p.Required)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		param.OptIn = opIn || truthy(p.Extensions[ExtensionBindingResult])
		params = append(params, param)
	}

	formParams, err := formBodyParams(op.RequestBody, opIn)
	if err != nil {
		return nil, err
	}
	return append(params, formParams...), nil
}

func formBodyParams(body *openapi3.RequestBodyRef, opIn bool) ([]binding.Param, error) {
	if body == nil || body.Value == nil {
		return nil, nil
	}
	var schema *openapi3.Schema
	for _, mediaType := range formMediaTypes {
		if mt := body.Value.Content.Get(mediaType); mt != nil && mt.Schema != nil && mt.Schema.Value != nil {
			schema = mt.Schema.Value
			break
		}
	}
	if schema == nil {
		return nil, nil
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]binding.Param, 0, len(names))
	for _, name := range names {
		prop := schema.Properties[name]
		param, err := paramFromSchema(name, binding.SourceForm, prop, required[name])
		if err != nil {
			return nil, fmt.Errorf("form field %q: %w", name, err)
		}
		param.OptIn = opIn
		if prop != nil && prop.Value != nil && truthy(prop.Value.Extensions[ExtensionBindingResult]) {
			param.OptIn = true
		}
		params = append(params, param)
	}
	return params, nil
}

func paramFromSchema(name string, source binding.Source, ref *openapi3.SchemaRef, required bool) (binding.Param, error) {
	param := binding.Param{Name: name, Source: source, Type: reflect.TypeOf("")}
	if required {
		param.Constraints = append(param.Constraints, binding.Required())
	}
	if ref == nil || ref.Value == nil {
		return param, nil
	}
	schema := ref.Value
	param.Type = goType(schema)
	if schema.Default != nil {
		param.Default = fmt.Sprint(schema.Default)
	}

	constraints, err := schemaConstraints(schema)
	if err != nil {
		return binding.Param{}, err
	}
	param.Constraints = append(param.Constraints, constraints...)
	return param, nil
}

func schemaConstraints(schema *openapi3.Schema) ([]binding.Constraint, error) {
	if schemaType(schema) != openapi3.TypeArray {
		return valueConstraints(schema)
	}

	var out []binding.Constraint
	if schema.MinItems > 0 || schema.MaxItems != nil {
		out = append(out, binding.Size(int(schema.MinItems), optionalLimit(schema.MaxItems)))
	}
	if schema.Items == nil || schema.Items.Value == nil {
		return out, nil
	}
	items, err := valueConstraints(schema.Items.Value)
	if err != nil {
		return nil, err
	}
	for _, c := range items {
		out = append(out, binding.Each(c))
	}
	return out, nil
}

func valueConstraints(schema *openapi3.Schema) ([]binding.Constraint, error) {
	var out []binding.Constraint
	if schema.Min != nil {
		out = append(out, binding.Min(*schema.Min))
	}
	if schema.Max != nil {
		out = append(out, binding.Max(*schema.Max))
	}
	if schemaType(schema) == openapi3.TypeString && (schema.MinLength > 0 || schema.MaxLength != nil) {
		out = append(out, binding.Size(int(schema.MinLength), optionalLimit(schema.MaxLength)))
	}
	if schema.Pattern != "" {
		re, err := regexp.Compile(schema.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern: %w", err)
		}
		out = append(out, binding.Pattern(re))
	}
	if len(schema.Enum) > 0 {
		values := make([]string, 0, len(schema.Enum))
		for _, v := range schema.Enum {
			values = append(values, fmt.Sprint(v))
		}
		out = append(out, binding.OneOf(values...))
	}
	return out, nil
}

func goType(schema *openapi3.Schema) reflect.Type {
	switch schemaType(schema) {
	case openapi3.TypeInteger:
		if schema.Format == "int32" {
			return reflect.TypeOf(int32(0))
		}
		return reflect.TypeOf(int64(0))
	case openapi3.TypeNumber:
		if schema.Format == "float" {
			return reflect.TypeOf(float32(0))
		}
		return reflect.TypeOf(float64(0))
	case openapi3.TypeBoolean:
		return reflect.TypeOf(false)
	case openapi3.TypeArray:
		elem := reflect.TypeOf("")
		if schema.Items != nil && schema.Items.Value != nil {
			elem = goType(schema.Items.Value)
		}
		return reflect.SliceOf(elem)
	case openapi3.TypeString:
		switch schema.Format {
		case "date-time", "date":
			return reflect.TypeOf(time.Time{})
		}
	}
	return reflect.TypeOf("")
}

// schemaType returns the first declared type of schema.
func schemaType(schema *openapi3.Schema) string {
	if schema == nil || schema.Type == nil {
		return ""
	}
	if values := schema.Type.Slice(); len(values) > 0 {
		return values[0]
	}
	return ""
}

func optionalLimit(limit *uint64) int {
	if limit == nil {
		return -1
	}
	return int(*limit)
}

func sourceFor(in string) (binding.Source, bool) {
	switch in {
	case openapi3.ParameterInQuery:
		return binding.SourceQuery, true
	case openapi3.ParameterInPath:
		return binding.SourcePath, true
	case openapi3.ParameterInHeader:
		return binding.SourceHeader, true
	default:
		return "", false
	}
}

func truthy(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case string:
		return strings.EqualFold(strings.TrimSpace(value), "true")
	default:
		return false
	}
}
