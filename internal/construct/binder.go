package construct

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/modelmirror/internal/ctxlog"
	"github.com/vk/modelmirror/internal/registry"
)

// TagName is the struct tag the binder reads parameter names from.
const TagName = "mirror"

// Binder is the default Constructor. It allocates the target type, decodes
// parameters into tagged fields, and runs the optional Init hook.
type Binder struct{}

// NewBinder creates the default construction collaborator.
func NewBinder() *Binder { return &Binder{} }

// Construct implements Constructor.
func (b *Binder) Construct(ctx context.Context, ref registry.ClassReference, params map[string]any) (any, error) {
	logger := ctxlog.FromContext(ctx)

	var instance any
	switch {
	case ref.New != nil:
		instance = ref.New()
	case ref.Type != nil:
		instance = reflect.New(ref.Type).Interface()
	default:
		return nil, &ValidationError{Schema: ref.Schema, Reason: "class has neither a type nor a factory"}
	}

	target := reflect.ValueOf(instance)
	if target.Kind() != reflect.Pointer || target.Elem().Kind() != reflect.Struct {
		return nil, &ValidationError{Schema: ref.Schema, Reason: fmt.Sprintf("constructed value must be a struct pointer, got %T", instance)}
	}

	if err := b.bindStruct(ref.Schema, target.Elem(), params); err != nil {
		return nil, err
	}

	if init, ok := instance.(Initializer); ok {
		logger.Debug("Running Init hook.", "schema", ref.Schema, "type", target.Elem().Type().String())
		if err := init.Init(ctx); err != nil {
			return nil, fmt.Errorf("init of %s failed: %w", ref, err)
		}
	}
	return instance, nil
}

// Bind decodes an already-resolved value map into a caller-declared shape.
// The engine uses it to produce shaped results; the tag grammar is the same
// as for constructed types.
func (b *Binder) Bind(target any, values map[string]any) error {
	dst := reflect.ValueOf(target)
	if dst.Kind() != reflect.Pointer || dst.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind target must be a struct pointer, got %T", target)
	}
	return b.bindStruct(dst.Elem().Type().String(), dst.Elem(), values)
}

// bindStruct decodes a parameter map into the tagged fields of dst.
// Parameters without a matching field are a validation failure, so typos in
// documents surface instead of silently dropping configuration.
func (b *Binder) bindStruct(schema string, dst reflect.Value, params map[string]any) error {
	fields := make(map[string]reflect.Value)
	required := make(map[string]bool)

	dstType := dst.Type()
	for i := 0; i < dstType.NumField(); i++ {
		fieldDef := dstType.Field(i)
		if !fieldDef.IsExported() {
			continue
		}
		tag := fieldDef.Tag.Get(TagName)
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		fields[name] = dst.Field(i)
		if opts == "required" {
			required[name] = true
		}
	}

	for name, value := range params {
		field, ok := fields[name]
		if !ok {
			return &ValidationError{Schema: schema, Param: name, Reason: fmt.Sprintf("no such parameter on %s", dstType)}
		}
		if err := b.bindValue(field, value); err != nil {
			return &ValidationError{Schema: schema, Param: name, Reason: err.Error()}
		}
	}

	for name := range required {
		if _, ok := params[name]; !ok {
			return &ValidationError{Schema: schema, Param: name, Reason: "required parameter missing"}
		}
	}
	return nil
}

// bindValue assigns a resolved document value to a single field.
func (b *Binder) bindValue(field reflect.Value, value any) error {
	if value == nil {
		return nil
	}

	// A pending forward reference: patch the field once the value lands.
	if def, ok := value.(Deferred); ok {
		if v, done := def.Materialized(); done {
			value = v
		} else {
			target := field
			return def.OnComplete(func(v any) error {
				return b.bindValue(target, v)
			})
		}
	}

	val := reflect.ValueOf(value)
	fieldType := field.Type()

	if val.Type().AssignableTo(fieldType) {
		field.Set(val)
		return nil
	}

	switch fieldType.Kind() {
	case reflect.Pointer:
		elem := reflect.New(fieldType.Elem())
		if err := b.bindValue(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil

	case reflect.Struct:
		m, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot bind %T into struct %s", value, fieldType)
		}
		return b.bindStruct(fieldType.String(), field, m)

	case reflect.Slice:
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("cannot bind %T into slice %s", value, fieldType)
		}
		out := reflect.MakeSlice(fieldType, len(items), len(items))
		for i, item := range items {
			if err := b.bindValue(out.Index(i), item); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		field.Set(out)
		return nil

	case reflect.Map:
		m, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot bind %T into map %s", value, fieldType)
		}
		if fieldType.Key().Kind() != reflect.String {
			return fmt.Errorf("map parameter keys must be strings, field is %s", fieldType)
		}
		out := reflect.MakeMapWithSize(fieldType, len(m))
		for key, item := range m {
			elem := reflect.New(fieldType.Elem()).Elem()
			if err := b.bindValue(elem, item); err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
			out.SetMapIndex(reflect.ValueOf(key), elem)
		}
		field.Set(out)
		return nil

	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
			return nil
		}

	case reflect.Bool:
		if v, ok := value.(bool); ok {
			field.SetBool(v)
			return nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, ok := toInt64(value); ok {
			if field.OverflowInt(n) {
				return fmt.Errorf("value %d overflows %s", n, fieldType)
			}
			field.SetInt(n)
			return nil
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, ok := toInt64(value); ok && n >= 0 {
			if field.OverflowUint(uint64(n)) {
				return fmt.Errorf("value %d overflows %s", n, fieldType)
			}
			field.SetUint(uint64(n))
			return nil
		}

	case reflect.Float32, reflect.Float64:
		if f, ok := toFloat64(value); ok {
			field.SetFloat(f)
			return nil
		}

	case reflect.Interface:
		// Typically `any`; also satisfied-interface fields land in the
		// AssignableTo fast path above.
		if fieldType.NumMethod() == 0 {
			field.Set(val)
			return nil
		}
	}

	return fmt.Errorf("cannot bind %T into %s", value, fieldType)
}

// toInt64 coerces the number shapes the document loaders produce.
func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
	}
	return 0, false
}

// toFloat64 coerces the number shapes the document loaders produce.
func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}
