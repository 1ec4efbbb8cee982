package esclient

import (
	"fmt"
	"reflect"

	json "github.com/goccy/go-json"
)

// Serializer converts a structured request body to JSON text.
//
// It is used only for request bodies and is separate from whatever encoder
// the caller uses for its own documents.
type Serializer interface {
	Serialize(doc map[string]any) (string, error)
}

// SerializerFunc adapts a function to Serializer.
type SerializerFunc func(doc map[string]any) (string, error)

// Serialize implements Serializer.
func (f SerializerFunc) Serialize(doc map[string]any) (string, error) {
	return f(doc)
}

// Canonicalizer is implemented by client-side value objects (aggregation
// builders, script holders and the like) that are not plain JSON values.
// ToCanonical returns the maps, slices and scalars to encode in their place.
type Canonicalizer interface {
	ToCanonical() any
}

// CanonicalSerializer is the default body serializer.
//
// It emits plain JSON with no type metadata, sorted map keys and no HTML
// escaping. Canonicalizer values found anywhere in maps or slices are
// replaced by their canonical form before encoding.
type CanonicalSerializer struct{}

var _ Serializer = CanonicalSerializer{}

// Serialize implements Serializer.
func (CanonicalSerializer) Serialize(doc map[string]any) (string, error) {
	data, err := json.MarshalWithOption(canonicalize(doc), json.DisableHTMLEscape())
	if err != nil {
		return "", fmt.Errorf("esclient: serialize body: %w", err)
	}
	return string(data), nil
}

// canonicalize walks maps, slices, arrays and pointers of any element type,
// rewriting Canonicalizer values. Structs and json.Marshaler values are left
// to the encoder. The input is not modified.
func canonicalize(v any) any {
	switch t := v.(type) {
	case Canonicalizer:
		return canonicalize(t.ToCanonical())
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = canonicalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = canonicalize(vv)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = canonicalize(vv)
		}
		return out
	case json.Marshaler:
		return v
	default:
		return canonicalizeReflect(v)
	}
}

func canonicalizeReflect(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return v
		}
		return canonicalize(rv.Elem().Interface())
	case reflect.Slice:
		// []byte encodes as base64.
		if rv.IsNil() || rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		return canonicalizeList(rv)
	case reflect.Array:
		return canonicalizeList(rv)
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = canonicalize(iter.Value().Interface())
		}
		return out
	default:
		return v
	}
}

func canonicalizeList(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = canonicalize(rv.Index(i).Interface())
	}
	return out
}
