// Package ctyconv maps loosely typed function responses onto declared output
// types using go-cty's conversion rules.
//
// A decoded JSON value is lifted to a cty.Value, converted to the cty type
// matching the port's semantic type (number, string, boolean, object,
// collection), and lowered back to plain Go values for the data tables.
package ctyconv

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ErrUnknownType is returned for semantic types the engine does not know.
type ErrUnknownType struct {
	Type string
}

func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown data type %q", e.Type)
}

// ParseObject decodes a function response into its top-level fields.
func ParseObject(resultJSON string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(resultJSON), &fields); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	return fields, nil
}

// Coerce converts v to the Go representation of semanticType.
func Coerce(v any, semanticType string) (any, error) {
	val, err := ToCty(v)
	if err != nil {
		return nil, err
	}
	if val.IsNull() {
		return nil, fmt.Errorf("value is null")
	}

	switch semanticType {
	case "number":
		return convertTo(val, cty.Number)
	case "string":
		return convertTo(val, cty.String)
	case "boolean", "bool":
		return convertTo(val, cty.Bool)
	case "object":
		ty := val.Type()
		if !ty.IsObjectType() && !ty.IsMapType() {
			return nil, fmt.Errorf("expected object, got %s", ty.FriendlyName())
		}
		return FromCty(val)
	case "collection", "array":
		ty := val.Type()
		if !ty.IsTupleType() && !ty.IsListType() && !ty.IsSetType() {
			return nil, fmt.Errorf("expected collection, got %s", ty.FriendlyName())
		}
		return FromCty(val)
	default:
		return nil, &ErrUnknownType{Type: semanticType}
	}
}

func convertTo(val cty.Value, ty cty.Type) (any, error) {
	converted, err := convert.Convert(val, ty)
	if err != nil {
		return nil, fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), ty.FriendlyName(), err)
	}
	return FromCty(converted)
}

// ToCty lifts a JSON-shaped Go value into cty. Collections become tuples and
// objects become object values so heterogeneous content is preserved.
func ToCty(v any) (cty.Value, error) {
	switch t := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return t, nil
	case bool:
		return cty.BoolVal(t), nil
	case string:
		return cty.StringVal(t), nil
	case float64:
		return cty.NumberFloatVal(t), nil
	case float32:
		return cty.NumberFloatVal(float64(t)), nil
	case int:
		return cty.NumberIntVal(int64(t)), nil
	case int64:
		return cty.NumberIntVal(t), nil
	case int32:
		return cty.NumberIntVal(int64(t)), nil
	case json.Number:
		bf, _, err := big.ParseFloat(string(t), 10, 512, big.ToNearestEven)
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return cty.NumberVal(bf), nil
	case []any:
		if len(t) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(t))
		for i, e := range t {
			ev, err := ToCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case []string:
		elems := make([]any, len(t))
		for i, e := range t {
			elems[i] = e
		}
		return ToCty(elems)
	case []float64:
		elems := make([]any, len(t))
		for i, e := range t {
			elems[i] = e
		}
		return ToCty(elems)
	case map[string]any:
		if len(t) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(t))
		for k, e := range t {
			ev, err := ToCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k] = ev
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value type %T", v)
	}
}

// FromCty lowers a cty.Value to plain Go values: float64, string, bool,
// []any and map[string]any.
func FromCty(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if ty.IsPrimitiveType() {
		switch ty {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			f, _ := val.AsBigFloat().Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type: %s", ty.FriendlyName())
		}
	}
	if ty.IsObjectType() || ty.IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			goVal, err := FromCty(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = goVal
		}
		return out, nil
	}
	if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			goVal, err := FromCty(v)
			if err != nil {
				return nil, err
			}
			out = append(out, goVal)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cty.Type for conversion: %s", ty.FriendlyName())
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
