package ctyconv

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// lift is ToCty for values that must not fail: anything cty cannot
// represent is compared by its printed form.
func lift(v any) cty.Value {
	val, err := ToCty(v)
	if err != nil {
		return cty.StringVal(fmt.Sprint(v))
	}
	return val
}

func toNumber(v any) (cty.Value, error) {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	val, err := ToCty(v)
	if err != nil {
		return cty.NilVal, err
	}
	if val.IsNull() {
		return cty.NilVal, fmt.Errorf("value is null")
	}
	n, err := convert.Convert(val, cty.Number)
	if err != nil {
		return cty.NilVal, fmt.Errorf("value of type %s is not numeric: %w", val.Type().FriendlyName(), err)
	}
	return n, nil
}

// ToFloat converts a numeric value or numeric string.
func ToFloat(v any) (float64, error) {
	n, err := toNumber(v)
	if err != nil {
		return 0, err
	}
	f, _ := n.AsBigFloat().Float64()
	return f, nil
}

// ToInt converts a value to an int, rejecting fractions and values outside
// the int range.
func ToInt(v any) (int, error) {
	n, err := toNumber(v)
	if err != nil {
		return 0, err
	}
	bf := n.AsBigFloat()
	if !bf.IsInt() {
		return 0, fmt.Errorf("value %v is not an integer", v)
	}
	i, acc := bf.Int64()
	if acc != big.Exact || int64(int(i)) != i {
		return 0, fmt.Errorf("value %v is out of range", v)
	}
	return int(i), nil
}

// Text renders a value as a string: primitives through cty's string
// conversion, structures as JSON.
func Text(v any) string {
	val := lift(v)
	if val.IsNull() {
		return ""
	}
	if val.Type().IsPrimitiveType() {
		if s, err := convert.Convert(val, cty.String); err == nil {
			return s.AsString()
		}
	}
	b, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Equal compares numerically when both sides are numeric, as booleans when
// both are booleans and as text otherwise.
func Equal(a, b any) bool {
	if na, err := toNumber(a); err == nil {
		if nb, err := toNumber(b); err == nil {
			return na.Equals(nb).True()
		}
	}
	va, vb := lift(a), lift(b)
	if va.Type() == cty.Bool && vb.Type() == cty.Bool && !va.IsNull() && !vb.IsNull() {
		return va.Equals(vb).True()
	}
	return Text(a) == Text(b)
}

// Compare orders numbers numerically and everything else as text.
func Compare(a, b any) int {
	if na, err := toNumber(a); err == nil {
		if nb, err := toNumber(b); err == nil {
			switch {
			case na.LessThan(nb).True():
				return -1
			case na.GreaterThan(nb).True():
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(Text(a), Text(b))
}

// Contains reports whether a collection holds an element Equal to needle,
// or, for anything else, whether the text of haystack contains the text of
// needle.
func Contains(haystack, needle any) bool {
	val := lift(haystack)
	ty := val.Type()
	if !val.IsNull() && (ty.IsTupleType() || ty.IsListType() || ty.IsSetType()) {
		for it := val.ElementIterator(); it.Next(); {
			_, e := it.Element()
			elem, err := FromCty(e)
			if err == nil && Equal(elem, needle) {
				return true
			}
		}
		return false
	}
	return strings.Contains(Text(haystack), Text(needle))
}
