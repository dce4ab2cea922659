package datom

import (
	"fmt"
	"math/big"
	"reflect"
	"time"
)

// ValueKind classifies a runtime value. The kind selects which element
// value attribute a scalar is written under, and whether a value recurses
// structurally (vectors and maps) or is stored as-is.
type ValueKind byte

const (
	// KindNil is an explicit absent value. It is distinct from "attribute
	// not present": a collection element cannot hold a true absence, so
	// nil is written as a sentinel keyword.
	KindNil ValueKind = iota + 1

	KindString
	KindLong
	KindFloat
	KindDouble
	KindBoolean
	KindInstant
	KindKeyword
	KindVector
	KindMap
	KindBigInt
	KindBigDec
	KindBytes
	KindRef
)

func (k ValueKind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindString:
		return "string"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBoolean:
		return "boolean"
	case KindInstant:
		return "instant"
	case KindKeyword:
		return "keyword"
	case KindVector:
		return "vector"
	case KindMap:
		return "map"
	case KindBigInt:
		return "bigint"
	case KindBigDec:
		return "bigdec"
	case KindBytes:
		return "bytes"
	case KindRef:
		return "ref"
	default:
		return fmt.Sprintf("ValueKind(%d)", byte(k))
	}
}

// UnsupportedValueTypeError is returned by Classify for values outside the
// store-representable shapes. Classification is the only hard failure point
// of the encode path: no facts are emitted for the offending value.
type UnsupportedValueTypeError struct {
	TypeName string
}

func (e *UnsupportedValueTypeError) Error() string {
	return fmt.Sprintf("unsupported value type: %s", e.TypeName)
}

// classifier pairs a type predicate with the kind it selects. Entries are
// ordered most specific first: []byte before generic slices, time.Time and
// the big numeric pointers before the generic map/struct fallbacks.
type classifier struct {
	match func(v any, rv reflect.Value) bool
	kind  ValueKind
}

var classifiers = []classifier{
	{func(v any, _ reflect.Value) bool { _, ok := v.([]byte); return ok }, KindBytes},
	{func(v any, _ reflect.Value) bool { _, ok := v.(time.Time); return ok }, KindInstant},
	{func(v any, _ reflect.Value) bool { _, ok := v.(Keyword); return ok }, KindKeyword},
	{func(v any, _ reflect.Value) bool { _, ok := v.(EntityID); return ok }, KindRef},
	{func(v any, _ reflect.Value) bool { _, ok := v.(*big.Int); return ok }, KindBigInt},
	{func(v any, _ reflect.Value) bool { _, ok := v.(*big.Float); return ok }, KindBigDec},
	{func(_ any, rv reflect.Value) bool { return rv.Kind() == reflect.Bool }, KindBoolean},
	{func(_ any, rv reflect.Value) bool { return rv.Kind() == reflect.String }, KindString},
	{func(_ any, rv reflect.Value) bool { return isIntegerKind(rv.Kind()) }, KindLong},
	{func(_ any, rv reflect.Value) bool { return rv.Kind() == reflect.Float32 }, KindFloat},
	{func(_ any, rv reflect.Value) bool { return rv.Kind() == reflect.Float64 }, KindDouble},
	{func(_ any, rv reflect.Value) bool { return isStringKeyedMap(rv) }, KindMap},
	{func(_ any, rv reflect.Value) bool {
		return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
	}, KindVector},
}

// Classify maps a runtime value to its value kind. Matching is structural:
// any string-keyed map satisfies the keyed-map capability and any slice or
// array the ordered-list capability, regardless of concrete subtype.
func Classify(v any) (ValueKind, error) {
	if v == nil {
		return KindNil, nil
	}
	rv := reflect.ValueOf(v)
	for _, c := range classifiers {
		if c.match(v, rv) {
			return c.kind, nil
		}
	}
	return 0, &UnsupportedValueTypeError{TypeName: fmt.Sprintf("%T", v)}
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return true
	default:
		return false
	}
}

func isStringKeyedMap(rv reflect.Value) bool {
	return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
}
