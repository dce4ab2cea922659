package datom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"time"

	"github.com/zeebo/xxh3"
)

// Fingerprint is a 128-bit identity for a fact's (entity, attribute, value)
// triple, ignoring the operation tag. Reconciliation matches assert/retract
// pairs through it.
type Fingerprint [16]byte

// FingerprintEAV computes the fingerprint of a datom from its canonical
// byte form.
func FingerprintEAV(d Datom) Fingerprint {
	buf := make([]byte, 0, 64)
	if d.E != nil {
		buf = append(buf, d.E.String()...)
	}
	buf = append(buf, 0)
	buf = append(buf, d.A...)
	buf = append(buf, 0)
	buf, _ = AppendValueBytes(buf, d.V)

	h := xxh3.Hash128(buf)
	var fp Fingerprint
	binary.BigEndian.PutUint64(fp[0:8], h.Hi)
	binary.BigEndian.PutUint64(fp[8:16], h.Lo)
	return fp
}

// AppendValueBytes appends a canonical, kind-prefixed byte form of a
// store-primitive value to buf. Two values produce the same bytes exactly
// when the store considers them the same value: integer widths are
// normalized, big numerics are compared by magnitude, instants by UTC
// nanosecond.
func AppendValueBytes(buf []byte, v any) ([]byte, error) {
	kind, err := Classify(v)
	if err != nil {
		return buf, err
	}
	buf = append(buf, byte(kind))

	switch kind {
	case KindNil:
		return buf, nil
	case KindString:
		return append(buf, reflect.ValueOf(v).String()...), nil
	case KindKeyword:
		return append(buf, v.(Keyword)...), nil
	case KindLong:
		return binary.BigEndian.AppendUint64(buf, uint64(AsLong(v))), nil
	case KindFloat:
		f := float32(reflect.ValueOf(v).Float())
		return binary.BigEndian.AppendUint32(buf, math.Float32bits(f)), nil
	case KindDouble:
		return binary.BigEndian.AppendUint64(buf, math.Float64bits(reflect.ValueOf(v).Float())), nil
	case KindBoolean:
		if reflect.ValueOf(v).Bool() {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case KindInstant:
		t := v.(time.Time).UTC()
		buf = binary.BigEndian.AppendUint64(buf, uint64(t.Unix()))
		return binary.BigEndian.AppendUint32(buf, uint32(t.Nanosecond())), nil
	case KindBigInt:
		return append(buf, v.(*big.Int).Text(10)...), nil
	case KindBigDec:
		f := v.(*big.Float)
		buf = binary.BigEndian.AppendUint32(buf, uint32(f.Prec()))
		return append(buf, f.Text('p', -1)...), nil
	case KindBytes:
		return append(buf, v.([]byte)...), nil
	case KindRef:
		return append(buf, v.(EntityID).String()...), nil
	default:
		// Maps and vectors are never stored as literal fact values.
		return buf, &UnsupportedValueTypeError{TypeName: fmt.Sprintf("%T (non-primitive)", v)}
	}
}

// ValueEqual reports whether two store-primitive values are the same value
// under the store's equality: int(3) equals int64(3), big numerics compare
// by magnitude, instants by absolute time. Values that do not classify fall
// back to deep equality.
func ValueEqual(a, b any) bool {
	ab, errA := AppendValueBytes(nil, a)
	bb, errB := AppendValueBytes(nil, b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ab, bb)
}

// AsLong normalizes any integer-kinded value to int64.
func AsLong(v any) int64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(rv.Uint())
	default:
		return rv.Int()
	}
}
