// Package encoding encodes datom components into the fixed-size tagged
// terms used as Badger index keys: a type byte plus either inline data or
// a 128-bit xxhash3 of the text, with hashed text kept in a lookaside
// id2str table.
package encoding

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/factstore/datomize/pkg/datom"
)

const (
	// Maximum size for inline strings (16 bytes of UTF-8)
	MaxInlineStringSize = 16

	// Encoded term size (type byte + 16 bytes for 128-bit hash or inline data)
	EncodedTermSize = 17
)

// Term type tags. The high bit marks a hashed payload that needs an id2str
// lookup on decode.
const (
	termID byte = iota + 1
	termKeyword
	termString
	termLong
	termFloat
	termDouble
	termBoolean
	termInstant
	termBigInt
	termBigDec
	termBytes

	hashedFlag byte = 0x80
)

// EncodedTerm is a datom component encoded as a type byte followed by up
// to 16 bytes of inline data or a 128-bit hash.
type EncodedTerm [EncodedTermSize]byte

// TermType returns the term's type tag without the hashed flag.
func (t EncodedTerm) TermType() byte {
	return t[0] &^ hashedFlag
}

// NeedsLookup reports whether decoding the term requires the id2str table.
func (t EncodedTerm) NeedsLookup() bool {
	return t[0]&hashedFlag != 0
}

// TermEncoder encodes entity ids, attribute keywords, and fact values into
// fixed-size index key components.
type TermEncoder struct{}

func NewTermEncoder() *TermEncoder {
	return &TermEncoder{}
}

// Hash128 computes a 128-bit xxhash3 hash of the input string.
func (e *TermEncoder) Hash128(s string) [16]byte {
	hash := xxh3.Hash128([]byte(s))
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// EncodeEntityID encodes a persistent entity id. Placeholders must be
// materialized before they reach the index layer.
func (e *TermEncoder) EncodeEntityID(id datom.EntityID) (EncodedTerm, error) {
	var encoded EncodedTerm
	persistent, ok := id.(datom.ID)
	if !ok {
		return encoded, fmt.Errorf("cannot encode placeholder id %s", id)
	}
	encoded[0] = termID
	binary.BigEndian.PutUint64(encoded[1:9], uint64(persistent)) // #nosec G115 - intentional bit-pattern conversion
	return encoded, nil
}

// EncodeKeyword encodes an attribute keyword. Short keywords are inlined;
// longer ones are hashed with the text kept in id2str.
func (e *TermEncoder) EncodeKeyword(k datom.Keyword) (EncodedTerm, *string) {
	return e.encodeText(termKeyword, string(k))
}

// EncodeValue encodes a store-primitive fact value. The returned string,
// when non-nil, must be stored in the id2str table under the term's hash.
func (e *TermEncoder) EncodeValue(v any) (EncodedTerm, *string, error) {
	var encoded EncodedTerm

	kind, err := datom.Classify(v)
	if err != nil {
		return encoded, nil, err
	}

	switch kind {
	case datom.KindRef:
		encoded, err := e.EncodeEntityID(v.(datom.EntityID))
		return encoded, nil, err

	case datom.KindKeyword:
		encoded, s := e.encodeText(termKeyword, string(v.(datom.Keyword)))
		return encoded, s, nil

	case datom.KindString:
		encoded, s := e.encodeText(termString, v.(string))
		return encoded, s, nil

	case datom.KindLong:
		encoded[0] = termLong
		binary.BigEndian.PutUint64(encoded[1:9], uint64(datom.AsLong(v))) // #nosec G115 - intentional bit-pattern conversion
		return encoded, nil, nil

	case datom.KindFloat:
		encoded[0] = termFloat
		binary.BigEndian.PutUint32(encoded[1:5], math.Float32bits(v.(float32)))
		return encoded, nil, nil

	case datom.KindDouble:
		encoded[0] = termDouble
		binary.BigEndian.PutUint64(encoded[1:9], math.Float64bits(v.(float64)))
		return encoded, nil, nil

	case datom.KindBoolean:
		encoded[0] = termBoolean
		if v.(bool) {
			encoded[1] = 1
		}
		return encoded, nil, nil

	case datom.KindInstant:
		t := v.(time.Time).UTC()
		encoded[0] = termInstant
		binary.BigEndian.PutUint64(encoded[1:9], uint64(t.Unix())) // #nosec G115 - intentional bit-pattern conversion
		binary.BigEndian.PutUint32(encoded[9:13], uint32(t.Nanosecond()))
		return encoded, nil, nil

	case datom.KindBigInt:
		encoded, s := e.hashText(termBigInt, v.(*big.Int).Text(10))
		return encoded, s, nil

	case datom.KindBigDec:
		encoded, s := e.hashText(termBigDec, encodeBigDec(v.(*big.Float)))
		return encoded, s, nil

	case datom.KindBytes:
		encoded, s := e.hashText(termBytes, string(v.([]byte)))
		return encoded, s, nil

	default:
		return encoded, nil, fmt.Errorf("cannot encode non-primitive value of kind %s", kind)
	}
}

// EncodeIndexKey concatenates encoded terms into a single index key.
func (e *TermEncoder) EncodeIndexKey(terms ...EncodedTerm) []byte {
	key := make([]byte, 0, len(terms)*EncodedTermSize)
	for _, t := range terms {
		key = append(key, t[:]...)
	}
	return key
}

func (e *TermEncoder) encodeText(termType byte, s string) (EncodedTerm, *string) {
	// Inline payloads are zero-padded, so a NUL inside the text would be
	// indistinguishable from padding on decode. Such strings go through
	// the hash path even when short.
	if len(s) <= MaxInlineStringSize && strings.IndexByte(s, 0) < 0 {
		var encoded EncodedTerm
		encoded[0] = termType
		copy(encoded[1:], s)
		return encoded, nil
	}
	return e.hashText(termType, s)
}

func (e *TermEncoder) hashText(termType byte, s string) (EncodedTerm, *string) {
	var encoded EncodedTerm
	encoded[0] = termType | hashedFlag
	hash := e.Hash128(s)
	copy(encoded[1:], hash[:])
	return encoded, &s
}

// encodeBigDec renders a big.Float so it round-trips exactly: the working
// precision followed by the hexadecimal mantissa form.
func encodeBigDec(f *big.Float) string {
	return fmt.Sprintf("%d:%s", f.Prec(), f.Text('p', -1))
}
