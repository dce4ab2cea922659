package encoding

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/factstore/datomize/pkg/datom"
)

// TermDecoder decodes encoded terms back to datom components.
type TermDecoder struct{}

func NewTermDecoder() *TermDecoder {
	return &TermDecoder{}
}

// DecodeEntityID decodes an entity id term.
func (d *TermDecoder) DecodeEntityID(encoded EncodedTerm) (datom.EntityID, error) {
	if encoded.TermType() != termID {
		return nil, fmt.Errorf("term type %d is not an entity id", encoded.TermType())
	}
	return datom.ID(int64(binary.BigEndian.Uint64(encoded[1:9]))), nil // #nosec G115 - intentional bit-pattern conversion
}

// DecodeKeyword decodes an attribute keyword term. For hashed terms the
// looked-up id2str text must be provided.
func (d *TermDecoder) DecodeKeyword(encoded EncodedTerm, stringValue *string) (datom.Keyword, error) {
	if encoded.TermType() != termKeyword {
		return "", fmt.Errorf("term type %d is not a keyword", encoded.TermType())
	}
	s, err := decodeText(encoded, stringValue)
	if err != nil {
		return "", err
	}
	return datom.Keyword(s), nil
}

// DecodeValue decodes a fact value term. For hashed terms the looked-up
// id2str text must be provided.
func (d *TermDecoder) DecodeValue(encoded EncodedTerm, stringValue *string) (any, error) {
	switch encoded.TermType() {
	case termID:
		return d.DecodeEntityID(encoded)

	case termKeyword:
		return d.DecodeKeyword(encoded, stringValue)

	case termString:
		return decodeText(encoded, stringValue)

	case termLong:
		return int64(binary.BigEndian.Uint64(encoded[1:9])), nil // #nosec G115 - intentional bit-pattern conversion

	case termFloat:
		return math.Float32frombits(binary.BigEndian.Uint32(encoded[1:5])), nil

	case termDouble:
		return math.Float64frombits(binary.BigEndian.Uint64(encoded[1:9])), nil

	case termBoolean:
		return encoded[1] != 0, nil

	case termInstant:
		sec := int64(binary.BigEndian.Uint64(encoded[1:9])) // #nosec G115 - intentional bit-pattern conversion
		nsec := int64(binary.BigEndian.Uint32(encoded[9:13]))
		return time.Unix(sec, nsec).UTC(), nil

	case termBigInt:
		s, err := decodeText(encoded, stringValue)
		if err != nil {
			return nil, err
		}
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid bigint text %q", s)
		}
		return n, nil

	case termBigDec:
		s, err := decodeText(encoded, stringValue)
		if err != nil {
			return nil, err
		}
		return decodeBigDec(s)

	case termBytes:
		s, err := decodeText(encoded, stringValue)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil

	default:
		return nil, fmt.Errorf("unknown term type: %d", encoded.TermType())
	}
}

func decodeText(encoded EncodedTerm, stringValue *string) (string, error) {
	if encoded.NeedsLookup() {
		if stringValue == nil {
			return "", fmt.Errorf("string value required for hashed term type %d", encoded.TermType())
		}
		return *stringValue, nil
	}
	end := 1
	for end < EncodedTermSize && encoded[end] != 0 {
		end++
	}
	return string(encoded[1:end]), nil
}

func decodeBigDec(s string) (*big.Float, error) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return nil, fmt.Errorf("invalid bigdec text %q", s)
	}
	prec, err := strconv.ParseUint(s[:i], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid bigdec precision in %q: %w", s, err)
	}
	f, _, err := big.ParseFloat(s[i+1:], 0, uint(prec), big.ToNearestEven)
	if err != nil {
		return nil, fmt.Errorf("invalid bigdec mantissa in %q: %w", s, err)
	}
	return f, nil
}
