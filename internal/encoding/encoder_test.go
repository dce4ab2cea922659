package encoding

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factstore/datomize/pkg/datom"
)

func roundTripValue(t *testing.T, v any) any {
	t.Helper()

	encoder := NewTermEncoder()
	decoder := NewTermDecoder()

	encoded, str, err := encoder.EncodeValue(v)
	require.NoError(t, err)
	if encoded.NeedsLookup() {
		require.NotNil(t, str, "hashed terms must surface their text")
	}

	decoded, err := decoder.DecodeValue(encoded, str)
	require.NoError(t, err)
	return decoded
}

func TestValueRoundTrip(t *testing.T) {
	instant := time.Date(2024, 5, 17, 10, 30, 0, 123456789, time.UTC)

	tests := []struct {
		name string
		v    any
		want any
	}{
		{"inline string", "grue", "grue"},
		{"hashed string", strings.Repeat("wumpus", 10), strings.Repeat("wumpus", 10)},
		{"short keyword", datom.Keyword(":a/b"), datom.Keyword(":a/b")},
		{"hashed keyword", datom.Keyword(":dz.element.value/string"), datom.Keyword(":dz.element.value/string")},
		{"negative long", int64(-42), int64(-42)},
		{"int width normalized", 7, int64(7)},
		{"float", float32(1.5), float32(1.5)},
		{"double", 2.25, 2.25},
		{"bool true", true, true},
		{"bool false", false, false},
		{"instant nanoseconds", instant, instant},
		{"entity id", datom.ID(99), datom.ID(99)},
		{"bytes", []byte{0, 1, 2, 255}, []byte{0, 1, 2, 255}},
		{"string with NUL", "a\x00b", "a\x00b"},
		{"string of padding bytes", "\x00\x00", "\x00\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roundTripValue(t, tt.v))
		})
	}
}

func TestBigIntRoundTrip(t *testing.T) {
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	decoded := roundTripValue(t, huge)
	require.IsType(t, (*big.Int)(nil), decoded)
	assert.Zero(t, huge.Cmp(decoded.(*big.Int)))
}

func TestBigDecRoundTrip(t *testing.T) {
	f, _, err := big.ParseFloat("3.14159265358979323846264338327950288", 10, 200, big.ToNearestEven)
	require.NoError(t, err)

	decoded := roundTripValue(t, f)
	require.IsType(t, (*big.Float)(nil), decoded)
	got := decoded.(*big.Float)
	assert.Equal(t, f.Prec(), got.Prec())
	assert.Zero(t, f.Cmp(got))
}

func TestInstantZoneNormalization(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	local := time.Date(2024, 5, 17, 11, 30, 0, 0, loc)

	decoded := roundTripValue(t, local)
	assert.True(t, decoded.(time.Time).Equal(local))
	assert.Equal(t, time.UTC, decoded.(time.Time).Location())
}

func TestEncodePlaceholderFails(t *testing.T) {
	encoder := NewTermEncoder()

	_, err := encoder.EncodeEntityID(datom.TempID{Partition: "user", N: -1})
	require.Error(t, err)

	_, _, err = encoder.EncodeValue(datom.TempID{Partition: "user", N: -1})
	require.Error(t, err)
}

func TestEncodeNonPrimitiveFails(t *testing.T) {
	encoder := NewTermEncoder()

	_, _, err := encoder.EncodeValue(map[string]any{"a": 1})
	require.Error(t, err)

	_, _, err = encoder.EncodeValue([]any{1})
	require.Error(t, err)
}

func TestEncodeIndexKey(t *testing.T) {
	encoder := NewTermEncoder()

	e, err := encoder.EncodeEntityID(datom.ID(1))
	require.NoError(t, err)
	a, _ := encoder.EncodeKeyword(":test/name")
	v, _, err := encoder.EncodeValue("grue")
	require.NoError(t, err)

	key := encoder.EncodeIndexKey(e, a, v)
	assert.Len(t, key, 3*EncodedTermSize)
}

func TestHashedTermsDistinguishTypes(t *testing.T) {
	encoder := NewTermEncoder()

	long := strings.Repeat("x", 20)
	s, _, err := encoder.EncodeValue(long)
	require.NoError(t, err)
	k, _, err := encoder.EncodeValue(datom.Keyword(long))
	require.NoError(t, err)

	// Same text, different term types.
	assert.NotEqual(t, s, k)
	assert.True(t, s.NeedsLookup())
	assert.True(t, k.NeedsLookup())
}

func TestNulStringsNeverInline(t *testing.T) {
	encoder := NewTermEncoder()

	// Inline payloads are zero-padded, so text containing NUL must take
	// the hash path even when it fits inline.
	encoded, str, err := encoder.EncodeValue("a\x00b")
	require.NoError(t, err)
	assert.True(t, encoded.NeedsLookup())
	require.NotNil(t, str)
	assert.Equal(t, "a\x00b", *str)
}
