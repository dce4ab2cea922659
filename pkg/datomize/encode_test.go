package datomize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factstore/datomize/internal/memstore"
	"github.com/factstore/datomize/pkg/datom"
	"github.com/factstore/datomize/pkg/schema"
	"github.com/factstore/datomize/pkg/store"
)

func testSchema() *schema.Schema {
	sch := schema.New()
	sch.Install(":test/map", schema.AnnotationMap)
	sch.Install(":test/vector", schema.AnnotationVector)
	sch.Install(":test/variant", schema.AnnotationVariant)
	sch.Install(":test/opaque", schema.AnnotationOpaque)
	sch.Install(":test/name", schema.AnnotationNone)
	sch.Install(":test/count", schema.AnnotationNone)
	sch.Install(":test/plain", schema.AnnotationNone)
	return sch
}

func newTestStore(t *testing.T) *memstore.Store {
	t.Helper()
	return memstore.New(testSchema())
}

// factsFor returns the facts of tx whose attribute equals attr.
func factsFor(tx []datom.Datom, attr datom.Keyword) []datom.Datom {
	var out []datom.Datom
	for _, d := range tx {
		if d.A == attr {
			out = append(out, d)
		}
	}
	return out
}

func TestEncodeMapShape(t *testing.T) {
	st := newTestStore(t)

	tx, err := Datomize(st, Entity{":test/map": map[string]any{"a": "grue"}})
	require.NoError(t, err)
	require.Len(t, tx, 3)

	refs := factsFor(tx, ":test/map")
	require.Len(t, refs, 1)
	child, ok := refs[0].V.(datom.EntityID)
	require.True(t, ok, "map attribute must hold a ref")

	keys := factsFor(tx, schema.AttrElementKey)
	require.Len(t, keys, 1)
	assert.Equal(t, child, keys[0].E)
	assert.Equal(t, "a", keys[0].V)

	values := factsFor(tx, schema.AttrValueString)
	require.Len(t, values, 1)
	assert.Equal(t, child, values[0].E)
	assert.Equal(t, "grue", values[0].V)
}

func TestEncodeVectorIndices(t *testing.T) {
	st := newTestStore(t)

	tx, err := Datomize(st, Entity{":test/vector": []any{"a", "b", "c"}})
	require.NoError(t, err)

	refs := factsFor(tx, ":test/vector")
	require.Len(t, refs, 3)

	indices := factsFor(tx, schema.AttrElementIndex)
	require.Len(t, indices, 3)
	seen := map[int64]bool{}
	for _, d := range indices {
		seen[d.V.(int64)] = true
	}
	assert.Equal(t, map[int64]bool{0: true, 1: true, 2: true}, seen)
}

func TestEncodeEmptyCollections(t *testing.T) {
	for _, tt := range []struct {
		attr  datom.Keyword
		value any
	}{
		{":test/map", map[string]any{}},
		{":test/vector", []any{}},
	} {
		st := newTestStore(t)

		tx, err := Datomize(st, Entity{tt.attr: tt.value})
		require.NoError(t, err)
		require.Len(t, tx, 2, "empty collection is one sentinel child plus one ref")

		empties := factsFor(tx, schema.AttrEmpty)
		require.Len(t, empties, 1)
		assert.Equal(t, true, empties[0].V)

		assert.Empty(t, factsFor(tx, schema.AttrElementKey))
		assert.Empty(t, factsFor(tx, schema.AttrElementIndex))

		refs := factsFor(tx, tt.attr)
		require.Len(t, refs, 1)
		assert.Equal(t, empties[0].E, refs[0].V)
	}
}

func TestEncodeNilSentinel(t *testing.T) {
	st := newTestStore(t)

	tx, err := Datomize(st, Entity{":test/plain": nil})
	require.NoError(t, err)
	require.Len(t, tx, 1)
	assert.Equal(t, schema.NilSentinel, tx[0].V)
}

func TestEncodeOpaqueLiteral(t *testing.T) {
	st := newTestStore(t)

	tx, err := Datomize(st, Entity{":test/opaque": map[string]any{"b": []any{1, 2}, "a": "x"}})
	require.NoError(t, err)
	require.Len(t, tx, 1, "opaque values produce no child entities")

	lit, ok := tx[0].V.(string)
	require.True(t, ok)
	assert.Equal(t, `{"a":"x","b":[1,2]}`, lit)
	assert.False(t, strings.Contains(lit, "\n"))
}

func TestEncodeIntegerNormalization(t *testing.T) {
	st := newTestStore(t)

	tx, err := Datomize(st, Entity{":test/count": 42})
	require.NoError(t, err)
	require.Len(t, tx, 1)
	assert.Equal(t, int64(42), tx[0].V)
}

func TestEncodeUnannotatedCollectionFails(t *testing.T) {
	st := newTestStore(t)

	_, err := Datomize(st, Entity{":test/plain": map[string]any{"a": 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":test/plain")
}

func TestEncodeUnsupportedValueFails(t *testing.T) {
	st := newTestStore(t)

	_, err := Datomize(st, Entity{":test/map": map[string]any{"a": make(chan int)}})
	require.Error(t, err)

	var unsupported *datom.UnsupportedValueTypeError
	require.ErrorAs(t, err, &unsupported)
}

func TestEncodeUnknownAttributeFails(t *testing.T) {
	st := newTestStore(t)

	_, err := Datomize(st, Entity{":test/unknown": "x"})
	require.Error(t, err)

	var annErr *schema.AnnotationError
	require.ErrorAs(t, err, &annErr)
	assert.Equal(t, datom.Keyword(":test/unknown"), annErr.Attribute)
}

func TestEncodeVariantShape(t *testing.T) {
	st := newTestStore(t)

	tx, err := Datomize(st, Entity{":test/variant": "grue"})
	require.NoError(t, err)
	require.Len(t, tx, 2)

	refs := factsFor(tx, ":test/variant")
	require.Len(t, refs, 1)
	child := refs[0].V.(datom.EntityID)

	values := factsFor(tx, schema.AttrValueString)
	require.Len(t, values, 1)
	assert.Equal(t, child, values[0].E)
	assert.Equal(t, "grue", values[0].V)
}

func TestEncodeDeterministicOrder(t *testing.T) {
	st := newTestStore(t)
	data := Entity{":test/map": map[string]any{"b": "wumpus", "a": "grue", "c": "fnord"}}

	first, err := Datomize(st, data)
	require.NoError(t, err)

	// Fresh store so placeholder numbering restarts.
	again, err := Datomize(newTestStore(t), data)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestCondense(t *testing.T) {
	a := datom.TempID{Partition: "user", N: -1}
	b := datom.TempID{Partition: "user", N: -2}
	f1 := datom.Datom{Op: datom.OpAssert, E: a, A: ":x", V: int64(1)}
	f2 := datom.Datom{Op: datom.OpAssert, E: b, A: ":x", V: int64(2)}

	ids, facts := condense([]element{
		{id: a, facts: []datom.Datom{f1}},
		{id: b, facts: []datom.Datom{f2}},
	})
	assert.Equal(t, []datom.EntityID{a, b}, ids)
	assert.Equal(t, []datom.Datom{f1, f2}, facts)
}

var _ store.Store = (*memstore.Store)(nil)
