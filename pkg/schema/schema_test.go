package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factstore/datomize/pkg/datom"
)

func TestParseAnnotation(t *testing.T) {
	for text, want := range map[string]Annotation{
		"":        AnnotationNone,
		"none":    AnnotationNone,
		"map":     AnnotationMap,
		"vector":  AnnotationVector,
		"variant": AnnotationVariant,
		"opaque":  AnnotationOpaque,
	} {
		ann, err := ParseAnnotation(text)
		require.NoError(t, err)
		assert.Equal(t, want, ann)
	}

	_, err := ParseAnnotation("tree")
	require.Error(t, err)
}

func TestBuiltinAnnotations(t *testing.T) {
	s := New()

	ann, err := s.Annotation(AttrValueMap)
	require.NoError(t, err)
	assert.Equal(t, AnnotationMap, ann)

	ann, err = s.Annotation(AttrValueVector)
	require.NoError(t, err)
	assert.Equal(t, AnnotationVector, ann)

	ann, err = s.Annotation(AttrValueString)
	require.NoError(t, err)
	assert.Equal(t, AnnotationNone, ann)

	ann, err = s.Annotation(AttrElementKey)
	require.NoError(t, err)
	assert.Equal(t, AnnotationNone, ann)
}

func TestAnnotationUninstalled(t *testing.T) {
	s := New()

	_, err := s.Annotation(":test/unknown")
	require.Error(t, err)

	var annErr *AnnotationError
	require.ErrorAs(t, err, &annErr)
	assert.Equal(t, datom.Keyword(":test/unknown"), annErr.Attribute)
}

func TestParseSchemaFile(t *testing.T) {
	src := []byte(`
attributes:
  - ident: ":test/edn-map"
    annotation: map
  - ident: ":test/tags"
    annotation: vector
  - ident: ":test/name"
`)
	s, err := Parse(src)
	require.NoError(t, err)

	ann, err := s.Annotation(":test/edn-map")
	require.NoError(t, err)
	assert.Equal(t, AnnotationMap, ann)

	ann, err = s.Annotation(":test/tags")
	require.NoError(t, err)
	assert.Equal(t, AnnotationVector, ann)

	ann, err = s.Annotation(":test/name")
	require.NoError(t, err)
	assert.Equal(t, AnnotationNone, ann)

	// Builtins survive the merge.
	assert.True(t, s.Installed(AttrEmpty))
}

func TestParseSchemaFileInvalid(t *testing.T) {
	_, err := Parse([]byte("attributes:\n  - ident: \":test/x\"\n    annotation: tree\n"))
	require.Error(t, err)

	_, err = Parse([]byte("attributes:\n  - annotation: map\n"))
	require.Error(t, err)

	_, err = Parse([]byte(":\n"))
	require.Error(t, err)
}

func TestElementValueAttr(t *testing.T) {
	attr, err := ElementValueAttr(datom.KindString)
	require.NoError(t, err)
	assert.Equal(t, AttrValueString, attr)

	attr, err = ElementValueAttr(datom.KindMap)
	require.NoError(t, err)
	assert.Equal(t, AttrValueMap, attr)

	_, err = ElementValueAttr(datom.ValueKind(200))
	require.Error(t, err)

	assert.True(t, IsElementValueAttr(AttrValueLong))
	assert.False(t, IsElementValueAttr(AttrElementKey))
}
