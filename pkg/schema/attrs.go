package schema

import (
	"fmt"

	"github.com/factstore/datomize/pkg/datom"
)

// Reserved attributes used by the structural encoding. Element entities
// carry exactly one key-or-index fact plus one value fact; empty
// collections are a single sentinel child carrying only the empty flag.
const (
	// AttrDBID is the identity attribute; it is never encoded as a fact.
	AttrDBID = datom.Keyword(":db/id")

	// AttrElementKey holds the map key of an element entity.
	AttrElementKey = datom.Keyword(":dz.element/key")

	// AttrElementIndex holds the vector position of an element entity.
	AttrElementIndex = datom.Keyword(":dz.element/index")

	// AttrEmpty flags the sentinel child of an empty map or vector.
	AttrEmpty = datom.Keyword(":dz/empty")

	// NilSentinel is the value written for an explicit nil under an
	// unannotated attribute; true absence cannot be represented inside a
	// collection element.
	NilSentinel = datom.Keyword(":dz/nil")
)

// Per-kind element value attributes. A scalar is written under the
// attribute matching its value kind; map and vector values recurse because
// their attributes carry the corresponding structural annotation.
const (
	AttrValueString  = datom.Keyword(":dz.element.value/string")
	AttrValueLong    = datom.Keyword(":dz.element.value/long")
	AttrValueFloat   = datom.Keyword(":dz.element.value/float")
	AttrValueDouble  = datom.Keyword(":dz.element.value/double")
	AttrValueBoolean = datom.Keyword(":dz.element.value/boolean")
	AttrValueInstant = datom.Keyword(":dz.element.value/instant")
	AttrValueKeyword = datom.Keyword(":dz.element.value/keyword")
	AttrValueVector  = datom.Keyword(":dz.element.value/vector")
	AttrValueMap     = datom.Keyword(":dz.element.value/map")
	AttrValueBigInt  = datom.Keyword(":dz.element.value/bigint")
	AttrValueBigDec  = datom.Keyword(":dz.element.value/bigdec")
	AttrValueBytes   = datom.Keyword(":dz.element.value/bytes")
	AttrValueRef     = datom.Keyword(":dz.element.value/ref")
	AttrValueNil     = datom.Keyword(":dz.element.value/nil")
)

var elementValueAttrs = map[datom.ValueKind]datom.Keyword{
	datom.KindNil:     AttrValueNil,
	datom.KindString:  AttrValueString,
	datom.KindLong:    AttrValueLong,
	datom.KindFloat:   AttrValueFloat,
	datom.KindDouble:  AttrValueDouble,
	datom.KindBoolean: AttrValueBoolean,
	datom.KindInstant: AttrValueInstant,
	datom.KindKeyword: AttrValueKeyword,
	datom.KindVector:  AttrValueVector,
	datom.KindMap:     AttrValueMap,
	datom.KindBigInt:  AttrValueBigInt,
	datom.KindBigDec:  AttrValueBigDec,
	datom.KindBytes:   AttrValueBytes,
	datom.KindRef:     AttrValueRef,
}

// ElementValueAttr returns the element value attribute for a value kind.
func ElementValueAttr(kind datom.ValueKind) (datom.Keyword, error) {
	attr, ok := elementValueAttrs[kind]
	if !ok {
		return "", fmt.Errorf("no element value attribute for kind %s", kind)
	}
	return attr, nil
}

// IsElementValueAttr reports whether attr is one of the per-kind element
// value attributes. The decoder uses it to locate an element's value fact.
func IsElementValueAttr(attr datom.Keyword) bool {
	return attr.Namespace() == "dz.element.value"
}
