package datomize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/factstore/datomize/pkg/datom"
	"github.com/factstore/datomize/pkg/schema"
)

// encode is the recursive heart of the encoder. Dispatch is an exhaustive
// match on the structural annotation of ctx.Attribute; every arm is a pure
// function of (context, value). The result is either a single
// store-primitive value, or a []datom.EntityID when the value decomposed
// into child entities, plus the facts describing the subtree.
func encode(ctx Context, v any) (any, []datom.Datom, error) {
	ann, err := ctx.Snap.Annotation(ctx.Attribute)
	if err != nil {
		return nil, nil, err
	}

	switch ann {
	case schema.AnnotationMap:
		return encodeMap(ctx, v)
	case schema.AnnotationVector:
		return encodeVector(ctx, v)
	case schema.AnnotationVariant:
		return encodeVariant(ctx, v)
	case schema.AnnotationOpaque:
		return encodeOpaque(v)
	case schema.AnnotationNone:
		return encodeScalar(ctx, v)
	default:
		return nil, nil, fmt.Errorf("attribute %s: unknown annotation %s", ctx.Attribute, ann)
	}
}

// encodeValue runs encode and turns its result into facts on the current
// (entity, attribute) position: one ref fact per child id when the value
// decomposed, a single value fact otherwise. It always propagates ctx.ID
// upward so parent aggregation sees a stable reference regardless of
// fan-out.
func encodeValue(ctx Context, v any) (datom.EntityID, []datom.Datom, error) {
	res, facts, err := encode(ctx, v)
	if err != nil {
		return nil, nil, err
	}

	if children, ok := res.([]datom.EntityID); ok {
		for _, child := range children {
			facts = append(facts, datom.Datom{Op: ctx.Op, E: ctx.ID, A: ctx.Attribute, V: child})
		}
	} else {
		facts = append(facts, datom.Datom{Op: ctx.Op, E: ctx.ID, A: ctx.Attribute, V: res})
	}
	return ctx.ID, facts, nil
}

// encodePair encodes one (key, value) element of a map or vector: it
// resolves the element's stable id, writes the key fact, and recurses on
// the value under the element value attribute selected by the value's kind.
func encodePair(ctx Context, keyAttr datom.Keyword, key, v any) (datom.EntityID, []datom.Datom, error) {
	id, err := resolveElementID(ctx, keyAttr, key)
	if err != nil {
		return nil, nil, err
	}

	kind, err := datom.Classify(v)
	if err != nil {
		return nil, nil, err
	}
	valueAttr, err := schema.ElementValueAttr(kind)
	if err != nil {
		return nil, nil, fmt.Errorf("attribute %s, key %v: %w", ctx.Attribute, key, err)
	}

	_, facts, err := encodeValue(ctx.at(id, valueAttr), v)
	if err != nil {
		return nil, nil, err
	}
	facts = append(facts, datom.Datom{Op: ctx.Op, E: id, A: keyAttr, V: key})
	return id, facts, nil
}

// encodeEmpty writes the sentinel child of an empty collection: exactly one
// entity carrying only the empty flag, no key or index facts.
func encodeEmpty(ctx Context) (any, []datom.Datom, error) {
	id, err := resolveEmptyMarkerID(ctx)
	if err != nil {
		return nil, nil, err
	}
	facts := []datom.Datom{{Op: ctx.Op, E: id, A: schema.AttrEmpty, V: true}}
	return []datom.EntityID{id}, facts, nil
}

type element struct {
	id    datom.EntityID
	facts []datom.Datom
}

// condense merges per-element results: child ids concatenated in order
// (order matters for vectors), facts concatenated (treated as a set at
// reconciliation time).
func condense(elements []element) ([]datom.EntityID, []datom.Datom) {
	ids := make([]datom.EntityID, 0, len(elements))
	var facts []datom.Datom
	for _, e := range elements {
		ids = append(ids, e.id)
		facts = append(facts, e.facts...)
	}
	return ids, facts
}

func encodeMap(ctx Context, v any) (any, []datom.Datom, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, nil, fmt.Errorf("attribute %s is annotated map but value is %T", ctx.Attribute, v)
	}
	if rv.Len() == 0 {
		return encodeEmpty(ctx)
	}

	keys := make([]string, 0, rv.Len())
	byKey := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		keys = append(keys, k)
		byKey[k] = iter.Value().Interface()
	}
	// Sorted keys keep transactions deterministic across encodes.
	sort.Strings(keys)

	elements := make([]element, 0, len(keys))
	for _, k := range keys {
		id, facts, err := encodePair(ctx, schema.AttrElementKey, k, byKey[k])
		if err != nil {
			return nil, nil, err
		}
		elements = append(elements, element{id: id, facts: facts})
	}
	ids, facts := condense(elements)
	return ids, facts, nil
}

func encodeVector(ctx Context, v any) (any, []datom.Datom, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, nil, fmt.Errorf("attribute %s is annotated vector but value is %T", ctx.Attribute, v)
	}
	if rv.Len() == 0 {
		return encodeEmpty(ctx)
	}

	elements := make([]element, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		id, facts, err := encodePair(ctx, schema.AttrElementIndex, int64(i), rv.Index(i).Interface())
		if err != nil {
			return nil, nil, err
		}
		elements = append(elements, element{id: id, facts: facts})
	}
	ids, facts := condense(elements)
	return ids, facts, nil
}

// encodeVariant attaches the wrapped value to the attribute's single child
// entity, under the value attribute selected by the value's own kind. The
// child id is returned as the scalar result, so the caller writes exactly
// one ref fact.
func encodeVariant(ctx Context, v any) (any, []datom.Datom, error) {
	id, err := resolveVariantID(ctx)
	if err != nil {
		return nil, nil, err
	}

	kind, err := datom.Classify(v)
	if err != nil {
		return nil, nil, err
	}
	valueAttr, err := schema.ElementValueAttr(kind)
	if err != nil {
		return nil, nil, fmt.Errorf("variant attribute %s: %w", ctx.Attribute, err)
	}

	_, facts, err := encodeValue(ctx.at(id, valueAttr), v)
	if err != nil {
		return nil, nil, err
	}
	return id, facts, nil
}

// encodeOpaque serializes the value to an inert canonical JSON literal. No
// child entities or recursive facts are produced; the value's internals are
// never decomposed.
func encodeOpaque(v any) (any, []datom.Datom, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, nil, fmt.Errorf("failed to serialize opaque value: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil, nil
}

// encodeScalar handles unannotated attributes: the value is already
// store-primitive. An explicit nil is written as the sentinel keyword,
// distinct from the attribute being absent.
func encodeScalar(ctx Context, v any) (any, []datom.Datom, error) {
	kind, err := datom.Classify(v)
	if err != nil {
		return nil, nil, err
	}
	switch kind {
	case datom.KindNil:
		return schema.NilSentinel, nil, nil
	case datom.KindMap, datom.KindVector:
		return nil, nil, fmt.Errorf("attribute %s is unannotated but value is a collection (%T)", ctx.Attribute, v)
	case datom.KindLong:
		return datom.AsLong(v), nil, nil
	default:
		return v, nil, nil
	}
}
