package datomize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/factstore/datomize/pkg/datom"
	"github.com/factstore/datomize/pkg/schema"
	"github.com/factstore/datomize/pkg/store"
)

// Decode reconstructs the nested data rooted at an entity: the inverse
// walk of the encoder. Element children are gathered per attribute, vector
// elements are ordered by their index facts, empty markers come back as
// empty collections, variants unwrap to their single child value, and the
// nil sentinel maps back to a true host nil.
func Decode(snap store.Snapshot, id datom.EntityID) (Entity, error) {
	facts, err := snap.Datoms(store.Pattern{E: id})
	if err != nil {
		return nil, err
	}
	if len(facts) == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}

	byAttr := make(map[datom.Keyword][]datom.Datom)
	for _, d := range facts {
		byAttr[d.A] = append(byAttr[d.A], d)
	}

	out := make(Entity, len(byAttr))
	for attr, attrFacts := range byAttr {
		v, err := decodeAttr(snap, attr, attrFacts)
		if err != nil {
			return nil, err
		}
		out[attr] = v
	}
	return out, nil
}

func decodeAttr(snap store.Snapshot, attr datom.Keyword, facts []datom.Datom) (any, error) {
	ann, err := snap.Annotation(attr)
	if err != nil {
		return nil, err
	}

	switch ann {
	case schema.AnnotationMap:
		return decodeMap(snap, attr, facts)
	case schema.AnnotationVector:
		return decodeVector(snap, attr, facts)
	case schema.AnnotationVariant:
		if len(facts) != 1 {
			return nil, fmt.Errorf("variant attribute %s has %d children, want 1", attr, len(facts))
		}
		child, ok := facts[0].V.(datom.EntityID)
		if !ok {
			return nil, fmt.Errorf("variant attribute %s holds non-ref value %v", attr, facts[0].V)
		}
		return decodeElement(snap, child)
	case schema.AnnotationOpaque:
		if len(facts) != 1 {
			return nil, fmt.Errorf("opaque attribute %s has %d facts, want 1", attr, len(facts))
		}
		lit, ok := facts[0].V.(string)
		if !ok {
			return nil, fmt.Errorf("opaque attribute %s holds non-string value %v", attr, facts[0].V)
		}
		return decodeOpaque(lit)
	default:
		if len(facts) != 1 {
			return nil, fmt.Errorf("attribute %s has %d facts, want 1", attr, len(facts))
		}
		if kw, ok := facts[0].V.(datom.Keyword); ok && kw == schema.NilSentinel {
			return nil, nil
		}
		return facts[0].V, nil
	}
}

func decodeMap(snap store.Snapshot, attr datom.Keyword, refs []datom.Datom) (any, error) {
	empty, err := isEmptyMarker(snap, refs)
	if err != nil {
		return nil, err
	}
	if empty {
		return map[string]any{}, nil
	}

	m := make(map[string]any, len(refs))
	for _, ref := range refs {
		child, ok := ref.V.(datom.EntityID)
		if !ok {
			return nil, fmt.Errorf("map attribute %s holds non-ref value %v", attr, ref.V)
		}
		keyFacts, err := snap.Datoms(store.Pattern{E: child, A: schema.AttrElementKey})
		if err != nil {
			return nil, err
		}
		if len(keyFacts) != 1 {
			return nil, fmt.Errorf("map element %s has %d key facts, want 1", child, len(keyFacts))
		}
		key, ok := keyFacts[0].V.(string)
		if !ok {
			return nil, fmt.Errorf("map element %s has non-string key %v", child, keyFacts[0].V)
		}
		v, err := decodeElement(snap, child)
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
	return m, nil
}

func decodeVector(snap store.Snapshot, attr datom.Keyword, refs []datom.Datom) (any, error) {
	empty, err := isEmptyMarker(snap, refs)
	if err != nil {
		return nil, err
	}
	if empty {
		return []any{}, nil
	}

	type indexed struct {
		index int64
		value any
	}
	elements := make([]indexed, 0, len(refs))
	for _, ref := range refs {
		child, ok := ref.V.(datom.EntityID)
		if !ok {
			return nil, fmt.Errorf("vector attribute %s holds non-ref value %v", attr, ref.V)
		}
		idxFacts, err := snap.Datoms(store.Pattern{E: child, A: schema.AttrElementIndex})
		if err != nil {
			return nil, err
		}
		if len(idxFacts) != 1 {
			return nil, fmt.Errorf("vector element %s has %d index facts, want 1", child, len(idxFacts))
		}
		idx, ok := idxFacts[0].V.(int64)
		if !ok {
			return nil, fmt.Errorf("vector element %s has non-integer index %v", child, idxFacts[0].V)
		}
		v, err := decodeElement(snap, child)
		if err != nil {
			return nil, err
		}
		elements = append(elements, indexed{index: idx, value: v})
	}
	sort.Slice(elements, func(i, j int) bool { return elements[i].index < elements[j].index })

	out := make([]any, len(elements))
	for i, e := range elements {
		out[i] = e.value
	}
	return out, nil
}

// decodeElement reads an element child's single value fact, located by its
// element value attribute, and decodes it by that attribute's annotation.
func decodeElement(snap store.Snapshot, child datom.EntityID) (any, error) {
	facts, err := snap.Datoms(store.Pattern{E: child})
	if err != nil {
		return nil, err
	}
	for _, d := range facts {
		if schema.IsElementValueAttr(d.A) {
			return decodeAttr(snap, d.A, gatherAttr(facts, d.A))
		}
	}
	return nil, fmt.Errorf("element %s has no value fact", child)
}

func gatherAttr(facts []datom.Datom, attr datom.Keyword) []datom.Datom {
	var out []datom.Datom
	for _, d := range facts {
		if d.A == attr {
			out = append(out, d)
		}
	}
	return out
}

func isEmptyMarker(snap store.Snapshot, refs []datom.Datom) (bool, error) {
	if len(refs) != 1 {
		return false, nil
	}
	child, ok := refs[0].V.(datom.EntityID)
	if !ok {
		return false, nil
	}
	facts, err := snap.Datoms(store.Pattern{E: child, A: schema.AttrEmpty})
	if err != nil {
		return false, err
	}
	return len(facts) > 0, nil
}

// decodeOpaque parses an inert JSON literal back into host data. Numbers
// come back as int64 when integral, float64 otherwise.
func decodeOpaque(lit string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(lit))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to parse opaque literal: %w", err)
	}
	return convertJSON(v), nil
}

func convertJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = convertJSON(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = convertJSON(e)
		}
		return t
	case json.Number:
		if !strings.ContainsAny(t.String(), ".eE") {
			if n, err := t.Int64(); err == nil {
				return n
			}
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}
