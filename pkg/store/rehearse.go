package store

import (
	"fmt"

	"github.com/factstore/datomize/pkg/datom"
	"github.com/factstore/datomize/pkg/schema"
)

// RehearseTx expands a transaction against a snapshot without applying it:
// assert and retract facts pass through unchanged, entity retraction
// instructions expand into the retraction of every fact of the entity and,
// recursively, of the element children it owns. Backends implement
// Snapshot.Rehearse with it.
//
// Ownership follows structural annotations: a ref reached through a map,
// vector, or variant attribute is an owned element child and cascades; a
// plain ref value under an unannotated attribute does not.
func RehearseTx(snap Snapshot, tx []datom.Datom) ([]datom.Datom, error) {
	var out []datom.Datom
	for _, d := range tx {
		switch d.Op {
		case datom.OpAssert, datom.OpRetract:
			out = append(out, d)
		case datom.OpRetractEntity:
			expanded, err := retractSubtree(snap, d.E, make(map[datom.EntityID]bool))
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		default:
			return nil, fmt.Errorf("cannot rehearse operation %s", d.Op)
		}
	}
	return out, nil
}

func retractSubtree(snap Snapshot, e datom.EntityID, seen map[datom.EntityID]bool) ([]datom.Datom, error) {
	if seen[e] {
		return nil, nil
	}
	seen[e] = true

	facts, err := snap.Datoms(Pattern{E: e})
	if err != nil {
		return nil, err
	}

	var out []datom.Datom
	for _, d := range facts {
		out = append(out, datom.Datom{Op: datom.OpRetract, E: d.E, A: d.A, V: d.V})

		child, ok := d.V.(datom.EntityID)
		if !ok {
			continue
		}
		ann, err := snap.Annotation(d.A)
		if err != nil {
			return nil, err
		}
		switch ann {
		case schema.AnnotationMap, schema.AnnotationVector, schema.AnnotationVariant:
			sub, err := retractSubtree(snap, child, seen)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

// ResolveIdentsWith canonicalizes the attribute of every fact against a
// schema: a missing leading colon is restored, and attributes the schema
// does not know fail with the offending attribute named. Backends implement
// Snapshot.ResolveIdents with it.
func ResolveIdentsWith(sch *schema.Schema, tx []datom.Datom) ([]datom.Datom, error) {
	out := make([]datom.Datom, len(tx))
	for i, d := range tx {
		attr := d.A
		if len(attr) > 0 && attr[0] != ':' {
			attr = ":" + attr
		}
		if !sch.Installed(attr) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAttr, attr)
		}
		d.A = attr
		out[i] = d
	}
	return out, nil
}
