package datomize

import (
	"fmt"

	"github.com/factstore/datomize/pkg/datom"
	"github.com/factstore/datomize/pkg/schema"
	"github.com/factstore/datomize/pkg/store"
)

// Identity resolution reuses the child entity id for a semantically
// unchanged key or index, so back-references stay stable and re-encoding
// logically identical data produces no spurious churn. All lookups are pure
// reads against the snapshot; when nothing matches, a placeholder scoped to
// the context's partition is synthesized.

// resolveElementID finds the existing child of ctx.ID reached via
// ctx.Attribute that carries keyAttr = key, or synthesizes a placeholder.
func resolveElementID(ctx Context, keyAttr datom.Keyword, key any) (datom.EntityID, error) {
	child, err := findChild(ctx, func(c datom.EntityID) (bool, error) {
		facts, err := ctx.Snap.Datoms(store.Pattern{E: c, A: keyAttr, V: key})
		return len(facts) > 0, err
	})
	if err != nil {
		return nil, err
	}
	if child != nil {
		return child, nil
	}
	return ctx.Temp.TempID(ctx.Partition), nil
}

// resolveEmptyMarkerID is the same lookup keyed on the empty flag.
func resolveEmptyMarkerID(ctx Context) (datom.EntityID, error) {
	child, err := findChild(ctx, func(c datom.EntityID) (bool, error) {
		facts, err := ctx.Snap.Datoms(store.Pattern{E: c, A: schema.AttrEmpty, V: true})
		return len(facts) > 0, err
	})
	if err != nil {
		return nil, err
	}
	if child != nil {
		return child, nil
	}
	return ctx.Temp.TempID(ctx.Partition), nil
}

// resolveVariantID reuses any existing child reached via ctx.Attribute; a
// variant attribute has at most one child at any time.
func resolveVariantID(ctx Context) (datom.EntityID, error) {
	child, err := findChild(ctx, func(datom.EntityID) (bool, error) { return true, nil })
	if err != nil {
		return nil, err
	}
	if child != nil {
		return child, nil
	}
	return ctx.Temp.TempID(ctx.Partition), nil
}

// findChild scans the existing children of ctx.ID via ctx.Attribute and
// returns the first one the predicate accepts, or nil. A placeholder parent
// has no existing children, so the query is skipped.
func findChild(ctx Context, accept func(datom.EntityID) (bool, error)) (datom.EntityID, error) {
	if ctx.ID == nil || datom.IsTempID(ctx.ID) {
		return nil, nil
	}
	refs, err := ctx.Snap.Datoms(store.Pattern{E: ctx.ID, A: ctx.Attribute})
	if err != nil {
		return nil, fmt.Errorf("failed to query children of %s via %s: %w", ctx.ID, ctx.Attribute, err)
	}
	for _, d := range refs {
		child, ok := d.V.(datom.EntityID)
		if !ok {
			continue
		}
		ok, err := accept(child)
		if err != nil {
			return nil, err
		}
		if ok {
			return child, nil
		}
	}
	return nil, nil
}
