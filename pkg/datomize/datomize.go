// Package datomize turns arbitrary nested host data (maps, ordered lists,
// scalars, tagged variants, opaque blobs) into a flat set of
// entity-attribute-value facts for an immutable triple-style store, and
// back. Structure is represented through additional child entities with
// stable identity across re-encodes; Datomize emits only the facts that
// actually changed.
package datomize

import (
	"fmt"
	"sort"

	"github.com/factstore/datomize/pkg/datom"
	"github.com/factstore/datomize/pkg/schema"
	"github.com/factstore/datomize/pkg/store"
)

// DefaultPartition scopes placeholder ids when no partition is given.
const DefaultPartition = "user"

// Entity is nested host data keyed by attribute. The :db/id entry, when
// present, names the existing entity being re-encoded.
type Entity map[datom.Keyword]any

type config struct {
	id        datom.EntityID
	partition string
}

// Option configures a Datomize call.
type Option func(*config)

// WithEntityID re-encodes an existing entity instead of creating one.
func WithEntityID(id datom.EntityID) Option {
	return func(c *config) { c.id = id }
}

// WithPartition scopes placeholder id generation.
func WithPartition(p string) Option {
	return func(c *config) { c.partition = p }
}

// Datomize encodes an entity's nested data into the minimal transaction
// that moves the store from the entity's prior state to the new one. It
// rehearses the deep retraction of the existing subtree to learn the prior
// facts, encodes the new data, and reconciles the two sets so an unchanged
// value is never retracted and re-asserted.
//
// The call is synchronous and effect-free on the store: it either returns
// a complete transaction for the caller to commit, or an error with no
// partial state. Store failures propagate unchanged; there is no retry.
func Datomize(s store.Store, data Entity, opts ...Option) ([]datom.Datom, error) {
	cfg := config{partition: DefaultPartition}
	for _, opt := range opts {
		opt(&cfg)
	}

	id := cfg.id
	if id == nil {
		if v, ok := data[schema.AttrDBID].(datom.EntityID); ok {
			id = v
		} else {
			id = s.TempID(cfg.partition)
		}
	}

	snap, err := s.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer snap.Close()

	var retractions []datom.Datom
	if !datom.IsTempID(id) {
		retractions, err = snap.Rehearse([]datom.Datom{{Op: datom.OpRetractEntity, E: id}})
		if err != nil {
			return nil, fmt.Errorf("failed to rehearse retraction of %s: %w", id, err)
		}
	}

	attrs := make([]datom.Keyword, 0, len(data))
	for attr := range data {
		if attr == schema.AttrDBID {
			continue
		}
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i] < attrs[j] })

	ctx := Context{
		Op:        datom.OpAssert,
		Snap:      snap,
		Temp:      s,
		Partition: cfg.partition,
		ID:        id,
	}

	var additions []datom.Datom
	for _, attr := range attrs {
		_, facts, err := encodeValue(ctx.at(id, attr), data[attr])
		if err != nil {
			return nil, err
		}
		additions = append(additions, facts...)
	}

	additions, err = snap.ResolveIdents(additions)
	if err != nil {
		return nil, err
	}

	return reconcile(retractions, additions), nil
}
