package datomize

import (
	"github.com/factstore/datomize/pkg/datom"
	"github.com/factstore/datomize/pkg/store"
)

// Context is the immutable cursor threaded through the recursion: the
// operation being built, the snapshot all reads run against, the partition
// scoping placeholder ids, and the entity/attribute position the encoder is
// currently writing at. Contexts are passed by value and never mutated in
// place.
type Context struct {
	Op        datom.Op
	Snap      store.Snapshot
	Temp      store.TempIDSource
	Partition string
	ID        datom.EntityID
	Attribute datom.Keyword
}

// at returns a copy of the context pointed at a new entity and attribute.
func (c Context) at(id datom.EntityID, attr datom.Keyword) Context {
	c.ID = id
	c.Attribute = attr
	return c
}
