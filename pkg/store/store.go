// Package store defines the capability interfaces the encoder consumes:
// snapshot-consistent pattern queries, tempid generation, transaction
// rehearsal, and commit. Backends implement Store; the encoder only ever
// sees the narrow Snapshot and TempIDSource slices of it.
package store

import (
	"errors"

	"github.com/factstore/datomize/pkg/datom"
	"github.com/factstore/datomize/pkg/schema"
)

var (
	ErrNotFound     = errors.New("entity not found")
	ErrUnknownAttr  = errors.New("unknown attribute")
	ErrTempIDInRead = errors.New("placeholder id in read query")
)

// Pattern is a bound-position match over the current fact set. A nil E,
// empty A, or nil V position is a wildcard.
type Pattern struct {
	E datom.EntityID
	A datom.Keyword
	V any
}

// Matches reports whether a datom satisfies the pattern's bound positions.
func (p Pattern) Matches(d datom.Datom) bool {
	if p.E != nil && p.E != d.E {
		return false
	}
	if p.A != "" && p.A != d.A {
		return false
	}
	if p.V != nil && !datom.ValueEqual(p.V, d.V) {
		return false
	}
	return true
}

// Snapshot is a point-in-time, read-only view of the fact set. All reads
// during one encode run against the same snapshot.
type Snapshot interface {
	// Datoms returns the current facts matching the pattern, as asserts.
	Datoms(p Pattern) ([]datom.Datom, error)

	// Annotation returns the structural annotation installed for attr.
	Annotation(attr datom.Keyword) (schema.Annotation, error)

	// ResolveIdents rewrites symbolic attribute references to canonical
	// form, failing on attributes the schema does not know.
	ResolveIdents(tx []datom.Datom) ([]datom.Datom, error)

	// Rehearse simulates a transaction without committing it, expanding
	// entity retraction instructions into the cascaded retraction set.
	Rehearse(tx []datom.Datom) ([]datom.Datom, error)

	// Close releases the snapshot.
	Close() error
}

// TempIDSource generates placeholder ids scoped to a partition.
type TempIDSource interface {
	TempID(partition string) datom.TempID
}

// TxReport describes a committed transaction.
type TxReport struct {
	// TxID is an opaque token correlating the commit in logs.
	TxID string

	// TempIDs maps every placeholder in the submitted transaction to the
	// persistent id the store materialized for it.
	TempIDs map[datom.TempID]datom.ID

	// TxData is the transaction as applied, with placeholders resolved.
	TxData []datom.Datom
}

// Store is the full collaborator contract: snapshots, tempids, commit.
type Store interface {
	TempIDSource

	// DB returns a fresh snapshot of the current fact set.
	DB() (Snapshot, error)

	// Transact materializes placeholders and applies the transaction.
	Transact(tx []datom.Datom) (*TxReport, error)

	// Close closes the store.
	Close() error
}
