// Package datom defines the fact data model shared by the encoder and the
// store backends: entity identifiers, attribute keywords, the Datom fact
// tuple, and runtime value-kind classification.
package datom

import "fmt"

// Op is the operation tag of a fact.
type Op byte

const (
	// OpAssert adds a fact.
	OpAssert Op = iota + 1

	// OpRetract removes a fact.
	OpRetract

	// OpRetractEntity is a transaction instruction, not a storable fact:
	// it expands into the retraction of every fact of the entity and of
	// the element children it owns.
	OpRetractEntity
)

func (op Op) String() string {
	switch op {
	case OpAssert:
		return ":db/add"
	case OpRetract:
		return ":db/retract"
	case OpRetractEntity:
		return ":db/retractEntity"
	default:
		return fmt.Sprintf("Op(%d)", byte(op))
	}
}

// Datom is a single fact: operation, entity, attribute, value. The value
// is always store-primitive; nested structure is represented through
// additional child entities, never as a literal nested value.
type Datom struct {
	Op Op
	E  EntityID
	A  Keyword
	V  any
}

func (d Datom) String() string {
	if d.Op == OpRetractEntity {
		return fmt.Sprintf("[%s %s]", d.Op, d.E)
	}
	return fmt.Sprintf("[%s %s %s %v]", d.Op, d.E, d.A, d.V)
}
