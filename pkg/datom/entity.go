package datom

import "fmt"

// EntityID identifies a node in the fact graph. It is either a persistent
// ID already known to the store, or a TempID placeholder that the store
// materializes when the transaction commits.
type EntityID interface {
	entityID()
	String() string
}

// ID is a persistent entity identifier assigned by the store.
type ID int64

func (ID) entityID() {}

func (id ID) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// TempID is a placeholder identifier scoped to a partition. Two equal
// TempIDs inside one transaction resolve to the same persistent ID;
// TempIDs never survive past commit.
type TempID struct {
	Partition string
	N         int64
}

func (TempID) entityID() {}

func (t TempID) String() string {
	return fmt.Sprintf("#%s[%d]", t.Partition, t.N)
}

// IsTempID reports whether id is an unmaterialized placeholder.
func IsTempID(id EntityID) bool {
	_, ok := id.(TempID)
	return ok
}
