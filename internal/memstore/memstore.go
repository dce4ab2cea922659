// Package memstore is an in-memory implementation of the store contract.
// It keeps the current fact set as a plain slice and exists so the encoder
// is testable without a durable backend; the Badger store in
// internal/storage is the production counterpart.
package memstore

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/factstore/datomize/pkg/datom"
	"github.com/factstore/datomize/pkg/schema"
	"github.com/factstore/datomize/pkg/store"
)

// Store is an in-memory fact store with copy-on-read snapshots.
type Store struct {
	mu       sync.Mutex
	schema   *schema.Schema
	facts    []datom.Datom
	nextID   int64
	nextTemp int64
}

// New creates an empty store using the given attribute schema.
func New(sch *schema.Schema) *Store {
	return &Store{schema: sch, nextID: 1}
}

// TempID returns a fresh placeholder id scoped to the partition.
func (s *Store) TempID(partition string) datom.TempID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTemp++
	return datom.TempID{Partition: partition, N: -s.nextTemp}
}

// DB returns a point-in-time snapshot: a copy of the current fact set.
func (s *Store) DB() (store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	facts := make([]datom.Datom, len(s.facts))
	copy(facts, s.facts)
	return &snapshot{schema: s.schema, facts: facts}, nil
}

// Transact materializes placeholders and applies the transaction. Asserts
// are set-semantic: re-asserting an existing fact is a no-op. Entity
// retraction instructions are expanded against the pre-transaction state.
func (s *Store) Transact(tx []datom.Datom) (*store.TxReport, error) {
	snap, err := s.DB()
	if err != nil {
		return nil, err
	}
	defer snap.Close()

	expanded, err := snap.Rehearse(tx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tempIDs := make(map[datom.TempID]datom.ID)
	resolve := func(id datom.EntityID) datom.EntityID {
		t, ok := id.(datom.TempID)
		if !ok {
			return id
		}
		if materialized, ok := tempIDs[t]; ok {
			return materialized
		}
		materialized := datom.ID(s.nextID)
		s.nextID++
		tempIDs[t] = materialized
		return materialized
	}

	applied := make([]datom.Datom, 0, len(expanded))
	for _, d := range expanded {
		d.E = resolve(d.E)
		if ref, ok := d.V.(datom.EntityID); ok {
			d.V = resolve(ref)
		}
		applied = append(applied, d)

		switch d.Op {
		case datom.OpAssert:
			if !s.contains(d) {
				s.facts = append(s.facts, datom.Datom{Op: datom.OpAssert, E: d.E, A: d.A, V: d.V})
			}
		case datom.OpRetract:
			s.remove(d)
		default:
			return nil, fmt.Errorf("cannot apply operation %s", d.Op)
		}
	}

	return &store.TxReport{
		TxID:    uuid.NewString(),
		TempIDs: tempIDs,
		TxData:  applied,
	}, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) contains(d datom.Datom) bool {
	for _, f := range s.facts {
		if f.E == d.E && f.A == d.A && datom.ValueEqual(f.V, d.V) {
			return true
		}
	}
	return false
}

func (s *Store) remove(d datom.Datom) {
	for i, f := range s.facts {
		if f.E == d.E && f.A == d.A && datom.ValueEqual(f.V, d.V) {
			s.facts = append(s.facts[:i], s.facts[i+1:]...)
			return
		}
	}
}

type snapshot struct {
	schema *schema.Schema
	facts  []datom.Datom
}

func (sn *snapshot) Datoms(p store.Pattern) ([]datom.Datom, error) {
	if p.E != nil && datom.IsTempID(p.E) {
		return nil, store.ErrTempIDInRead
	}
	var out []datom.Datom
	for _, d := range sn.facts {
		if p.Matches(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (sn *snapshot) Annotation(attr datom.Keyword) (schema.Annotation, error) {
	return sn.schema.Annotation(attr)
}

func (sn *snapshot) ResolveIdents(tx []datom.Datom) ([]datom.Datom, error) {
	return store.ResolveIdentsWith(sn.schema, tx)
}

func (sn *snapshot) Rehearse(tx []datom.Datom) ([]datom.Datom, error) {
	return store.RehearseTx(sn, tx)
}

func (sn *snapshot) Close() error {
	return nil
}
