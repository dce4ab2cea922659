// Package storage is the BadgerDB-backed fact store. Datoms are kept in
// three key orderings (EAV, AEV, AVE) so any bound-position pattern scans a
// contiguous key range; hashed term text lives in an id2str table.
package storage

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/factstore/datomize/internal/encoding"
	"github.com/factstore/datomize/pkg/datom"
	"github.com/factstore/datomize/pkg/schema"
	"github.com/factstore/datomize/pkg/store"
)

// Table prefixes for the logical column families inside one Badger
// keyspace.
const (
	tableID2Str byte = iota + 1
	tableEAV
	tableAEV
	tableAVE
	tableMeta
)

var metaNextID = []byte{tableMeta, 'n', 'e', 'x', 't', 'i', 'd'}

// BadgerStore implements store.Store on BadgerDB.
type BadgerStore struct {
	db      *badger.DB
	schema  *schema.Schema
	encoder *encoding.TermEncoder
	decoder *encoding.TermDecoder
	temps   atomic.Int64
}

// Open opens or creates a Badger-backed store at path.
func Open(path string, sch *schema.Schema) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable default logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerStore{
		db:      db,
		schema:  sch,
		encoder: encoding.NewTermEncoder(),
		decoder: encoding.NewTermDecoder(),
	}, nil
}

// TempID returns a fresh placeholder id scoped to the partition.
func (s *BadgerStore) TempID(partition string) datom.TempID {
	return datom.TempID{Partition: partition, N: -s.temps.Add(1)}
}

// DB returns a snapshot backed by a Badger read transaction.
func (s *BadgerStore) DB() (store.Snapshot, error) {
	return &snapshot{
		txn:     s.db.NewTransaction(false),
		schema:  s.schema,
		encoder: s.encoder,
		decoder: s.decoder,
	}, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Transact materializes placeholders and applies the transaction
// atomically. Entity retraction instructions are expanded against the
// transaction's own view, so the expansion and the writes commit together.
func (s *BadgerStore) Transact(tx []datom.Datom) (*store.TxReport, error) {
	var report *store.TxReport

	err := s.db.Update(func(txn *badger.Txn) error {
		snap := &snapshot{txn: txn, schema: s.schema, encoder: s.encoder, decoder: s.decoder}

		expanded, err := snap.Rehearse(tx)
		if err != nil {
			return err
		}

		nextID, err := s.readNextID(txn)
		if err != nil {
			return err
		}

		tempIDs := make(map[datom.TempID]datom.ID)
		resolve := func(id datom.EntityID) datom.EntityID {
			t, ok := id.(datom.TempID)
			if !ok {
				return id
			}
			if materialized, ok := tempIDs[t]; ok {
				return materialized
			}
			materialized := datom.ID(nextID)
			nextID++
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
				if err := s.writeDatom(txn, d); err != nil {
					return err
				}
			case datom.OpRetract:
				if err := s.deleteDatom(txn, d); err != nil {
					return err
				}
			default:
				return fmt.Errorf("cannot apply operation %s", d.Op)
			}
		}

		if err := s.writeNextID(txn, nextID); err != nil {
			return err
		}

		report = &store.TxReport{
			TxID:    uuid.NewString(),
			TempIDs: tempIDs,
			TxData:  applied,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *BadgerStore) readNextID(txn *badger.Txn) (int64, error) {
	item, err := txn.Get(metaNextID)
	if err == badger.ErrKeyNotFound {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	var n int64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt nextid value")
		}
		n = int64(binary.BigEndian.Uint64(val)) // #nosec G115 - intentional bit-pattern conversion
		return nil
	})
	return n, err
}

func (s *BadgerStore) writeNextID(txn *badger.Txn, n int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n)) // #nosec G115 - intentional bit-pattern conversion
	return txn.Set(metaNextID, buf[:])
}

// encodeTerms encodes a datom's three components, collecting hashed text
// that must be written to id2str.
func (s *BadgerStore) encodeTerms(d datom.Datom) (e, a, v encoding.EncodedTerm, strs map[encoding.EncodedTerm]string, err error) {
	strs = make(map[encoding.EncodedTerm]string)

	e, err = s.encoder.EncodeEntityID(d.E)
	if err != nil {
		return
	}

	a, aStr := s.encoder.EncodeKeyword(d.A)
	if aStr != nil {
		strs[a] = *aStr
	}

	v, vStr, err := s.encoder.EncodeValue(d.V)
	if err != nil {
		return
	}
	if vStr != nil {
		strs[v] = *vStr
	}
	return
}

func (s *BadgerStore) writeDatom(txn *badger.Txn, d datom.Datom) error {
	e, a, v, strs, err := s.encodeTerms(d)
	if err != nil {
		return err
	}

	for term, text := range strs {
		key := append([]byte{tableID2Str}, term[1:]...)
		if err := txn.Set(key, []byte(text)); err != nil {
			return err
		}
	}

	empty := []byte{}
	if err := txn.Set(indexKey(tableEAV, e, a, v), empty); err != nil {
		return err
	}
	if err := txn.Set(indexKey(tableAEV, a, e, v), empty); err != nil {
		return err
	}
	return txn.Set(indexKey(tableAVE, a, v, e), empty)
}

func (s *BadgerStore) deleteDatom(txn *badger.Txn, d datom.Datom) error {
	e, a, v, _, err := s.encodeTerms(d)
	if err != nil {
		return err
	}

	if err := txn.Delete(indexKey(tableEAV, e, a, v)); err != nil {
		return err
	}
	if err := txn.Delete(indexKey(tableAEV, a, e, v)); err != nil {
		return err
	}
	return txn.Delete(indexKey(tableAVE, a, v, e))
}

func indexKey(table byte, terms ...encoding.EncodedTerm) []byte {
	key := make([]byte, 0, 1+len(terms)*encoding.EncodedTermSize)
	key = append(key, table)
	for _, t := range terms {
		key = append(key, t[:]...)
	}
	return key
}
