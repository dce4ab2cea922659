package storage

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/factstore/datomize/internal/encoding"
	"github.com/factstore/datomize/pkg/datom"
	"github.com/factstore/datomize/pkg/schema"
	"github.com/factstore/datomize/pkg/store"
)

// snapshot wraps a Badger transaction as a point-in-time read view.
type snapshot struct {
	txn     *badger.Txn
	schema  *schema.Schema
	encoder *encoding.TermEncoder
	decoder *encoding.TermDecoder
}

// Datoms selects the index whose key ordering puts the bound positions
// first, scans its prefix, and decodes the matching datoms.
func (sn *snapshot) Datoms(p store.Pattern) ([]datom.Datom, error) {
	prefix, layout, err := sn.planScan(p)
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := sn.txn.NewIterator(opts)
	defer it.Close()

	var out []datom.Datom
	for it.Rewind(); it.Valid(); it.Next() {
		d, err := sn.decodeIndexKey(it.Item().Key(), layout)
		if err != nil {
			return nil, err
		}
		// Positions not covered by the prefix still need filtering.
		if !p.Matches(d) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// planScan picks the table and prefix for a pattern: entity-bound patterns
// scan EAV, attribute+value-bound patterns scan AVE, attribute-bound
// patterns scan AEV, and fully unbound patterns walk all of EAV.
func (sn *snapshot) planScan(p store.Pattern) ([]byte, byte, error) {
	if p.E != nil {
		if datom.IsTempID(p.E) {
			return nil, 0, store.ErrTempIDInRead
		}
		e, err := sn.encoder.EncodeEntityID(p.E)
		if err != nil {
			return nil, 0, err
		}
		if p.A != "" {
			a, _ := sn.encoder.EncodeKeyword(p.A)
			return indexKey(tableEAV, e, a), tableEAV, nil
		}
		return indexKey(tableEAV, e), tableEAV, nil
	}

	if p.A != "" {
		a, _ := sn.encoder.EncodeKeyword(p.A)
		if p.V != nil {
			v, _, err := sn.encoder.EncodeValue(p.V)
			if err != nil {
				return nil, 0, err
			}
			return indexKey(tableAVE, a, v), tableAVE, nil
		}
		return indexKey(tableAEV, a), tableAEV, nil
	}

	return []byte{tableEAV}, tableEAV, nil
}

func (sn *snapshot) decodeIndexKey(key []byte, layout byte) (datom.Datom, error) {
	var d datom.Datom

	if len(key) != 1+3*encoding.EncodedTermSize {
		return d, fmt.Errorf("corrupt index key of length %d", len(key))
	}

	var terms [3]encoding.EncodedTerm
	for i := range terms {
		copy(terms[i][:], key[1+i*encoding.EncodedTermSize:])
	}

	var e, a, v encoding.EncodedTerm
	switch layout {
	case tableEAV:
		e, a, v = terms[0], terms[1], terms[2]
	case tableAEV:
		a, e, v = terms[0], terms[1], terms[2]
	case tableAVE:
		a, v, e = terms[0], terms[1], terms[2]
	default:
		return d, fmt.Errorf("unknown index table %d", layout)
	}

	entity, err := sn.decoder.DecodeEntityID(e)
	if err != nil {
		return d, err
	}

	aStr, err := sn.lookupString(a)
	if err != nil {
		return d, err
	}
	attr, err := sn.decoder.DecodeKeyword(a, aStr)
	if err != nil {
		return d, err
	}

	vStr, err := sn.lookupString(v)
	if err != nil {
		return d, err
	}
	value, err := sn.decoder.DecodeValue(v, vStr)
	if err != nil {
		return d, err
	}

	return datom.Datom{Op: datom.OpAssert, E: entity, A: attr, V: value}, nil
}

// lookupString fetches the id2str text for a hashed term.
func (sn *snapshot) lookupString(term encoding.EncodedTerm) (*string, error) {
	if !term.NeedsLookup() {
		return nil, nil
	}
	key := append([]byte{tableID2Str}, term[1:]...)
	item, err := sn.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("missing id2str entry for hashed term")
	}
	if err != nil {
		return nil, err
	}
	var s string
	err = item.Value(func(val []byte) error {
		s = string(val)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
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
	sn.txn.Discard()
	return nil
}
