package datomize

import "github.com/factstore/datomize/pkg/datom"

// reconcile diffs the rehearsed retraction set against the freshly encoded
// additions: a fact present on both sides (identical entity, attribute, and
// value, differing only in operation) is unchanged and is dropped from
// both. What remains of the retractions disappeared from the data; what
// remains of the additions is new or changed. Matching is multiset-aware
// and keyed by the 128-bit fingerprint of the (E, A, V) triple.
func reconcile(retractions, additions []datom.Datom) []datom.Datom {
	retracted := make(map[datom.Fingerprint]int, len(retractions))
	for _, r := range retractions {
		retracted[datom.FingerprintEAV(r)]++
	}

	consumed := make(map[datom.Fingerprint]int)
	keptAdds := additions[:0:0]
	for _, a := range additions {
		fp := datom.FingerprintEAV(a)
		if consumed[fp] < retracted[fp] {
			consumed[fp]++
			continue
		}
		keptAdds = append(keptAdds, a)
	}

	tx := make([]datom.Datom, 0, len(retractions)+len(keptAdds))
	for _, r := range retractions {
		fp := datom.FingerprintEAV(r)
		if consumed[fp] > 0 {
			consumed[fp]--
			continue
		}
		tx = append(tx, r)
	}
	return append(tx, keptAdds...)
}
