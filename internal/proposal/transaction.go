package proposal

import "sort"

// Transaction is the core's opaque view of a transaction: a content-addressed
// hash and the set of previous outputs it spends. Signature verification and
// transaction construction live outside the core.
type Transaction struct {
	Hash   string
	Inputs []string
}

// TxMap is a hash-keyed collection of transactions. It is the in-memory
// representation used by the pool and the consensused state; on the wire,
// maps are always flattened to a hash-sorted slice so encoding is canonical.
type TxMap map[string]Transaction

// SortedKeys returns the map's keys in ascending order.
func (m TxMap) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sorted returns the map's transactions ordered by hash, for canonical
// iteration and wire encoding.
func (m TxMap) Sorted() []Transaction {
	keys := m.SortedKeys()
	out := make([]Transaction, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// TxMapFromSlice rebuilds a TxMap from a sorted wire slice.
func TxMapFromSlice(txs []Transaction) TxMap {
	m := make(TxMap, len(txs))
	for _, tx := range txs {
		m[tx.Hash] = tx
	}
	return m
}
