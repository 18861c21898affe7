package orchestrator

import (
	"sync"

	"github.com/zenotta/compute/internal/proposal"
)

// inFlight tracks this node's own proposals between calling Propose and
// observing the matching commit, per spec §4.B: on commit, if the key is
// still here it is removed, and if the item was Transactions its length is
// subtracted from the running proposed_tx_pool_len count. mu guards every
// access: mutation happens only from the orchestrator's own goroutine, but
// proposedTxPoolLen is also read from other goroutines (e.g. an HTTP status
// handler), and an unguarded read there would race the map writes above.
type inFlight struct {
	mu         sync.Mutex
	items      map[proposal.ProposalKey]proposal.Item
	txPoolLen  int
	lastPropID uint64
}

func newInFlight() *inFlight {
	return &inFlight{items: map[proposal.ProposalKey]proposal.Item{}}
}

// nextKey mints the next proposal key for this node: the proposal-id half
// is a simple monotonic counter starting at 0 and incremented before each
// proposal.
func (f *inFlight) nextKey(proposerID uint64) proposal.ProposalKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPropID++
	return proposal.ProposalKey{ProposerID: proposerID, ProposalID: f.lastPropID}
}

// record stores a just-proposed item as in-flight and, for Transactions
// items, adds its length to proposed_tx_pool_len.
func (f *inFlight) record(key proposal.ProposalKey, item proposal.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[key] = item
	if item.Kind == proposal.KindTransactions {
		f.txPoolLen += len(item.Transactions)
	}
}

// resolve removes key if it was ours, decrementing proposed_tx_pool_len for
// a Transactions item. Returns whether the key was found.
func (f *inFlight) resolve(key proposal.ProposalKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[key]
	if !ok {
		return false
	}
	delete(f.items, key)
	if item.Kind == proposal.KindTransactions {
		f.txPoolLen -= len(item.Transactions)
	}
	return true
}

// proposedTxPoolLen is the in-flight member of the (combined, local,
// in_flight, consensused) 4-tuple.
func (f *inFlight) proposedTxPoolLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txPoolLen
}
