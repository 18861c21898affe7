package compute

import "github.com/zenotta/compute/internal/proposal"

// voteEntry accumulates the set of proposer ids agreeing on one payload.
type voteEntry struct {
	proposerIDs map[uint64]struct{}
}

// accumulatingBlockStoredInfo is the vote accumulator described in spec §3:
// a mapping from a content hash of the payload to the set of proposers that
// voted for it. It exists only while a block (or the genesis UTXO) is being
// voted on and is cleared on resolution.
type accumulatingBlockStoredInfo struct {
	entries map[proposal.VoteHash]*voteEntry
}

func newAccumulator() *accumulatingBlockStoredInfo {
	return &accumulatingBlockStoredInfo{entries: map[proposal.VoteHash]*voteEntry{}}
}

// record adds proposerID's vote for hash, returning the number of distinct
// payload hashes currently being voted on (>1 signals divergence).
func (a *accumulatingBlockStoredInfo) record(hash proposal.VoteHash, proposerID uint64) int {
	e, ok := a.entries[hash]
	if !ok {
		e = &voteEntry{proposerIDs: map[uint64]struct{}{}}
		a.entries[hash] = e
	}
	e.proposerIDs[proposerID] = struct{}{}
	return len(a.entries)
}

// maxAgreeing returns the hash with the most agreeing proposers and that
// count. ok is false if no votes have been recorded.
func (a *accumulatingBlockStoredInfo) maxAgreeing() (hash proposal.VoteHash, count int, ok bool) {
	best := -1
	for h, e := range a.entries {
		if n := len(e.proposerIDs); n > best {
			best = n
			hash = h
			ok = true
		}
	}
	return hash, best, ok
}

func (a *accumulatingBlockStoredInfo) len() int {
	return len(a.entries)
}

func (a *accumulatingBlockStoredInfo) clear() {
	a.entries = map[proposal.VoteHash]*voteEntry{}
}
