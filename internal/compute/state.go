// Package compute implements the consensused state machine: the replicated
// UTXO set, transaction pool, DRUID pool, block-stored vote accumulator,
// and the deterministic block-assembly algorithm. Every field here is
// mutated only from the single commit-application path of one node.
// Read-only views exported elsewhere (an HTTP status handler, say) never
// take a direct reference to State's fields: they go through Snapshot,
// which holds State's own short-lived mutex just long enough to copy the
// handful of values such a view needs, so a concurrent commit never races
// a concurrent read of the same map or pointer.
package compute

import (
	"fmt"
	"log"
	"sync"

	"github.com/zenotta/compute/internal/pool"
	"github.com/zenotta/compute/internal/proposal"
)

// Params configures a State at construction.
type Params struct {
	ClusterSize   int
	BlockSizeInTx int
}

// State is the consensused heart described by spec §3.
type State struct {
	mu sync.Mutex

	UTXOSet      proposal.TxMap
	TxPool       proposal.TxMap
	TxDruidPool  []proposal.TxMap

	CurrentBlockPreviousHash *string
	CurrentBlockNum          *uint64
	CurrentBlock             *Block
	CurrentBlockTx           proposal.TxMap

	votes *accumulatingBlockStoredInfo

	UnanimousMajority  int
	SufficientMajority int
	blockSizeInTx      int
}

// NewState returns an empty consensused state: every field starts empty and
// is created once, for the lifetime of the node.
func NewState(p Params) *State {
	n := p.ClusterSize
	if n < 1 {
		n = 1
	}
	return &State{
		UTXOSet:            proposal.TxMap{},
		TxPool:             proposal.TxMap{},
		votes:              newAccumulator(),
		UnanimousMajority:  n,
		SufficientMajority: n/2 + 1,
		blockSizeInTx:      p.BlockSizeInTx,
	}
}

// ReceivedCommit dispatches a committed proposal item to the matching
// handler, per §4.D, and returns the signal to emit (if any) to the
// orchestrator.
func (s *State) ReceivedCommit(item proposal.Item, proposerID uint64) (CommittedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch item.Kind {
	case proposal.KindFirstBlock:
		return s.applyFirstBlock(item.FirstBlockUTXO, proposerID)
	case proposal.KindTransactions:
		return s.applyTransactions(item.Transactions)
	case proposal.KindDruidTransactions:
		return s.applyDruidTransactions(item.Druids)
	case proposal.KindBlock:
		return s.applyBlock(item.Block, proposerID)
	default:
		return CommittedNone, fmt.Errorf("unknown proposal item kind %d", item.Kind)
	}
}

// applyFirstBlock handles §4.D.1.
func (s *State) applyFirstBlock(utxo []proposal.Transaction, proposerID uint64) (CommittedItem, error) {
	if s.CurrentBlockNum != nil {
		log.Printf("compute: FirstBlock proposed after genesis, ignoring")
		return CommittedNone, nil
	}

	hash, err := proposal.HashUTXOSet(proposal.TxMapFromSlice(utxo))
	if err != nil {
		return CommittedNone, fmt.Errorf("failed to hash FirstBlock vote: %w", err)
	}

	if n := s.votes.record(hash, proposerID); n > 1 {
		log.Printf("compute: FirstBlock votes diverge (%d distinct payloads)", n)
	}

	winner, count, ok := s.votes.maxAgreeing()
	if !ok || count < s.UnanimousMajority || winner != hash {
		return CommittedNone, nil
	}

	s.UTXOSet = proposal.TxMapFromSlice(utxo)
	zero := uint64(0)
	s.CurrentBlockNum = &zero
	s.votes.clear()
	return CommittedFirstBlock, nil
}

// applyTransactions handles §4.D.2: no UTXO validation here, it is deferred
// to block assembly so input availability is judged against the state at
// that moment.
func (s *State) applyTransactions(batch []proposal.Transaction) (CommittedItem, error) {
	for _, tx := range batch {
		if _, exists := s.TxPool[tx.Hash]; !exists {
			s.TxPool[tx.Hash] = tx
		}
	}
	return CommittedTransactions, nil
}

// applyDruidTransactions handles §4.D.3.
func (s *State) applyDruidTransactions(droplets [][]proposal.Transaction) (CommittedItem, error) {
	for _, d := range droplets {
		s.TxDruidPool = append(s.TxDruidPool, proposal.TxMapFromSlice(d))
	}
	return CommittedTransactions, nil
}

// applyBlock handles §4.D.4.
func (s *State) applyBlock(info proposal.BlockStoredInfo, proposerID uint64) (CommittedItem, error) {
	if s.CurrentBlockNum == nil || info.BlockNum != *s.CurrentBlockNum {
		log.Printf("compute: Block(%d) does not match current block %v, ignoring", info.BlockNum, s.CurrentBlockNum)
		return CommittedNone, nil
	}

	hash, err := proposal.HashBlockStoredInfo(info)
	if err != nil {
		return CommittedNone, fmt.Errorf("failed to hash Block vote: %w", err)
	}

	if n := s.votes.record(hash, proposerID); n > 1 {
		log.Printf("compute: Block votes diverge for block_num=%d (%d distinct payloads)", info.BlockNum, n)
	}

	winner, count, ok := s.votes.maxAgreeing()
	if !ok || count < s.SufficientMajority || winner != hash {
		return CommittedNone, nil
	}

	prevHash := info.BlockHash
	s.CurrentBlockPreviousHash = &prevHash
	nextNum := info.BlockNum + 1
	s.CurrentBlockNum = &nextNum

	for _, tx := range info.MiningTransactions {
		s.UTXOSet[tx.Hash] = tx
	}

	s.votes.clear()
	return CommittedBlock, nil
}

// FindInvalidNewTxs is the greedy double-spend resolver of §4.D.6: it
// iterates candidate in key order, tentatively claiming each input against
// utxo_set and the inputs already claimed by earlier transactions in this
// same pass, rejecting (and rolling back) any transaction whose inputs
// cannot be fully satisfied.
func (s *State) FindInvalidNewTxs(candidate proposal.TxMap) []string {
	removedAll := map[string]struct{}{}
	var invalid []string

	for _, hash := range candidate.SortedKeys() {
		tx := candidate[hash]
		var rollback []string

		for _, input := range tx.Inputs {
			if _, inUTXO := s.UTXOSet[input]; inUTXO {
				if _, claimed := removedAll[input]; !claimed {
					removedAll[input] = struct{}{}
					rollback = append(rollback, input)
					continue
				}
			}

			for _, h := range rollback {
				delete(removedAll, h)
			}
			invalid = append(invalid, hash)
			break
		}
	}

	return invalid
}

// applyCandidate removes a validated candidate's inputs from utxo_set and
// extends block and blockTx in the candidate's sorted hash order.
func (s *State) applyCandidate(candidate proposal.TxMap, block *Block, blockTx proposal.TxMap) {
	for _, hash := range candidate.SortedKeys() {
		tx := candidate[hash]
		for _, input := range tx.Inputs {
			delete(s.UTXOSet, input)
		}
		block.Transactions = append(block.Transactions, hash)
		blockTx[hash] = tx
	}
}

// GenerateBlock assembles the next block per §4.D.5: a DRUID pass over the
// droplet pool (all-or-nothing per droplet), then an ordinary pass over the
// pruned transaction pool capped at blockSizeInTx.
func (s *State) GenerateBlock() (*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CurrentBlockPreviousHash == nil || s.CurrentBlockNum == nil {
		return nil, fmt.Errorf("cannot generate block before a previous block is finalized")
	}

	block := &Block{}
	blockTx := proposal.TxMap{}

	droplets := s.TxDruidPool
	s.TxDruidPool = nil
	for _, droplet := range droplets {
		if invalid := s.FindInvalidNewTxs(droplet); len(invalid) > 0 {
			continue
		}
		s.applyCandidate(droplet, block, blockTx)
	}

	invalid := s.FindInvalidNewTxs(s.TxPool)
	for _, h := range invalid {
		delete(s.TxPool, h)
	}
	taken := pool.TakeFirstN(s.TxPool, s.blockSizeInTx)
	s.applyCandidate(taken, block, blockTx)

	block.Header.PreviousHash = *s.CurrentBlockPreviousHash
	block.Header.BNum = *s.CurrentBlockNum
	// The header's time is derived from b_num, not wall-clock time. This
	// preserves the source behavior byte-for-byte across replays; flagged
	// as possibly unintentional, but kept deliberately (spec §9).
	block.Header.Time = uint32(block.Header.BNum)

	s.setCommittedMiningBlock(block, blockTx)
	return block, nil
}

// GenerateFirstBlock assembles the pre-genesis block per §4.D.7: the seed
// UTXO set itself, with no header previous-hash and no b_num increment.
func (s *State) GenerateFirstBlock() *Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	block := &Block{}
	blockTx := proposal.TxMap{}

	for _, hash := range s.UTXOSet.SortedKeys() {
		block.Transactions = append(block.Transactions, hash)
		blockTx[hash] = s.UTXOSet[hash]
	}

	s.setCommittedMiningBlock(block, blockTx)
	return block
}

// setCommittedMiningBlock stores the assembled block and re-admits its
// transactions' outputs into utxo_set: they become spendable for future
// blocks, but not within the block that just consumed their inputs.
func (s *State) setCommittedMiningBlock(block *Block, blockTx proposal.TxMap) {
	for hash, tx := range blockTx {
		s.UTXOSet[hash] = tx
	}
	s.CurrentBlock = block
	s.CurrentBlockTx = blockTx
}

// TakeMiningBlock returns the block currently assembled for mining and its
// transaction set, for handoff to the (out-of-scope) miner.
func (s *State) TakeMiningBlock() (*Block, proposal.TxMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CurrentBlock, s.CurrentBlockTx
}

// ConsensusedTxPoolLen reports len(tx_pool), the consensused member of the
// (combined, local, in_flight, consensused) 4-tuple tracked by §8's S5.
func (s *State) ConsensusedTxPoolLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.TxPool)
}

// Snapshot is a point-in-time copy of the fields an external read-only view
// (an HTTP status handler, say) needs. Unlike State itself, it never
// changes after it's returned: it holds no reference into State's maps or
// pointers.
type Snapshot struct {
	BlockNum             *uint64
	UTXOLen              int
	TxPoolLen            int
	TxDruidPoolLen       int
}

// Snapshot copies out the fields of State a read-only view needs, under
// the same short-lived lock every mutating method uses, so it can never
// observe a torn update.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blockNum *uint64
	if s.CurrentBlockNum != nil {
		n := *s.CurrentBlockNum
		blockNum = &n
	}

	return Snapshot{
		BlockNum:       blockNum,
		UTXOLen:        len(s.UTXOSet),
		TxPoolLen:      len(s.TxPool),
		TxDruidPoolLen: len(s.TxDruidPool),
	}
}

// String renders a terse summary rather than a full struct dump, so an
// unrelated panic or log line does not spill the whole UTXO set.
func (s *State) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	blockNum := "none"
	if s.CurrentBlockNum != nil {
		blockNum = fmt.Sprintf("%d", *s.CurrentBlockNum)
	}
	return fmt.Sprintf("compute.State{block_num=%s utxo=%d tx_pool=%d druid_pool=%d}",
		blockNum, len(s.UTXOSet), len(s.TxPool), len(s.TxDruidPool))
}

// GoString matches String so %#v in a log statement never dumps internals.
func (s *State) GoString() string {
	return s.String()
}
