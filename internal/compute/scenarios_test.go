package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zenotta/compute/internal/proposal"
)

// A single node (unanimous_majority=1) commits a FirstBlock proposal, then
// assembles the genesis block directly from the seed UTXO.
func TestFirstBlockThenGenesisAssembly(t *testing.T) {
	s := NewState(Params{ClusterSize: 1, BlockSizeInTx: 100})

	signal, err := s.ReceivedCommit(proposal.NewFirstBlockItem(proposal.TxMapFromSlice(seedUTXO("000000", "000001", "000002"))), 0)
	require.NoError(t, err)
	require.Equal(t, CommittedFirstBlock, signal)

	keys := make([]string, 0, len(s.UTXOSet))
	for k := range s.UTXOSet {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"000000", "000001", "000002"}, keys)

	block := s.GenerateFirstBlock()
	assert.Equal(t, []string{"000000", "000001", "000002"}, block.Transactions)
}

// Two transactions race over overlapping inputs; the one claiming an
// absent input is rejected regardless of iteration order, and between the
// two genuinely conflicting transactions only the lower-hash-first survives.
func TestDoubleSpendPoolPruning(t *testing.T) {
	s := NewState(Params{ClusterSize: 1, BlockSizeInTx: 100})
	s.UTXOSet = proposal.TxMap{
		"000000": {Hash: "000000"},
		"000001": {Hash: "000001"},
		"000002": {Hash: "000002"},
	}
	zero := uint64(0)
	s.CurrentBlockNum = &zero
	prev := "genesis"
	s.CurrentBlockPreviousHash = &prev

	tA := proposal.Transaction{Hash: "t_a", Inputs: []string{"000000", "000001", "000003"}}
	tB := proposal.Transaction{Hash: "t_b", Inputs: []string{"000000", "000002"}}
	s.TxPool = proposal.TxMap{tA.Hash: tA, tB.Hash: tB}

	block, err := s.GenerateBlock()
	require.NoError(t, err)

	assert.NotContains(t, block.Transactions, "t_a")
	assert.Contains(t, block.Transactions, "t_b")
	_, stillUnspent := s.UTXOSet["000001"]
	assert.True(t, stillUnspent)
}

// Three-node cluster: two nodes agree on a Block vote, one diverges;
// sufficient_majority (2) is reached on the second agreeing vote.
func TestBlockFinalizationVote(t *testing.T) {
	s := NewState(Params{ClusterSize: 3, BlockSizeInTx: 100})
	zero := uint64(0)
	s.CurrentBlockNum = &zero

	agreed := proposal.BlockStoredInfo{
		BlockHash:          "hash0",
		BlockNum:           0,
		MiningTransactions: []proposal.Transaction{{Hash: "reward0"}},
	}
	divergent := agreed
	divergent.BlockHash = "other"

	signal, err := s.ReceivedCommit(proposal.NewBlockItem(divergent), 2)
	require.NoError(t, err)
	assert.Equal(t, CommittedNone, signal)

	signal, err = s.ReceivedCommit(proposal.NewBlockItem(agreed), 0)
	require.NoError(t, err)
	assert.Equal(t, CommittedNone, signal)

	signal, err = s.ReceivedCommit(proposal.NewBlockItem(agreed), 1)
	require.NoError(t, err)
	assert.Equal(t, CommittedBlock, signal)
	assert.Equal(t, uint64(1), *s.CurrentBlockNum)

	_, hasReward := s.UTXOSet["reward0"]
	assert.True(t, hasReward)
}

// Applying an all-invalid droplet must leave utxo_set unchanged.
func TestIdempotentDropletRejectionLeavesUTXOUnchanged(t *testing.T) {
	s := NewState(Params{ClusterSize: 1, BlockSizeInTx: 100})
	s.UTXOSet = proposal.TxMap{"000010": {Hash: "000010"}}
	before := len(s.UTXOSet)

	droplet := proposal.TxMap{
		"d1": {Hash: "d1", Inputs: []string{"000010"}},
		"d2": {Hash: "d2", Inputs: []string{"000010"}},
	}
	invalid := s.FindInvalidNewTxs(droplet)
	assert.Len(t, invalid, 1)
	assert.Equal(t, before, len(s.UTXOSet))
}
