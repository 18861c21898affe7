package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zenotta/compute/internal/proposal"
)

func seedUTXO(hashes ...string) []proposal.Transaction {
	txs := make([]proposal.Transaction, 0, len(hashes))
	for _, h := range hashes {
		txs = append(txs, proposal.Transaction{Hash: h})
	}
	return txs
}

func TestApplyFirstBlockRequiresUnanimity(t *testing.T) {
	s := NewState(Params{ClusterSize: 3, BlockSizeInTx: 10})
	utxo := seedUTXO("000000", "000001", "000002")

	signal, err := s.applyFirstBlock(utxo, 0)
	require.NoError(t, err)
	assert.Equal(t, CommittedNone, signal)
	assert.Nil(t, s.CurrentBlockNum)

	signal, err = s.applyFirstBlock(utxo, 1)
	require.NoError(t, err)
	assert.Equal(t, CommittedNone, signal)

	signal, err = s.applyFirstBlock(utxo, 2)
	require.NoError(t, err)
	assert.Equal(t, CommittedFirstBlock, signal)
	require.NotNil(t, s.CurrentBlockNum)
	assert.Equal(t, uint64(0), *s.CurrentBlockNum)
	assert.Len(t, s.UTXOSet, 3)
}

func TestApplyFirstBlockIgnoredAfterGenesis(t *testing.T) {
	s := NewState(Params{ClusterSize: 1, BlockSizeInTx: 10})
	utxo := seedUTXO("000000")
	_, err := s.applyFirstBlock(utxo, 0)
	require.NoError(t, err)
	require.NotNil(t, s.CurrentBlockNum)

	signal, err := s.applyFirstBlock(seedUTXO("000099"), 0)
	require.NoError(t, err)
	assert.Equal(t, CommittedNone, signal)
	assert.Equal(t, uint64(0), *s.CurrentBlockNum)
}

func TestFindInvalidNewTxsGreedyDoubleSpend(t *testing.T) {
	s := NewState(Params{ClusterSize: 1, BlockSizeInTx: 10})
	s.UTXOSet = proposal.TxMap{
		"000000": {Hash: "000000"},
		"000001": {Hash: "000001"},
		"000002": {Hash: "000002"},
	}

	candidate := proposal.TxMap{
		"tA": {Hash: "tA", Inputs: []string{"000000", "000001", "000003"}},
		"tB": {Hash: "tB", Inputs: []string{"000000", "000002"}},
	}

	invalid := s.FindInvalidNewTxs(candidate)
	assert.ElementsMatch(t, []string{"tA", "tB"}, invalid)
}

func TestDruidDropletAtomicity(t *testing.T) {
	s := NewState(Params{ClusterSize: 1, BlockSizeInTx: 10})
	s.UTXOSet = proposal.TxMap{
		"000010": {Hash: "000010"},
		"000011": {Hash: "000011"},
		"000012": {Hash: "000012"},
	}

	droplet1 := proposal.TxMap{
		"d1a": {Hash: "d1a", Inputs: []string{"000010"}},
		"d1b": {Hash: "d1b", Inputs: []string{"000010"}},
	}

	invalid := s.FindInvalidNewTxs(droplet1)
	assert.NotEmpty(t, invalid)
}

func TestCrossDropletConflictOrderWins(t *testing.T) {
	s := NewState(Params{ClusterSize: 1, BlockSizeInTx: 10})
	s.UTXOSet = proposal.TxMap{
		"000020": {Hash: "000020"},
		"000021": {Hash: "000021"},
		"000023": {Hash: "000023"},
	}
	zero := uint64(0)
	s.CurrentBlockNum = &zero
	prev := "genesis"
	s.CurrentBlockPreviousHash = &prev

	dropletA := proposal.TxMap{"a1": {Hash: "a1", Inputs: []string{"000020", "000023"}}}
	dropletB := proposal.TxMap{"b1": {Hash: "b1", Inputs: []string{"000021", "000023"}}}

	s.TxDruidPool = []proposal.TxMap{dropletA, dropletB}

	block, err := s.GenerateBlock()
	require.NoError(t, err)
	assert.Contains(t, block.Transactions, "a1")
	assert.NotContains(t, block.Transactions, "b1")
}

func TestApplyBlockSufficientMajority(t *testing.T) {
	s := NewState(Params{ClusterSize: 3, BlockSizeInTx: 10})
	zero := uint64(0)
	s.CurrentBlockNum = &zero

	info := proposal.BlockStoredInfo{
		BlockHash:          "blockhash0",
		BlockNum:           0,
		MiningTransactions: []proposal.Transaction{{Hash: "reward0"}},
	}
	divergent := info
	divergent.BlockHash = "divergent"

	signal, err := s.applyBlock(divergent, 2)
	require.NoError(t, err)
	assert.Equal(t, CommittedNone, signal)

	signal, err = s.applyBlock(info, 0)
	require.NoError(t, err)
	assert.Equal(t, CommittedNone, signal)

	signal, err = s.applyBlock(info, 1)
	require.NoError(t, err)
	assert.Equal(t, CommittedBlock, signal)
	assert.Equal(t, uint64(1), *s.CurrentBlockNum)
	_, has := s.UTXOSet["reward0"]
	assert.True(t, has)
}
