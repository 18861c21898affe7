package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zenotta/compute/internal/compute"
	"github.com/zenotta/compute/internal/proposal"
	"github.com/zenotta/compute/testutil"
)

type recordingSink struct {
	blocks []*compute.Block
}

func (r *recordingSink) SubmitForMining(block *compute.Block, blockTx proposal.TxMap) {
	r.blocks = append(r.blocks, block)
}

func TestFirstBlockEndToEndOverLoopback(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	defer env.Close()

	adapter := env.NewLoopbackAdapter()
	defer adapter.Close()

	state := env.NewState(1)
	pools := env.NewLocalPools()
	sink := &recordingSink{}

	o := New(adapter, state, pools, sink, nil, Params{
		ProposerID:                         0,
		ProposedTxPoolLenMax:               10,
		ProposedAndConsensusedTxPoolLenMax: 100,
		RaftTickInterval:                   50 * time.Millisecond,
		TransactionProposeInterval:         20 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	go o.Run(ctx)

	utxo := testutil.SeedTransactions("000000", "000001")
	require.NoError(t, o.ProposeFirstBlock(ctx, utxo))

	require.Eventually(t, func() bool {
		return len(sink.blocks) == 1
	}, 400*time.Millisecond, 10*time.Millisecond)

	assert.ElementsMatch(t, []string{"000000", "000001"}, sink.blocks[0].Transactions)
}

func TestProposeLocalTransactionsRespectsAdmissionCeiling(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	defer env.Close()

	adapter := env.NewLoopbackAdapter()
	defer adapter.Close()

	state := env.NewState(1)
	pools := env.NewLocalPools()

	o := New(adapter, state, pools, nil, nil, Params{
		ProposerID:                         0,
		ProposedTxPoolLenMax:               2,
		ProposedAndConsensusedTxPoolLenMax: 3,
	})

	for i := 0; i < 6; i++ {
		hash := string(rune('a' + i))
		pools.AddTransactions(proposal.TxMap{hash: {Hash: hash}})
	}
	assert.Equal(t, 6, pools.Len())

	ctx := context.Background()

	// Cycle 1: n = min(3-0, 2) = 2.
	o.proposeLocalTransactions(ctx)
	assert.Equal(t, 4, pools.Len())
	assert.Equal(t, 2, o.ProposedTxPoolLen())

	// Drain the loopback commit for cycle 1 so proposed_tx_pool_len clears
	// and the consensused pool grows, mirroring the commit path.
	data, ok := adapter.NextCommit(ctx)
	require.True(t, ok)
	envelope, err := proposal.Decode(data)
	require.NoError(t, err)
	o.applyCommit(ctx, data)
	assert.Equal(t, 0, o.ProposedTxPoolLen())
	assert.Equal(t, len(envelope.Item.Transactions), state.ConsensusedTxPoolLen())

	// Cycle 2: maxAdd = 3 - (0+2) = 1, n = min(1,2) = 1.
	o.proposeLocalTransactions(ctx)
	assert.Equal(t, 3, pools.Len())
	assert.Equal(t, 1, o.ProposedTxPoolLen())
}
