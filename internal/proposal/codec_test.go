package proposal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Envelope{
		{
			Key:  ProposalKey{ProposerID: 0, ProposalID: 1},
			Item: NewFirstBlockItem(TxMap{"000000": {Hash: "000000"}, "000001": {Hash: "000001"}}),
		},
		{
			Key: ProposalKey{ProposerID: 2, ProposalID: 9},
			Item: NewTransactionsItem(TxMap{
				"000010": {Hash: "000010", Inputs: []string{"000000"}},
			}),
		},
		{
			Key: ProposalKey{ProposerID: 1, ProposalID: 3},
			Item: NewDruidTransactionsItem([]TxMap{
				{"000020": {Hash: "000020", Inputs: []string{"a", "b"}}},
				{"000021": {Hash: "000021"}},
			}),
		},
		{
			Key: ProposalKey{ProposerID: 0, ProposalID: 4},
			Item: NewBlockItem(BlockStoredInfo{
				BlockHash: "deadbeef",
				BlockNum:  7,
				MiningTransactions: []Transaction{
					{Hash: "000030"},
				},
			}),
		},
	}

	for _, c := range cases {
		data, err := Encode(c)
		require.NoError(t, err)

		got, err := Decode(data)
		require.NoError(t, err)

		assert.Equal(t, c.Key, got.Key)
		assert.Equal(t, c.Item.Kind, got.Item.Kind)
		assert.ElementsMatch(t, c.Item.FirstBlockUTXO, got.Item.FirstBlockUTXO)
		assert.ElementsMatch(t, c.Item.Transactions, got.Item.Transactions)
		assert.Equal(t, len(c.Item.Druids), len(got.Item.Druids))
		assert.Equal(t, c.Item.Block, got.Item.Block)
	}
}

func TestDecodeGarbageIsRejectedNotPanicked(t *testing.T) {
	_, err := Decode([]byte{0xff, 0x00, 0x01})
	assert.Error(t, err)
}
