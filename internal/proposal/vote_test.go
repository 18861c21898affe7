package proposal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashUTXOSetIsOrderIndependent(t *testing.T) {
	a := TxMap{"000000": {Hash: "000000"}, "000001": {Hash: "000001"}, "000002": {Hash: "000002"}}
	b := TxMap{"000002": {Hash: "000002"}, "000000": {Hash: "000000"}, "000001": {Hash: "000001"}}

	ha, err := HashUTXOSet(a)
	require.NoError(t, err)
	hb, err := HashUTXOSet(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
}

func TestHashUTXOSetDivergesOnDifferentPayload(t *testing.T) {
	a := TxMap{"000000": {Hash: "000000"}}
	b := TxMap{"000000": {Hash: "000000"}, "000001": {Hash: "000001"}}

	ha, err := HashUTXOSet(a)
	require.NoError(t, err)
	hb, err := HashUTXOSet(b)
	require.NoError(t, err)

	assert.NotEqual(t, ha, hb)
}

func TestHashBlockStoredInfo(t *testing.T) {
	info := BlockStoredInfo{BlockHash: "deadbeef", BlockNum: 3}
	h1, err := HashBlockStoredInfo(info)
	require.NoError(t, err)
	h2, err := HashBlockStoredInfo(info)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	diverged := info
	diverged.BlockNum = 4
	h3, err := HashBlockStoredInfo(diverged)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
