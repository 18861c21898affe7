package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zenotta/compute/internal/proposal"
)

func TestTakeFirstNLowestKeyFirst(t *testing.T) {
	src := proposal.TxMap{
		"000003": {Hash: "000003"},
		"000001": {Hash: "000001"},
		"000002": {Hash: "000002"},
	}

	taken := TakeFirstN(src, 2)

	assert.Len(t, taken, 2)
	_, ok1 := taken["000001"]
	_, ok2 := taken["000002"]
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Len(t, src, 1)
	_, remains := src["000003"]
	assert.True(t, remains)
}

func TestTakeFirstNCapsAtPoolSize(t *testing.T) {
	src := proposal.TxMap{"000001": {Hash: "000001"}}
	taken := TakeFirstN(src, 5)
	assert.Len(t, taken, 1)
	assert.Len(t, src, 0)
}

func TestCanAccept(t *testing.T) {
	assert.True(t, CanAccept(2, 1, 3, 1, 10))
	assert.False(t, CanAccept(5, 5, 5, 1, 10))
}

func TestLocalPoolsAddAndDrainDruids(t *testing.T) {
	p := NewLocalPools()
	p.AddTransactions(proposal.TxMap{"000001": {Hash: "000001"}})
	assert.Equal(t, 1, p.Len())

	p.AddDruidTransactions(proposal.TxMap{"000010": {Hash: "000010"}})
	p.AddDruidTransactions(proposal.TxMap{"000011": {Hash: "000011"}})
	assert.Equal(t, 2, p.DruidLen())

	drained := p.DrainDruids()
	assert.Len(t, drained, 2)
	assert.Equal(t, 0, p.DruidLen())
}
