// Package pool holds not-yet-proposed transactions and DRUID droplets, and
// enforces admission control before they are handed to the consensus log.
package pool

import (
	"sync"

	"github.com/zenotta/compute/internal/proposal"
)

// LocalPools is the node-local staging area: transactions and droplets that
// have been accepted locally but not yet proposed to the replicated log. It
// is mutated from the orchestrator's own goroutine, but its counts
// (Len/DruidLen) are also read from other goroutines (e.g. an HTTP status
// handler); mu guards every access so that race is a short-lived lock wait,
// not a concurrent map read/write.
type LocalPools struct {
	mu        sync.Mutex
	txPool    proposal.TxMap
	druidPool []proposal.TxMap
}

// NewLocalPools returns an empty staging area.
func NewLocalPools() *LocalPools {
	return &LocalPools{txPool: proposal.TxMap{}}
}

// AddTransactions stages a batch of transactions for future proposal.
func (p *LocalPools) AddTransactions(batch proposal.TxMap) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for hash, tx := range batch {
		p.txPool[hash] = tx
	}
}

// AddDruidTransactions stages one atomic droplet for future proposal.
func (p *LocalPools) AddDruidTransactions(droplet proposal.TxMap) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.druidPool = append(p.druidPool, droplet)
}

// Len returns the number of transactions staged locally (droplets excluded,
// matching the original's len(local_tx_pool) accounting).
func (p *LocalPools) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.txPool)
}

// DruidLen returns the number of droplets staged locally.
func (p *LocalPools) DruidLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.druidPool)
}

// CanAccept implements the admission test of §4.C: true iff staging this
// node's local pool, the in-flight proposed count, and the consensused
// pool's count, plus extraLen, would not exceed limit.
func CanAccept(localLen, proposedTxPoolLen, consensusedLen, extraLen, limit int) bool {
	return localLen+proposedTxPoolLen+consensusedLen+extraLen <= limit
}

// TakeFirstN removes and returns the first n entries (in key order) from
// pool, leaving the remainder. Shared by the periodic-propose path and by
// ordinary-pass block assembly, which both need the identical
// lowest-key-first selection rule.
func TakeFirstN(pool proposal.TxMap, n int) proposal.TxMap {
	if n <= 0 || len(pool) == 0 {
		return proposal.TxMap{}
	}

	keys := pool.SortedKeys()
	if n > len(keys) {
		n = len(keys)
	}

	taken := make(proposal.TxMap, n)
	for _, k := range keys[:n] {
		taken[k] = pool[k]
		delete(pool, k)
	}
	return taken
}

// TakeFirstN removes and returns the first n locally-staged transactions in
// key order, under the pool's own lock. Callers driving the periodic-propose
// algorithm (§4.C) use this instead of reaching for the underlying map
// directly, so the selection and the mutation it performs never race a
// concurrent reader.
func (p *LocalPools) TakeFirstN(n int) proposal.TxMap {
	p.mu.Lock()
	defer p.mu.Unlock()
	return TakeFirstN(p.txPool, n)
}

// DrainDruids removes and returns every staged droplet, clearing the local
// droplet pool.
func (p *LocalPools) DrainDruids() []proposal.TxMap {
	p.mu.Lock()
	defer p.mu.Unlock()
	drained := p.druidPool
	p.druidPool = nil
	return drained
}
