// Package blockstore defines the interface to the storage node: the
// out-of-scope collaborator that persists finalized blocks and reports back
// a BlockStoredInfo once durable (spec §1, §6). It also carries two local
// implementations used in development and testing: a Badger-backed store
// and an optional encrypted archival sink.
package blockstore

import (
	"context"

	"github.com/zenotta/compute/internal/proposal"
)

// Store is the storage node's contract as seen by the core.
type Store interface {
	// PutBlock persists a finalized block's raw bytes keyed by block
	// number and returns the BlockStoredInfo to propose to the cluster.
	PutBlock(ctx context.Context, blockNum uint64, blockHash string, data []byte, miningTxs []proposal.Transaction) (proposal.BlockStoredInfo, error)

	// GetBlock retrieves a previously persisted block's raw bytes.
	GetBlock(ctx context.Context, blockNum uint64) ([]byte, error)

	// Close releases resources held by the store.
	Close() error
}
