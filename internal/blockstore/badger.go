package blockstore

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/zenotta/compute/internal/proposal"
)

// BadgerStore is a local, durable dev/test implementation of Store, keying
// each finalized block by its big-endian block number.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a Badger database at path.
func NewBadgerStore(path string, sync bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithSyncWrites(sync)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func blockKey(blockNum uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, blockNum)
	return key
}

func (s *BadgerStore) PutBlock(_ context.Context, blockNum uint64, blockHash string, data []byte, miningTxs []proposal.Transaction) (proposal.BlockStoredInfo, error) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blockKey(blockNum), data)
	})
	if err != nil {
		return proposal.BlockStoredInfo{}, fmt.Errorf("failed to persist block %d: %w", blockNum, err)
	}

	return proposal.BlockStoredInfo{
		BlockHash:          blockHash,
		BlockNum:           blockNum,
		MiningTransactions: miningTxs,
	}, nil
}

func (s *BadgerStore) GetBlock(_ context.Context, blockNum uint64) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blockKey(blockNum))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("block %d not found", blockNum)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read block %d: %w", blockNum, err)
	}
	return data, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
