package compute

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

// BlockHeader carries the fields set by the block-assembly algorithm.
// Time is deliberately derived from BNum, not wall-clock time: see
// generateBlock for the reasoning the original source encodes.
type BlockHeader struct {
	PreviousHash string
	BNum         uint64
	Time         uint32
}

// Block is the assembled, not-yet-mined block: a header plus the sorted
// hashes of the transactions it contains.
type Block struct {
	Header       BlockHeader
	Transactions []string
}

// CommittedItem is the signal the state machine emits to the orchestrator
// after applying a committed entry.
type CommittedItem int

const (
	CommittedNone CommittedItem = iota
	CommittedFirstBlock
	CommittedTransactions
	CommittedBlock
)

// Hash computes a content hash over the block's header and transaction set,
// using the same canonical RLP + SHA3-256 pipeline as vote hashing. In
// production this stands in only until the (out-of-scope) miner assigns the
// block's real, PoW-sealed hash; it exists so a local dev/test storage sink
// has something to key blocks by.
func (b *Block) Hash() (string, error) {
	data, err := rlp.EncodeToBytes(b)
	if err != nil {
		return "", fmt.Errorf("failed to encode block for hashing: %w", err)
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (c CommittedItem) String() string {
	switch c {
	case CommittedFirstBlock:
		return "FirstBlock"
	case CommittedTransactions:
		return "Transactions"
	case CommittedBlock:
		return "Block"
	default:
		return "None"
	}
}
