package proposal

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

// VoteHash is a content hash of a vote payload, used to key the
// accumulating block-stored-info map. Two nodes proposing identical
// logical payloads must produce identical hashes, so the payload is first
// serialized with the same canonical RLP codec used for the wire format
// before hashing with SHA3-256.
type VoteHash [32]byte

// HashUTXOSet computes the vote hash for a FirstBlock payload.
func HashUTXOSet(utxo TxMap) (VoteHash, error) {
	return hashRLP(utxo.Sorted())
}

// HashBlockStoredInfo computes the vote hash for a Block payload.
func HashBlockStoredInfo(info BlockStoredInfo) (VoteHash, error) {
	return hashRLP(info)
}

func hashRLP(v interface{}) (VoteHash, error) {
	data, err := rlp.EncodeToBytes(v)
	if err != nil {
		return VoteHash{}, fmt.Errorf("failed to encode vote payload: %w", err)
	}
	return VoteHash(sha3.Sum256(data)), nil
}
