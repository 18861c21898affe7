package proposal

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// Encode serializes an envelope using RLP: length-prefixed, sorted-key-map
// (via TxMap.Sorted) encoding that is byte-identical across nodes and
// versions, as required for vote hashing.
func Encode(e Envelope) ([]byte, error) {
	data, err := rlp.EncodeToBytes(&e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proposal envelope: %w", err)
	}
	return data, nil
}

// Decode deserializes bytes produced by Encode. Callers must treat a
// non-nil error as an untrusted or foreign payload: log it and drop the
// entry rather than halting the node.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := rlp.DecodeBytes(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode proposal envelope: %w", err)
	}
	return e, nil
}
