package blockstore

import (
	"fmt"

	"github.com/zenotta/compute/pkg/merkle"
)

// AuditRoot computes a Merkle root over a set of finalized block hashes,
// so an operator can spot-check that the local store and the archival sink
// agree on the same history without downloading every block.
func AuditRoot(blockHashes []string) (string, error) {
	tree, err := merkle.NewTreeFromHashes(blockHashes)
	if err != nil {
		return "", fmt.Errorf("failed to build audit tree: %w", err)
	}
	return tree.RootHash(), nil
}
