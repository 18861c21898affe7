package blockstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRootOrderIndependent(t *testing.T) {
	a, err := AuditRoot([]string{"blockhash0", "blockhash1", "blockhash2"})
	require.NoError(t, err)

	b, err := AuditRoot([]string{"blockhash2", "blockhash0", "blockhash1"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestAuditRootChangesWithContent(t *testing.T) {
	a, err := AuditRoot([]string{"blockhash0"})
	require.NoError(t, err)

	b, err := AuditRoot([]string{"blockhash0", "blockhash1"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestAuditRootRejectsEmpty(t *testing.T) {
	_, err := AuditRoot(nil)
	assert.Error(t, err)
}
