package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zenotta/compute/internal/blockstore"
	"github.com/zenotta/compute/internal/compute"
	"github.com/zenotta/compute/internal/pool"
	"github.com/zenotta/compute/internal/proposal"
	"github.com/zenotta/compute/internal/raftlog"
	"github.com/zenotta/compute/pkg/config"
)

// TestEnvironment bundles the pieces package tests across the module
// assemble over and over: a temp dir, a config, a Badger-backed block
// store, a fresh consensused state, and a local staging pool.
type TestEnvironment struct {
	T       *testing.T
	TempDir string
	Config  *config.Config
	Store   *blockstore.BadgerStore
}

// NewTestEnvironment creates a new test environment backed by a real,
// temp-dir Badger store rather than a mock: package tests exercise the
// actual persistence path.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "compute-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Node.DataDir = tempDir
	cfg.Storage.Path = filepath.Join(tempDir, "data")

	store, err := blockstore.NewBadgerStore(cfg.Storage.Path, cfg.Storage.Sync)
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("failed to create block store: %v", err)
	}

	return &TestEnvironment{
		T:       t,
		TempDir: tempDir,
		Config:  cfg,
		Store:   store,
	}
}

// Close cleans up the test environment.
func (env *TestEnvironment) Close() {
	env.T.Helper()

	if env.Store != nil {
		if err := env.Store.Close(); err != nil {
			env.T.Logf("error closing store: %v", err)
		}
	}

	if env.TempDir != "" {
		if err := os.RemoveAll(env.TempDir); err != nil {
			env.T.Logf("error removing temp dir: %v", err)
		}
	}
}

// NewState builds a consensused state sized for clusterSize members.
func (env *TestEnvironment) NewState(clusterSize int) *compute.State {
	return compute.NewState(compute.Params{
		ClusterSize:   clusterSize,
		BlockSizeInTx: env.Config.Compute.BlockSizeInTx,
	})
}

// NewLocalPools builds an empty local staging area.
func (env *TestEnvironment) NewLocalPools() *pool.LocalPools {
	return pool.NewLocalPools()
}

// NewLoopbackAdapter builds a single-node degenerate consensus log adapter.
func (env *TestEnvironment) NewLoopbackAdapter() *raftlog.Loopback {
	return raftlog.NewLoopback()
}

// SeedTransactions builds a TxMap of transactions with no inputs, as a
// genesis UTXO set or test fixture.
func SeedTransactions(hashes ...string) proposal.TxMap {
	txs := proposal.TxMap{}
	for _, h := range hashes {
		txs[h] = proposal.Transaction{Hash: h}
	}
	return txs
}
