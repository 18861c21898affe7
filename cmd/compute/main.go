package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/zenotta/compute/internal/api"
	"github.com/zenotta/compute/internal/blockstore"
	"github.com/zenotta/compute/internal/compute"
	"github.com/zenotta/compute/internal/orchestrator"
	"github.com/zenotta/compute/internal/pool"
	"github.com/zenotta/compute/internal/proposal"
	"github.com/zenotta/compute/internal/raftlog"
	"github.com/zenotta/compute/internal/security"
	"github.com/zenotta/compute/pkg/config"
)

func main() {
	configFile := flag.String("config", "./config/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := blockstore.NewBadgerStore(cfg.Storage.Path, cfg.Storage.Sync)
	if err != nil {
		log.Fatalf("Failed to initialize block store: %v", err)
	}
	defer store.Close()

	var archive *blockstore.ArchiveSink
	if cfg.Archive.Enabled {
		keyMgr, err := security.NewKeyManager()
		if err != nil {
			log.Fatalf("Failed to initialize security: %v", err)
		}
		archive, err = blockstore.NewArchiveSink(
			cfg.Archive.Endpoint,
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			cfg.Archive.Bucket,
			cfg.Archive.UseSSL,
			keyMgr,
			cfg.Security.EncryptArchive,
		)
		if err != nil {
			log.Fatalf("Failed to initialize archive sink: %v", err)
		}
	}

	adapter, err := newAdapter(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize consensus log adapter: %v", err)
	}
	defer adapter.Close()

	state := compute.NewState(compute.Params{
		ClusterSize:   cfg.Compute.ClusterSize(),
		BlockSizeInTx: cfg.Compute.BlockSizeInTx,
	})
	pools := pool.NewLocalPools()

	sink := &storageSink{store: store, archive: archive}

	orch := orchestrator.New(adapter, state, pools, sink, nil, orchestrator.Params{
		ProposerID:                         cfg.Compute.NodeIdx,
		ProposedTxPoolLenMax:               cfg.Compute.BlockSizeInTx / cfg.Compute.ClusterSize(),
		ProposedAndConsensusedTxPoolLenMax: cfg.Compute.TxPoolLimit,
		RaftTickInterval:                   cfg.Compute.RaftTickTimeout,
		TransactionProposeInterval:         cfg.Compute.TransactionTimeout,
	})
	sink.orch = orch

	if len(cfg.Compute.SeedUTXO) > 0 {
		seed := proposal.TxMap{}
		for _, hash := range cfg.Compute.SeedUTXO {
			seed[hash] = proposal.Transaction{Hash: hash}
		}
		if err := orch.ProposeFirstBlock(ctx, seed); err != nil {
			log.Printf("Failed to propose genesis UTXO set: %v", err)
		}
	}

	grpcServer := api.NewGRPCServer()
	go func() {
		if err := grpcServer.Serve(cfg.API.GRPCAddress); err != nil {
			log.Printf("gRPC health server error: %v", err)
		}
	}()
	defer grpcServer.Stop()

	statusServer := api.NewStatusServer(&statusProvider{orch: orch, state: state, pools: pools})
	go func() {
		if err := statusServer.Serve(cfg.API.StatusAddress); err != nil {
			log.Printf("Status server error: %v", err)
		}
	}()

	go orch.Run(ctx)

	grpcServer.SetServing(true)
	log.Printf("compute node %d (%s) up, run_id=%s", cfg.Compute.NodeIdx, cfg.Node.ID, orch.RunID())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	grpcServer.SetServing(false)
	cancel()
}

// newAdapter selects the single-node loopback adapter or the multi-node
// sequenced transport, depending on the configured cluster size.
func newAdapter(ctx context.Context, cfg *config.Config) (raftlog.Adapter, error) {
	if !cfg.Compute.RaftEnabled || cfg.Compute.ClusterSize() <= 1 {
		return raftlog.NewLoopback(), nil
	}

	nodeIdx := cfg.Compute.NodeIdx
	if int(nodeIdx) >= len(cfg.Compute.Nodes) {
		return nil, fmt.Errorf("node_idx %d out of range for %d configured nodes", nodeIdx, len(cfg.Compute.Nodes))
	}

	listenAddr := cfg.Compute.Nodes[nodeIdx].Address
	var peers []string
	for i, n := range cfg.Compute.Nodes {
		if uint64(i) != nodeIdx {
			peers = append(peers, n.Address)
		}
	}

	return raftlog.NewSequenced(ctx, listenAddr, nodeIdx, peers)
}

// storageSink stands in for the out-of-scope storage-node/miner
// collaborators in single-process dev and test deployments: it persists an
// assembled block directly, rather than handing it off over a wire
// interface, then reports the resulting BlockStoredInfo back to the
// orchestrator exactly as a real storage node would.
type storageSink struct {
	store   blockstore.Store
	archive *blockstore.ArchiveSink
	orch    *orchestrator.Orchestrator
}

func (s *storageSink) SubmitForMining(block *compute.Block, blockTx proposal.TxMap) {
	hash, err := block.Hash()
	if err != nil {
		log.Printf("storageSink: failed to hash block %d: %v", block.Header.BNum, err)
		return
	}

	data, err := rlp.EncodeToBytes(block)
	if err != nil {
		log.Printf("storageSink: failed to encode block %d: %v", block.Header.BNum, err)
		return
	}

	ctx := context.Background()
	info, err := s.store.PutBlock(ctx, block.Header.BNum, hash, data, blockTx.Sorted())
	if err != nil {
		log.Printf("storageSink: failed to persist block %d: %v", block.Header.BNum, err)
		return
	}

	if s.archive != nil {
		if err := s.archive.Archive(ctx, block.Header.BNum, data); err != nil {
			log.Printf("storageSink: failed to archive block %d: %v", block.Header.BNum, err)
		}
	}

	if s.orch != nil {
		s.orch.QueueBlockStoredInfo(info)
	}
}

// statusProvider adapts the orchestrator and consensused state to the
// operator status endpoint.
type statusProvider struct {
	orch  *orchestrator.Orchestrator
	state *compute.State
	pools *pool.LocalPools
}

func (p *statusProvider) Status() api.Status {
	snap := p.state.Snapshot()
	return api.Status{
		RunID:                p.orch.RunID(),
		BlockNum:             snap.BlockNum,
		UTXOLen:              snap.UTXOLen,
		LocalTxPoolLen:       p.pools.Len(),
		ProposedTxPoolLen:    p.orch.ProposedTxPoolLen(),
		ConsensusedTxPoolLen: snap.TxPoolLen,
	}
}
