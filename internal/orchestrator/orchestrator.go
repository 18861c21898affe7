// Package orchestrator drives propose-timeouts, applies committed log
// entries to the consensused state, and emits CommittedItem signals to the
// surrounding node. It is the single execution context that mutates
// compute.State (spec §5): everything else reaches the state machine by
// sending it work over this event loop, never by touching it directly.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/zenotta/compute/internal/compute"
	"github.com/zenotta/compute/internal/pool"
	"github.com/zenotta/compute/internal/proposal"
	"github.com/zenotta/compute/internal/raftlog"
)

// Adapter is the subset of raftlog.Adapter the orchestrator drives.
type Adapter = raftlog.Adapter

// BlockSink receives assembled blocks for handoff to the (out-of-scope)
// miner. A nil sink is valid: the block is still assembled and retained on
// State, just not forwarded anywhere.
type BlockSink interface {
	SubmitForMining(block *compute.Block, blockTx proposal.TxMap)
}

// MessageTransport dispatches outbound consensus-transport messages. A nil
// transport is valid in single-node loopback mode, which never produces
// any.
type MessageTransport interface {
	Send(msg []byte) error
}

// Params configures an Orchestrator.
type Params struct {
	ProposerID                         uint64
	ProposedTxPoolLenMax               int
	ProposedAndConsensusedTxPoolLenMax int
	RaftTickInterval                   time.Duration
	TransactionProposeInterval         time.Duration
}

// Orchestrator is the event loop of §4.E.
type Orchestrator struct {
	adapter   Adapter
	state     *compute.State
	pools     *pool.LocalPools
	inFlight  *inFlight
	sink      BlockSink
	transport MessageTransport

	proposerID                         uint64
	proposedTxPoolLenMax               int
	proposedAndConsensusedTxPoolLenMax int
	raftTickInterval                   time.Duration
	txProposeInterval                  time.Duration

	runID string

	blockInfoQueue []proposal.BlockStoredInfo
	blockInfoReady chan struct{}
}

// New builds an Orchestrator. runID is minted once, here, and used to
// correlate every subsequent log line for this node's lifetime.
func New(adapter Adapter, state *compute.State, pools *pool.LocalPools, sink BlockSink, transport MessageTransport, p Params) *Orchestrator {
	return &Orchestrator{
		adapter:                            adapter,
		state:                              state,
		pools:                              pools,
		inFlight:                           newInFlight(),
		sink:                               sink,
		transport:                          transport,
		proposerID:                         p.ProposerID,
		proposedTxPoolLenMax:               p.ProposedTxPoolLenMax,
		proposedAndConsensusedTxPoolLenMax: p.ProposedAndConsensusedTxPoolLenMax,
		raftTickInterval:                   p.RaftTickInterval,
		txProposeInterval:                  p.TransactionProposeInterval,
		runID:                              uuid.New().String(),
		blockInfoReady:                     make(chan struct{}, 1),
	}
}

// RunID returns this node's log-correlation identifier.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// ProposeFirstBlock proposes the node's view of the genesis UTXO set. The
// surrounding node calls this once at startup, before genesis.
func (o *Orchestrator) ProposeFirstBlock(ctx context.Context, utxo proposal.TxMap) error {
	return o.proposeItem(ctx, proposal.NewFirstBlockItem(utxo))
}

// QueueBlockStoredInfo enqueues a storage-node report for later proposal as
// a Block item. Distinct from the periodic transaction-timer propose path:
// "storage told us block N is durable" is decoupled from "we propose that
// fact to the cluster" (see ProposeQueuedBlockInfo).
func (o *Orchestrator) QueueBlockStoredInfo(info proposal.BlockStoredInfo) {
	o.blockInfoQueue = append(o.blockInfoQueue, info)
	select {
	case o.blockInfoReady <- struct{}{}:
	default:
	}
}

// ProposeQueuedBlockInfo proposes the next queued BlockStoredInfo, if any.
func (o *Orchestrator) ProposeQueuedBlockInfo(ctx context.Context) error {
	if len(o.blockInfoQueue) == 0 {
		return nil
	}
	info := o.blockInfoQueue[0]
	o.blockInfoQueue = o.blockInfoQueue[1:]
	return o.proposeItem(ctx, proposal.NewBlockItem(info))
}

// Run is the event loop: it waits concurrently on the next commit, the
// raft tick timer, the transaction-propose timer, and queued block-info
// proposals, until ctx is cancelled or the adapter closes.
func (o *Orchestrator) Run(ctx context.Context) {
	commits := make(chan []byte)
	go func() {
		defer close(commits)
		for {
			data, ok := o.adapter.NextCommit(ctx)
			if !ok {
				return
			}
			select {
			case commits <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	if o.transport != nil {
		go func() {
			for {
				msg, ok := o.adapter.NextMsg(ctx)
				if !ok {
					return
				}
				if err := o.transport.Send(msg); err != nil {
					log.Printf("orchestrator[%s]: failed to send transport message: %v", o.runID, err)
				}
			}
		}()
	}

	tickTimer := time.NewTicker(nonZero(o.raftTickInterval, 200*time.Millisecond))
	defer tickTimer.Stop()

	proposeTimer := time.NewTicker(nonZero(o.txProposeInterval, 500*time.Millisecond))
	defer proposeTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case data, ok := <-commits:
			if !ok {
				return
			}
			o.applyCommit(ctx, data)

		case <-tickTimer.C:
			o.adapter.Tick()

		case <-proposeTimer.C:
			o.proposeLocalTransactions(ctx)

		case <-o.blockInfoReady:
			if err := o.ProposeQueuedBlockInfo(ctx); err != nil {
				log.Printf("orchestrator[%s]: failed to propose queued block info: %v", o.runID, err)
			}
		}
	}
}

// applyCommit implements §4.B: deserialize, clear in-flight bookkeeping,
// dispatch to the state machine, and react to its signal.
func (o *Orchestrator) applyCommit(ctx context.Context, data []byte) {
	envelope, err := proposal.Decode(data)
	if err != nil {
		log.Printf("orchestrator[%s]: dropping undecodable committed entry: %v", o.runID, err)
		return
	}

	o.inFlight.resolve(envelope.Key)

	signal, err := o.state.ReceivedCommit(envelope.Item, envelope.Key.ProposerID)
	if err != nil {
		log.Printf("orchestrator[%s]: error applying committed entry: %v", o.runID, err)
		return
	}

	switch signal {
	case compute.CommittedFirstBlock:
		block := o.state.GenerateFirstBlock()
		o.forwardForMining(block)
	case compute.CommittedBlock:
		block, err := o.state.GenerateBlock()
		if err != nil {
			log.Printf("orchestrator[%s]: failed to generate block: %v", o.runID, err)
			return
		}
		o.forwardForMining(block)
	}
}

func (o *Orchestrator) forwardForMining(block *compute.Block) {
	if o.sink == nil {
		return
	}
	_, blockTx := o.state.TakeMiningBlock()
	o.sink.SubmitForMining(block, blockTx)
}

// proposeLocalTransactions implements the periodic-propose algorithm of
// §4.C: compute how much headroom remains under the combined admission
// ceiling, take that many entries (lowest-key-first) from the local pool,
// and propose them; then drain and propose any staged DRUID droplets.
func (o *Orchestrator) proposeLocalTransactions(ctx context.Context) {
	inFlightLen := o.inFlight.proposedTxPoolLen()
	consensusedLen := o.state.ConsensusedTxPoolLen()

	maxAdd := o.proposedAndConsensusedTxPoolLenMax - (inFlightLen + consensusedLen)
	n := min(maxAdd, o.proposedTxPoolLenMax)

	if n > 0 {
		batch := o.pools.TakeFirstN(n)
		if len(batch) > 0 {
			if err := o.proposeItem(ctx, proposal.NewTransactionsItem(batch)); err != nil {
				log.Printf("orchestrator[%s]: failed to propose transactions: %v", o.runID, err)
			}
		}
	}

	if droplets := o.pools.DrainDruids(); len(droplets) > 0 {
		if err := o.proposeItem(ctx, proposal.NewDruidTransactionsItem(droplets)); err != nil {
			log.Printf("orchestrator[%s]: failed to propose druid transactions: %v", o.runID, err)
		}
	}
}

func (o *Orchestrator) proposeItem(ctx context.Context, item proposal.Item) error {
	key := o.inFlight.nextKey(o.proposerID)
	envelope := proposal.Envelope{Key: key, Item: item}

	data, err := proposal.Encode(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode proposal: %w", err)
	}

	o.inFlight.record(key, item)

	if err := o.adapter.Propose(ctx, data); err != nil {
		o.inFlight.resolve(key)
		return fmt.Errorf("failed to propose: %w", err)
	}
	return nil
}

// ProposedTxPoolLen reports the in-flight member of the (combined, local,
// in_flight, consensused) accounting tuple.
func (o *Orchestrator) ProposedTxPoolLen() int {
	return o.inFlight.proposedTxPoolLen()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func nonZero(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
