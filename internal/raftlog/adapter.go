// Package raftlog wraps the replicated log the consensused state machine
// sits on top of. The underlying Raft implementation and wire transport are
// external collaborators, assumed to deliver a totally-ordered committed
// stream; this package owns only the adapter surface and its plumbing.
package raftlog

import "context"

// Adapter is the contract every consensus log implementation must satisfy,
// per spec §4.A.
type Adapter interface {
	// Propose enqueues a payload for replication. It returns once the
	// payload is accepted for proposing, not once it is committed.
	Propose(ctx context.Context, data []byte) error

	// NextCommit blocks until the next committed payload is available in
	// log order, or the adapter is closed (ok=false).
	NextCommit(ctx context.Context) (data []byte, ok bool)

	// Tick drives consensus-internal timers.
	Tick()

	// NextMsg returns the next outbound transport message to dispatch, or
	// ok=false if the adapter is closed.
	NextMsg(ctx context.Context) (msg []byte, ok bool)

	// ReceivedMessage delivers an inbound transport message from a peer.
	ReceivedMessage(msg []byte) error

	// IsFirstPeer reports whether this node is the designated first
	// proposer (compute_node_idx == 0, or always true in degenerate mode).
	IsFirstPeer() bool

	// PeersToConnect lists the peer addresses this node must dial.
	PeersToConnect() []string

	// Close shuts the adapter down; NextCommit and NextMsg subsequently
	// return ok=false.
	Close() error
}
