package raftlog

import (
	"context"
	"sync"
)

// Loopback is the single-node degenerate-mode adapter of spec §4.A: the
// cluster has one member, so propose must commit the payload immediately,
// in FIFO order. The same commit-application code path downstream handles
// N=1 without forking the block-assembly logic.
type Loopback struct {
	commits chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// NewLoopback returns a ready single-node adapter.
func NewLoopback() *Loopback {
	return &Loopback{
		commits: make(chan []byte, 256),
		closed:  make(chan struct{}),
	}
}

func (l *Loopback) Propose(ctx context.Context, data []byte) error {
	select {
	case l.commits <- data:
		return nil
	case <-l.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loopback) NextCommit(ctx context.Context) ([]byte, bool) {
	select {
	case data, ok := <-l.commits:
		return data, ok
	case <-l.closed:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// Tick is a no-op: a single-member log has no election or heartbeat timers.
func (l *Loopback) Tick() {}

// NextMsg never yields a transport message: there are no peers to talk to.
func (l *Loopback) NextMsg(ctx context.Context) ([]byte, bool) {
	select {
	case <-l.closed:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// ReceivedMessage is unreachable in loopback mode; it is a no-op so a
// misrouted call cannot panic the node.
func (l *Loopback) ReceivedMessage(msg []byte) error { return nil }

// IsFirstPeer is always true: the sole member is always the proposer.
func (l *Loopback) IsFirstPeer() bool { return true }

// PeersToConnect is always empty in loopback mode.
func (l *Loopback) PeersToConnect() []string { return nil }

func (l *Loopback) Close() error {
	l.closeOnce.Do(func() {
		close(l.closed)
	})
	return nil
}
