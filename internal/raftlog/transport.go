package raftlog

import (
	"context"
	"fmt"
	"log"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/multiformats/go-multiaddr"
)

const (
	proposeTopicName = "compute/propose/1.0.0"
	commitTopicName  = "compute/commit/1.0.0"
)

// Sequenced is the multi-node consensus log adapter: it wires the plumbing
// (a libp2p host, a propose topic and a commit topic) around an external
// ordering guarantee. Per spec §4.A the underlying Raft engine and wire
// transport are assumed to deliver a totally-ordered committed stream; this
// adapter does not re-derive that guarantee. It designates the first peer
// (nodeIdx == 0) as sequencer: every node publishes its proposals to the
// propose topic, the sequencer re-publishes each one, in receipt order, to
// the commit topic, and every node (including the sequencer) treats arrival
// on the commit topic as the committed log.
type Sequenced struct {
	host host.Host
	ps   *pubsub.PubSub

	proposeTopic *pubsub.Topic
	commitTopic  *pubsub.Topic
	commitSub    *pubsub.Subscription
	proposeSub   *pubsub.Subscription

	nodeIdx uint64
	peers   []string

	outbox chan []byte
	done   chan struct{}
}

// NewSequenced starts a libp2p host listening on listenAddr, joins the
// propose/commit topics, and dials the configured peers.
func NewSequenced(ctx context.Context, listenAddr string, nodeIdx uint64, peerAddrs []string) (*Sequenced, error) {
	h, err := libp2p.New(libp2p.ListenAddrStrings(listenAddr))
	if err != nil {
		return nil, fmt.Errorf("failed to create libp2p host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to create gossipsub router: %w", err)
	}

	proposeTopic, err := ps.Join(proposeTopicName)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to join propose topic: %w", err)
	}
	commitTopic, err := ps.Join(commitTopicName)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to join commit topic: %w", err)
	}

	proposeSub, err := proposeTopic.Subscribe()
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to subscribe to propose topic: %w", err)
	}
	commitSub, err := commitTopic.Subscribe()
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to subscribe to commit topic: %w", err)
	}

	s := &Sequenced{
		host:         h,
		ps:           ps,
		proposeTopic: proposeTopic,
		commitTopic:  commitTopic,
		commitSub:    commitSub,
		proposeSub:   proposeSub,
		nodeIdx:      nodeIdx,
		peers:        peerAddrs,
		outbox:       make(chan []byte, 256),
		done:         make(chan struct{}),
	}

	for _, addr := range peerAddrs {
		if err := s.dial(ctx, addr); err != nil {
			log.Printf("raftlog: failed to dial peer %q: %v", addr, err)
		}
	}

	if s.IsFirstPeer() {
		go s.sequence(ctx)
	}

	return s, nil
}

func (s *Sequenced) dial(ctx context.Context, addr string) error {
	maddr, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return fmt.Errorf("invalid peer address: %w", err)
	}
	info, err := peer.AddrInfoFromP2pAddr(maddr)
	if err != nil {
		return fmt.Errorf("failed to parse peer info: %w", err)
	}
	return s.host.Connect(ctx, *info)
}

// sequence runs only on the first peer: it re-publishes every proposal it
// receives, in the order it receives them, to the commit topic.
func (s *Sequenced) sequence(ctx context.Context) {
	for {
		msg, err := s.proposeSub.Next(ctx)
		if err != nil {
			return
		}
		if err := s.commitTopic.Publish(ctx, msg.Data); err != nil {
			log.Printf("raftlog: failed to publish committed entry: %v", err)
		}
	}
}

func (s *Sequenced) Propose(ctx context.Context, data []byte) error {
	return s.proposeTopic.Publish(ctx, data)
}

func (s *Sequenced) NextCommit(ctx context.Context) ([]byte, bool) {
	msg, err := s.commitSub.Next(ctx)
	if err != nil {
		return nil, false
	}
	return msg.Data, true
}

// Tick is a no-op here: tick-driven timers belong to the real Raft engine
// this adapter would sit in front of; the sequencer approximation above has
// none of its own.
func (s *Sequenced) Tick() {}

func (s *Sequenced) NextMsg(ctx context.Context) ([]byte, bool) {
	select {
	case msg, ok := <-s.outbox:
		return msg, ok
	case <-s.done:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

func (s *Sequenced) ReceivedMessage(msg []byte) error {
	select {
	case s.outbox <- msg:
		return nil
	default:
		return fmt.Errorf("raftlog: outbox full, dropping message")
	}
}

func (s *Sequenced) IsFirstPeer() bool { return s.nodeIdx == 0 }

func (s *Sequenced) PeersToConnect() []string { return s.peers }

func (s *Sequenced) Close() error {
	close(s.done)
	return s.host.Close()
}
