package raftlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackCommitsImmediatelyInFIFOOrder(t *testing.T) {
	l := NewLoopback()
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, l.Propose(ctx, []byte("first")))
	require.NoError(t, l.Propose(ctx, []byte("second")))

	data, ok := l.NextCommit(ctx)
	require.True(t, ok)
	assert.Equal(t, "first", string(data))

	data, ok = l.NextCommit(ctx)
	require.True(t, ok)
	assert.Equal(t, "second", string(data))
}

func TestLoopbackIsSingleMemberDegenerate(t *testing.T) {
	l := NewLoopback()
	defer l.Close()

	assert.True(t, l.IsFirstPeer())
	assert.Empty(t, l.PeersToConnect())
}

func TestLoopbackCloseUnblocksNextCommit(t *testing.T) {
	l := NewLoopback()

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		_, ok := l.NextCommit(ctx)
		assert.False(t, ok)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	l.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NextCommit did not unblock after Close")
	}
}
