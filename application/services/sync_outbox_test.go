package services

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncOutbox_DrainWaitsForInFlightOp(t *testing.T) {
	o := newSyncOutbox()
	require.True(t, o.push(syncOp{kind: syncCreate, eventID: "a"}))
	_, ok := o.next()
	require.True(t, ok)
	assert.Equal(t, 1, o.pending())

	drained := make(chan error, 1)
	go func() { drained <- o.drain(context.Background()) }()

	select {
	case <-drained:
		t.Fatal("drain returned while an op was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	o.done()
	require.NoError(t, <-drained)
	assert.Zero(t, o.pending())
}

func TestSyncOutbox_TimedOutDrainsLeaveNoWaiters(t *testing.T) {
	o := newSyncOutbox()
	require.True(t, o.push(syncOp{kind: syncRename, eventID: "a"}))
	_, ok := o.next()
	require.True(t, ok)

	before := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		assert.ErrorIs(t, o.drain(ctx), context.DeadlineExceeded)
		cancel()
	}
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond)

	o.done()
	require.NoError(t, o.drain(context.Background()))
}

func TestSyncOutbox_ClosedRejectsPush(t *testing.T) {
	o := newSyncOutbox()
	o.close()
	assert.False(t, o.push(syncOp{kind: syncRemove, eventID: "a"}))

	_, ok := o.next()
	assert.False(t, ok)
}
