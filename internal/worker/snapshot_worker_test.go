package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (c *countingRefresher) RefreshSnapshot(ctx context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestSnapshotWorkerRefreshesImmediatelyAndOnTick(t *testing.T) {
	refresher := &countingRefresher{}
	w := NewSnapshotWorker(refresher, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return refresher.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
