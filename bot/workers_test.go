package bot

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"linkkeeper/models"
	"linkkeeper/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// processorFunc adapts a function to MessageProcessor
type processorFunc func(ctx context.Context, msg models.InboundMessage) service.PipelineResult

func (f processorFunc) Process(ctx context.Context, msg models.InboundMessage) service.PipelineResult {
	return f(ctx, msg)
}

func testMessage(id int64) models.InboundMessage {
	return models.InboundMessage{
		MessageID: id,
		GuildID:   42,
		AuthorID:  100,
		Channel:   models.ChannelInfo{ID: 3, GuildID: 42},
	}
}

func TestMessageWorkers_BoundsConcurrency(t *testing.T) {
	const limit = 3
	const messages = 12

	var inFlight, maxInFlight, processed atomic.Int64
	release := make(chan struct{})

	workers := NewMessageWorkers(processorFunc(func(ctx context.Context, msg models.InboundMessage) service.PipelineResult {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		processed.Add(1)
		return service.PipelineResult{State: service.StateEmpty}
	}), limit)

	for i := int64(1); i <= messages; i++ {
		require.True(t, workers.Submit(testMessage(i)))
	}

	require.Eventually(t, func() bool { return inFlight.Load() == limit }, time.Second, 5*time.Millisecond)
	close(release)

	require.NoError(t, workers.Stop(context.Background()))
	assert.Equal(t, int64(messages), processed.Load())
	assert.LessOrEqual(t, maxInFlight.Load(), int64(limit))
}

func TestMessageWorkers_RecoversPanics(t *testing.T) {
	var mu sync.Mutex
	var seen []int64

	workers := NewMessageWorkers(processorFunc(func(ctx context.Context, msg models.InboundMessage) service.PipelineResult {
		if msg.MessageID == 1 {
			panic("boom")
		}
		mu.Lock()
		seen = append(seen, msg.MessageID)
		mu.Unlock()
		return service.PipelineResult{State: service.StateEmpty}
	}), 1)

	workers.Submit(testMessage(1))
	workers.Submit(testMessage(2))

	require.NoError(t, workers.Stop(context.Background()))
	assert.Equal(t, []int64{2}, seen)
}

func TestMessageWorkers_RejectsAfterStop(t *testing.T) {
	workers := NewMessageWorkers(processorFunc(func(ctx context.Context, msg models.InboundMessage) service.PipelineResult {
		return service.PipelineResult{}
	}), 2)

	require.NoError(t, workers.Stop(context.Background()))
	assert.False(t, workers.Submit(testMessage(1)))
}

func TestMessageWorkers_StopTimeoutCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	workers := NewMessageWorkers(processorFunc(func(ctx context.Context, msg models.InboundMessage) service.PipelineResult {
		close(started)
		<-ctx.Done()
		return service.PipelineResult{}
	}), 1)

	workers.Submit(testMessage(1))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := workers.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
