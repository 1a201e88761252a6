package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"linkkeeper/infrastructure/observability"
	"linkkeeper/models"
	"linkkeeper/service"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// MessageProcessor runs a single message through the archive pipeline
type MessageProcessor interface {
	Process(ctx context.Context, msg models.InboundMessage) service.PipelineResult
}

// MessageWorkers processes inbound messages concurrently, one goroutine per
// message, with at most limit messages in the pipeline at a time
type MessageWorkers struct {
	processor MessageProcessor
	sem       *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewMessageWorkers creates a worker pool
func NewMessageWorkers(processor MessageProcessor, limit int64) *MessageWorkers {
	if limit < 1 {
		limit = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MessageWorkers{
		processor: processor,
		sem:       semaphore.NewWeighted(limit),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Submit schedules msg for processing. It never blocks and reports false
// once the pool is stopping.
func (w *MessageWorkers) Submit(msg models.InboundMessage) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return false
	}

	w.wg.Add(1)
	go w.run(msg)
	return true
}

func (w *MessageWorkers) run(msg models.InboundMessage) {
	defer w.wg.Done()

	if err := w.sem.Acquire(w.ctx, 1); err != nil {
		log.WithFields(log.Fields{
			"guild_id":   msg.GuildID,
			"message_id": msg.MessageID,
		}).Warn("Dropping message, worker pool is shutting down")
		return
	}
	defer w.sem.Release(1)

	result, err := w.process(msg)
	if err != nil {
		log.WithFields(log.Fields{
			"guild_id":   msg.GuildID,
			"channel_id": msg.Channel.ID,
			"message_id": msg.MessageID,
			"permalink":  msg.Permalink,
			"error":      err,
		}).Error("Message processing failed")
		return
	}

	metrics := observability.GetMetrics()
	metrics.RecordMessageProcessed(string(result.State), result.Reason)
	if result.State == service.StateDispatched {
		metrics.RecordAttachmentUploads(result.Outcome.Uploaded, result.Outcome.FailedUploads)
	}
}

// process runs the pipeline, turning a panic into an error so one message
// never takes the process down
func (w *MessageWorkers) process(msg models.InboundMessage) (result service.PipelineResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing message: %v\n%s", r, debug.Stack())
		}
	}()

	return w.processor.Process(w.ctx, msg), nil
}

// Stop refuses new messages and waits for in-flight ones to finish. When ctx
// expires first, in-flight work is cancelled and ctx's error is returned.
func (w *MessageWorkers) Stop(ctx context.Context) error {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		<-done
		return ctx.Err()
	}
}
