package upload

import (
	"context"
	"sync"
	"sync/atomic"

	"salesintake/internal/domain"
)

// Operation is one in-flight upload. Progress values are monotonic
// percentages; the channel closes once the operation reaches a terminal state.
type Operation struct {
	progress chan int
	done     chan struct{}
	cancel   context.CancelFunc
	percent  atomic.Int32

	mu     sync.Mutex
	result *domain.UploadResult
	err    error
}

func newOperation(cancel context.CancelFunc) *Operation {
	return &Operation{
		progress: make(chan int, 1),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
}

// Progress streams percentages in [0,100]. Slow readers see the latest value.
func (o *Operation) Progress() <-chan int {
	return o.progress
}

// Percent is the last reported percentage.
func (o *Operation) Percent() int {
	return int(o.percent.Load())
}

// Done is closed when the operation has finished.
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Wait blocks until the operation finishes.
func (o *Operation) Wait() (*domain.UploadResult, error) {
	<-o.done
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result, o.err
}

// Cancel aborts the transfer. It has no effect once the operation finished.
func (o *Operation) Cancel() {
	o.cancel()
}

// report publishes pct if it advances the operation. Only the operation's own
// goroutine calls report, so after draining a stale value the send cannot block.
func (o *Operation) report(pct int) {
	if pct > 100 {
		pct = 100
	}
	if int32(pct) <= o.percent.Load() {
		return
	}
	o.percent.Store(int32(pct))
	select {
	case o.progress <- pct:
	default:
		select {
		case <-o.progress:
		default:
		}
		o.progress <- pct
	}
}

func (o *Operation) finish(result *domain.UploadResult, err error) {
	o.mu.Lock()
	o.result, o.err = result, err
	o.mu.Unlock()
	close(o.progress)
	close(o.done)
	o.cancel()
}
