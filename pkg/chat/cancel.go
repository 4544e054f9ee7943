package chat

import "sync/atomic"

// CancelToken is an advisory stop signal for one turn. The stream consumer
// polls it between packet batches; it never interrupts a read in progress.
type CancelToken struct {
	requested atomic.Bool
}

func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// RequestCancel asks the consumer to stop after the batch it is processing
func (t *CancelToken) RequestCancel() {
	t.requested.Store(true)
}

// Cancelled reports whether a cancel is pending
func (t *CancelToken) Cancelled() bool {
	return t.requested.Load()
}

// Consume reports whether a cancel was pending and clears it
func (t *CancelToken) Consume() bool {
	return t.requested.CompareAndSwap(true, false)
}
