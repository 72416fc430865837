package production

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/comalice/hsm"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// PublishedRecord is a diagnostics record stamped with the time it was
// emitted.
type PublishedRecord struct {
	Record    hsm.Record
	Timestamp time.Time
}

// ChannelPublisher forwards diagnostics records to a channel. Emit never
// blocks evaluation: records are dropped while the channel is full.
type ChannelPublisher struct {
	ch      chan PublishedRecord
	dropped atomic.Int64
	mu      sync.RWMutex
	closed  bool
}

var _ hsm.Diagnostics = (*ChannelPublisher)(nil)

// NewChannelPublisher creates a publisher with a buffer of size records.
func NewChannelPublisher(size int) *ChannelPublisher {
	return &ChannelPublisher{ch: make(chan PublishedRecord, size)}
}

// Records returns the channel records are published on.
func (p *ChannelPublisher) Records() <-chan PublishedRecord {
	return p.ch
}

// Emit implements hsm.Diagnostics.
func (p *ChannelPublisher) Emit(r hsm.Record) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.ch <- PublishedRecord{Record: r, Timestamp: time.Now()}:
	default:
		p.dropped.Add(1)
	}
}

// Publish delivers r, waiting for room until ctx is done. Close waits for
// pending Publish calls.
func (p *ChannelPublisher) Publish(ctx context.Context, r hsm.Record) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.ch <- PublishedRecord{Record: r, Timestamp: time.Now()}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped returns how many records Emit discarded.
func (p *ChannelPublisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close closes the channel. Emit after Close is a no-op.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}
