package extensibility

import (
	"context"
	"sync"
	"time"

	"github.com/comalice/hsm/internal/primitives"
)

// ChannelEventSource feeds events pushed with Send into a Machine.
type ChannelEventSource struct {
	ch   chan primitives.Event
	once sync.Once
}

// NewChannelEventSource creates a source backed by ch. Buffer ch if senders
// must not block on a busy machine.
func NewChannelEventSource(ch chan primitives.Event) *ChannelEventSource {
	return &ChannelEventSource{ch: ch}
}

// Events returns the receive-only channel for events.
func (s *ChannelEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// Send delivers ev or gives up when ctx is done.
func (s *ChannelEventSource) Send(ctx context.Context, ev primitives.Event) error {
	select {
	case s.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the channel. Further Sends panic.
func (s *ChannelEventSource) Close() {
	s.once.Do(func() { close(s.ch) })
}

// NewSliceEventSource returns a source that yields events in order and then
// closes.
func NewSliceEventSource(events ...primitives.Event) *ChannelEventSource {
	ch := make(chan primitives.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	s := NewChannelEventSource(ch)
	s.Close()
	return s
}

// TimerEventSource emits the same event periodically. Ticks are dropped while
// the buffer is full.
type TimerEventSource struct {
	ch     chan primitives.Event
	event  primitives.Event
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

// NewTimerEventSource starts emitting an eventType event every d.
func NewTimerEventSource(eventType string, data any, d time.Duration) *TimerEventSource {
	t := &TimerEventSource{
		ch:     make(chan primitives.Event, 10),
		event:  primitives.NewEvent(eventType, data),
		ticker: time.NewTicker(d),
		stop:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TimerEventSource) run() {
	defer close(t.ch)
	defer t.ticker.Stop()
	for {
		select {
		case <-t.ticker.C:
			select {
			case t.ch <- t.event:
			default:
			}
		case <-t.stop:
			return
		}
	}
}

// Events returns the event channel. It is closed after Stop.
func (t *TimerEventSource) Events() <-chan primitives.Event {
	return t.ch
}

// Stop stops the ticker. It is safe to call more than once.
func (t *TimerEventSource) Stop() {
	t.once.Do(func() { close(t.stop) })
}
