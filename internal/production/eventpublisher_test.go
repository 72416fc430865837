package production

import (
	"context"
	"testing"
	"time"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/testutil"
)

func TestChannelPublisher_Delivery(t *testing.T) {
	p := NewChannelPublisher(16)
	in, err := hsm.NewInstance("p", testutil.Player(),
		hsm.WithInstanceDiagnostics(p, hsm.CategoryTransition))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := in.Evaluate("play"); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-p.Records():
		if got.Record.Category != hsm.CategoryTransition || got.Record.Instance != "p" {
			t.Errorf("record = %+v", got.Record)
		}
		if got.Timestamp.IsZero() {
			t.Error("record not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("no record published")
	}
}

func TestChannelPublisher_DropsWhenFull(t *testing.T) {
	p := NewChannelPublisher(1)
	p.Emit(hsm.Record{Message: "a"})
	p.Emit(hsm.Record{Message: "b"})
	p.Emit(hsm.Record{Message: "c"})

	if got := p.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
	if r := <-p.Records(); r.Record.Message != "a" {
		t.Errorf("kept %q, want the first record", r.Record.Message)
	}
}

func TestChannelPublisher_PublishContext(t *testing.T) {
	p := NewChannelPublisher(1)
	ctx := context.Background()
	if err := p.Publish(ctx, hsm.Record{Message: "a"}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := p.Publish(ctx, hsm.Record{Message: "b"}); err != context.DeadlineExceeded {
		t.Errorf("Publish() on full channel = %v", err)
	}
}

func TestChannelPublisher_Close(t *testing.T) {
	p := NewChannelPublisher(1)
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	_ = p.Close()
	p.Emit(hsm.Record{})
	if err := p.Publish(context.Background(), hsm.Record{}); err != ErrPublisherClosed {
		t.Errorf("Publish() after Close = %v", err)
	}
	if _, ok := <-p.Records(); ok {
		t.Error("channel should be closed")
	}
}
