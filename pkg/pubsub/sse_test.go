package pubsub

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestPublish_FanOutToAllSubscribers(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()

	first, err := p.Subscribe(context.Background(), TopicLayoutStatus)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	second, err := p.Subscribe(context.Background(), TopicLayoutStatus)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := p.Publish(TopicLayoutStatus, "status", LayoutStatus{State: "done"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	for i, sub := range []Subscription{first, second} {
		select {
		case event := <-sub.Events():
			if event.Type != "status" || event.Version != 1 {
				t.Errorf("Subscriber %d got %s v%d, want status v1", i, event.Type, event.Version)
			}
		default:
			t.Errorf("Subscriber %d received nothing", i)
		}
	}
}

func TestSubscribe_ReplayAllKeepsBufferWindow(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()
	p.ConfigureTopic(TopicPositions, TopicConfig{BufferSize: 3, ReplayAll: true})

	for i := 0; i < 5; i++ {
		if err := p.Publish(TopicPositions, "frame", PositionFrame{}); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	sub, err := p.Subscribe(context.Background(), TopicPositions)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// Ring buffer of 3: the late joiner sees versions 3, 4, 5.
	for _, want := range []int{3, 4, 5} {
		select {
		case event := <-sub.Events():
			if event.Version != want {
				t.Errorf("Replayed version %d, want %d", event.Version, want)
			}
		default:
			t.Fatalf("Missing replayed event v%d", want)
		}
	}
}

func TestSubscribe_ReplaysOnlyLatestByDefault(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()
	p.ConfigureTopic(TopicLayoutStatus, TopicConfig{BufferSize: 3, ReplayAll: false})

	for _, state := range []string{"resolving", "placing", "done"} {
		if err := p.Publish(TopicLayoutStatus, state, LayoutStatus{State: state}); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	sub, err := p.Subscribe(context.Background(), TopicLayoutStatus)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	select {
	case event := <-sub.Events():
		if event.Type != "done" {
			t.Errorf("Replayed %s, want only the latest event", event.Type)
		}
	default:
		t.Fatal("Expected the latest event replayed")
	}
	select {
	case event := <-sub.Events():
		t.Errorf("Unexpected extra replayed event %s v%d", event.Type, event.Version)
	default:
	}
}

func TestPublish_UnbufferedTopicSkipsReplay(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()

	if err := p.Publish(TopicLayoutStatus, "status", LayoutStatus{State: "done"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	sub, err := p.Subscribe(context.Background(), TopicLayoutStatus)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	select {
	case event := <-sub.Events():
		t.Errorf("Unbuffered topic replayed %s v%d", event.Type, event.Version)
	default:
	}
}

func TestClose_RejectsFurtherUse(t *testing.T) {
	p := NewSSEPublisher()
	sub, err := p.Subscribe(context.Background(), TopicLayoutStatus)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, open := <-sub.Events(); open {
		t.Errorf("Subscription channel still open after Close")
	}
	if err := p.Publish(TopicLayoutStatus, "status", nil); err == nil {
		t.Errorf("Publish after Close should fail")
	}
	if _, err := p.Subscribe(context.Background(), TopicLayoutStatus); err == nil {
		t.Errorf("Subscribe after Close should fail")
	}
	// Closing twice is harmless, as is closing an already-closed
	// subscription.
	if err := p.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Errorf("Closing a dead subscription failed: %v", err)
	}
}

func TestSubscriptionClose_StopsDelivery(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()

	sub, err := p.Subscribe(context.Background(), TopicLayoutStatus)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if sub.Topic() != TopicLayoutStatus {
		t.Errorf("Topic = %s, want %s", sub.Topic(), TopicLayoutStatus)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Publishing after the unsubscribe must not panic on the closed
	// channel.
	if err := p.Publish(TopicLayoutStatus, "status", LayoutStatus{State: "done"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
}

func TestWriteSSE_WireFormat(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicLayoutStatus, Type: "status", Data: []byte(`{"state":"done"}`), Version: 7}

	if err := WriteSSE(&buf, event); err != nil {
		t.Fatalf("WriteSSE failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "event: status\ndata: ") {
		t.Errorf("Unexpected frame prefix: %q", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Errorf("Frame must end with a blank line: %q", out)
	}
	if !strings.Contains(out, `"version":7`) {
		t.Errorf("Frame missing version: %q", out)
	}
}
