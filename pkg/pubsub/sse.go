package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/voxgraph/layout-engine/pkg/logging"
)

// TopicConfig configures buffering behavior for a topic.
type TopicConfig struct {
	BufferSize int  // number of events to retain (0 = no buffering)
	ReplayAll  bool // replay the whole buffer to new subscribers, or just the last event
}

// SSEPublisher implements Publisher with buffered fan-out suitable for
// Server-Sent Events delivery.
type SSEPublisher struct {
	mu      sync.RWMutex
	subs    map[string]map[*sseSubscription]bool
	version map[string]int
	buffer  map[string][]Event
	topics  map[string]TopicConfig
	closed  bool
}

// NewSSEPublisher creates a new publisher.
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{
		subs:    make(map[string]map[*sseSubscription]bool),
		version: make(map[string]int),
		buffer:  make(map[string][]Event),
		topics:  make(map[string]TopicConfig),
	}
}

// ConfigureTopic sets buffering configuration for a topic.
func (p *SSEPublisher) ConfigureTopic(topic string, cfg TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics[topic] = cfg
}

// Subscribe creates a new subscription to a topic. Buffered events are
// replayed to the new subscriber according to the topic configuration.
func (p *SSEPublisher) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("publisher is closed")
	}

	sub := &sseSubscription{
		topic:     topic,
		events:    make(chan Event, 100), // buffered so publishers never block
		publisher: p,
	}
	if p.subs[topic] == nil {
		p.subs[topic] = make(map[*sseSubscription]bool)
	}
	p.subs[topic][sub] = true

	cfg := p.topics[topic]
	replay := make([]Event, len(p.buffer[topic]))
	copy(replay, p.buffer[topic])
	p.mu.Unlock()

	if len(replay) > 0 && !cfg.ReplayAll {
		replay = replay[len(replay)-1:]
	}
	for _, event := range replay {
		select {
		case sub.events <- event:
		default:
			logging.Warn("could not replay event to new subscriber", "topic", topic)
		}
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic. Delivery is
// non-blocking: a slow subscriber with a full channel drops events.
func (p *SSEPublisher) Publish(topic string, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.version[topic]++
	event := Event{
		Topic:   topic,
		Type:    eventType,
		Data:    jsonData,
		Version: p.version[topic],
	}

	if cfg := p.topics[topic]; cfg.BufferSize > 0 {
		buf := append(p.buffer[topic], event)
		if len(buf) > cfg.BufferSize {
			buf = buf[len(buf)-cfg.BufferSize:]
		}
		p.buffer[topic] = buf
	}

	for sub := range p.subs[topic] {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscription channel full, dropping event", "topic", topic)
		}
	}
	return nil
}

// Close shuts down the publisher and all subscriptions.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, subs := range p.subs {
		for sub := range subs {
			sub.markClosed()
			close(sub.events)
		}
	}
	p.subs = make(map[string]map[*sseSubscription]bool)
	return nil
}

func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if subs := p.subs[sub.topic]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(p.subs, sub.topic)
		}
	}
}

type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	closed    bool
	mu        sync.Mutex
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

func (s *sseSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.publisher.unsubscribe(s)
	close(s.events)
	return nil
}

// markClosed flags the subscription as closed without touching the
// channel; used by Publisher.Close which closes channels itself.
func (s *sseSubscription) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// WriteSSE writes an event to w in Server-Sent Events wire format.
func WriteSSE(w io.Writer, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
	return err
}
