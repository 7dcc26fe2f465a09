package broker

import (
	"context"
	"sync"

	"staffdesk.org/internal/obs"
)

// Memory is an in-process broker used in tests and broker-less development.
// Topics retain their full history, so a consumer attached after publication
// still reads from the beginning, mirroring the Kafka read-from-earliest
// configuration. Delivery is best-effort: a failed handler is logged and the
// cursor advances regardless.
type Memory struct {
	mu   sync.Mutex
	logs map[string][][]byte
	subs []*memorySub
}

type memorySub struct {
	topic string
	wake  chan struct{}
}

var _ Producer = (*Memory)(nil)

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{logs: make(map[string][][]byte)}
}

func (m *Memory) Publish(_ context.Context, payload []byte, topic ...string) error {
	t := pickTopic(topic)
	m.mu.Lock()
	m.logs[t] = append(m.logs[t], payload)
	subs := make([]*memorySub, 0, len(m.subs))
	for _, s := range m.subs {
		if s.topic == t {
			subs = append(subs, s)
		}
	}
	m.mu.Unlock()

	for _, s := range subs {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
	return nil
}

// Consumer returns a sequential consumer over one topic.
func (m *Memory) Consumer(topic string) Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &MemoryConsumer{bus: m, topic: topic}
}

// MemoryConsumer replays the retained log and then follows live publications,
// one message fully handled before the next is read.
type MemoryConsumer struct {
	bus    *Memory
	topic  string
	cursor int
}

var _ Consumer = (*MemoryConsumer)(nil)

// Run processes messages until the context ends.
func (c *MemoryConsumer) Run(ctx context.Context, handler Handler) error {
	sub := &memorySub{topic: c.topic, wake: make(chan struct{}, 1)}
	c.bus.mu.Lock()
	c.bus.subs = append(c.bus.subs, sub)
	c.bus.mu.Unlock()
	defer c.bus.remove(sub)

	for {
		if value, ok := c.next(); ok {
			if err := handler(ctx, value); err != nil {
				obs.LogEvent(map[string]any{
					"level": "error",
					"msg":   "message handling failed",
					"topic": c.topic,
					"error": err.Error(),
				})
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-sub.wake:
		}
	}
}

// Drain synchronously handles every retained message not yet consumed.
// Only intended for tests that want "run the consumer once" semantics.
func (c *MemoryConsumer) Drain(ctx context.Context, handler Handler) {
	for {
		value, ok := c.next()
		if !ok {
			return
		}
		if err := handler(ctx, value); err != nil {
			obs.LogEvent(map[string]any{
				"level": "error",
				"msg":   "message handling failed",
				"topic": c.topic,
				"error": err.Error(),
			})
		}
	}
}

func (c *MemoryConsumer) next() ([]byte, bool) {
	c.bus.mu.Lock()
	defer c.bus.mu.Unlock()
	log := c.bus.logs[c.topic]
	if c.cursor >= len(log) {
		return nil, false
	}
	value := log[c.cursor]
	c.cursor++
	return value, true
}

func (m *Memory) remove(target *memorySub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	filtered := m.subs[:0]
	for _, s := range m.subs {
		if s != target {
			filtered = append(filtered, s)
		}
	}
	m.subs = filtered
}
