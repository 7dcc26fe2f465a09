package broker

import (
	"context"
	"encoding/json"
	"errors"
)

const (
	// DefaultTopic carries notification events from business actions to the
	// consumer pipeline.
	DefaultTopic = "notification-topic"
	// GroupID is the consumer group for the notification subscription.
	GroupID = "notification-grp"
)

// ErrInvalidMessage marks a broker message that carries no payload or does not
// decode. The consumer loop logs and skips such messages; it never halts.
var ErrInvalidMessage = errors.New("broker: invalid message")

// Message is the wire schema on the notification topic.
type Message struct {
	Type    string          `json:"type"`
	UserID  string          `json:"userId"`
	Message json.RawMessage `json:"message"`
}

// Encode serializes a message for publication.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses a raw broker payload. An empty payload or malformed JSON is
// an ErrInvalidMessage.
func Decode(value []byte) (Message, error) {
	if len(value) == 0 {
		return Message{}, ErrInvalidMessage
	}
	var m Message
	if err := json.Unmarshal(value, &m); err != nil {
		return Message{}, ErrInvalidMessage
	}
	return m, nil
}

// Producer appends payloads to a topic. The returned error only reflects
// broker receipt, never downstream delivery. When topic is omitted the
// default topic is used.
type Producer interface {
	Publish(ctx context.Context, payload []byte, topic ...string) error
}

// Handler processes one consumed message. A nil return acknowledges the
// message; a non-nil return withholds the acknowledgment so the broker may
// redeliver it.
type Handler func(ctx context.Context, value []byte) error

// Consumer runs a long-lived, strictly sequential subscription loop: one
// message is fully handled before the next is read.
type Consumer interface {
	Run(ctx context.Context, handler Handler) error
}

func pickTopic(topic []string) string {
	if len(topic) > 0 && topic[0] != "" {
		return topic[0]
	}
	return DefaultTopic
}

// WithTopic pins a producer to one topic, overriding whatever the callers
// pass. Used when the topic name comes from configuration.
func WithTopic(p Producer, topic string) Producer {
	if topic == "" || topic == DefaultTopic {
		return p
	}
	return topicProducer{p: p, topic: topic}
}

type topicProducer struct {
	p     Producer
	topic string
}

func (t topicProducer) Publish(ctx context.Context, payload []byte, _ ...string) error {
	return t.p.Publish(ctx, payload, t.topic)
}
