package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"staffdesk.org/internal/obs"
)

// KafkaProducer appends messages to Kafka, one topic per call.
type KafkaProducer struct {
	writer *kafka.Writer
}

var _ Producer = (*KafkaProducer)(nil)

// NewKafkaProducer builds a producer for the given brokers.
func NewKafkaProducer(brokers []string) *KafkaProducer {
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish appends the payload and returns once the broker acknowledges
// receipt. Downstream delivery is not awaited.
func (p *KafkaProducer) Publish(ctx context.Context, payload []byte, topic ...string) error {
	msg := kafka.Message{
		Topic: pickTopic(topic),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("broker: publish to %s: %w", msg.Topic, err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// KafkaConsumer reads one fixed topic within the notification consumer group,
// starting from the earliest offset on first start.
type KafkaConsumer struct {
	reader *kafka.Reader
}

var _ Consumer = (*KafkaConsumer)(nil)

// NewKafkaConsumer builds the group consumer for the given topic.
func NewKafkaConsumer(brokers []string, topic string) *KafkaConsumer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			GroupID:     GroupID,
			Topic:       topic,
			StartOffset: kafka.FirstOffset,
			MinBytes:    1,
			MaxBytes:    1 << 20,
		}),
	}
}

// Run fetches and handles messages sequentially until the context ends. The
// offset is committed only after the handler returns nil, so a failed
// persistence step leaves the message uncommitted and it is redelivered after
// a rebalance. Handler failures are logged; the loop itself never stops on a
// bad message.
func (c *KafkaConsumer) Run(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("broker: fetch: %w", err)
		}

		if err := handler(ctx, msg.Value); err != nil {
			obs.LogEvent(map[string]any{
				"level":     "error",
				"msg":       "message handling failed, offset not committed",
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
				"error":     err.Error(),
			})
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			obs.LogEvent(map[string]any{
				"level":  "error",
				"msg":    "offset commit failed",
				"topic":  msg.Topic,
				"offset": msg.Offset,
				"error":  err.Error(),
			})
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
