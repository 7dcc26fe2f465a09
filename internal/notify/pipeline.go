package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staffdesk.org/internal/broker"
	"staffdesk.org/internal/obs"
)

const defaultStoreTimeout = 5 * time.Second

// Pipeline is the broker handler for the notification subscription: decode,
// persist, dispatch; strictly in that order, one message at a time.
type Pipeline struct {
	store        Store
	dispatcher   *Dispatcher
	storeTimeout time.Duration
	now          func() time.Time
}

// PipelineOption configures Pipeline behavior.
type PipelineOption func(*Pipeline)

// WithStoreTimeout bounds each persistence call. An unresponsive store then
// fails the message instead of stalling the subscription forever.
func WithStoreTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.storeTimeout = d
		}
	}
}

// WithClock overrides the time source. Only intended for test use.
func WithClock(fn func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		if fn != nil {
			p.now = fn
		}
	}
}

// NewPipeline builds the consumer pipeline.
func NewPipeline(store Store, dispatcher *Dispatcher, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:        store,
		dispatcher:   dispatcher,
		storeTimeout: defaultStoreTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle processes one raw broker message.
//
// An invalid message (empty or undecodable payload) is logged and consumed:
// redelivering it could never succeed, so returning nil lets the offset
// advance past the poison message. A persistence failure returns an error so
// the offset is NOT committed and the broker redelivers; Create is idempotent
// on the record id, so a replay after a partial failure cannot duplicate the
// record. Dispatch failures never fail the message.
func (p *Pipeline) Handle(ctx context.Context, value []byte) error {
	msg, err := broker.Decode(value)
	if err != nil {
		obs.MessageConsumed("invalid")
		obs.LogEvent(map[string]any{
			"level": "warn",
			"msg":   "invalid broker message skipped",
			"error": err.Error(),
		})
		return nil
	}
	if msg.UserID == "" {
		obs.MessageConsumed("invalid")
		obs.LogEvent(map[string]any{
			"level": "warn",
			"msg":   "broker message without target user skipped",
			"type":  msg.Type,
		})
		return nil
	}

	rec := Record{
		ID:        RecordID(value),
		Type:      msg.Type,
		Details:   msg.Message,
		UserID:    msg.UserID,
		CreatedAt: p.now().UTC(),
	}

	storeCtx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	err = p.store.Create(storeCtx, &rec)
	cancel()
	if err != nil {
		obs.MessageConsumed("failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("notify: persist timed out: %w", err)
		}
		return fmt.Errorf("notify: persist record: %w", err)
	}
	obs.NotificationPersisted()

	p.dispatcher.Dispatch(Event{Type: msg.Type, UserID: msg.UserID, Message: msg.Message})
	obs.MessageConsumed("ok")
	return nil
}
