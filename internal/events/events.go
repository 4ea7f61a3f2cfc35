// Package events publishes ledger domain events after a unit of work commits.
package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

type Type string

const (
	OrderPlaced        Type = "order.placed"
	OrderStatusChanged Type = "order.status_changed"
	WalletCredited     Type = "wallet.credited"
)

type Event struct {
	Type       Type        `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

func New(t Type, key string, payload interface{}) Event {
	return Event{
		Type:       t,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Emit publishes e and logs, rather than returns, any failure.
func Emit(ctx context.Context, p Publisher, log *zap.Logger, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		log.Warn("failed to publish event",
			zap.String("type", string(e.Type)),
			zap.String("key", e.Key),
			zap.Error(err))
	}
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
