package queue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
)

const (
	relayBuffer         = 256
	relayPublishTimeout = 5 * time.Second
)

// Publisher sends a JSON payload to an exchange.
// Satisfied by *Client; narrow interface for testability.
type Publisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error
}

// Envelope is the message body published for every order event.
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Order      order.Order `json:"order"`
}

// Relay forwards order store events to a topic exchange, routed by event
// type. Events are queued in memory so store writers never wait on the broker.
type Relay struct {
	pub      Publisher
	exchange string
	events   chan Envelope
	log      *zap.Logger
	now      func() time.Time
}

func NewRelay(pub Publisher, exchange string, log *zap.Logger) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{
		pub:      pub,
		exchange: exchange,
		events:   make(chan Envelope, relayBuffer),
		log:      log,
		now:      time.Now,
	}
}

// Listener returns an order.Listener that enqueues events for Run.
// When the buffer is full the event is dropped and logged.
func (r *Relay) Listener() order.Listener {
	return func(e order.Event) {
		env := Envelope{Type: e.Type, OccurredAt: r.now().UTC(), Order: e.Order}
		select {
		case r.events <- env:
		default:
			r.log.Warn("event relay buffer full, dropping event",
				zap.String("type", e.Type), zap.String("order_number", e.Order.OrderNumber))
		}
	}
}

// Run publishes queued events until ctx is cancelled. Publish failures are
// logged and the event is skipped.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-r.events:
			pubCtx, cancel := context.WithTimeout(ctx, relayPublishTimeout)
			err := r.pub.PublishJSON(pubCtx, r.exchange, env.Type, env)
			cancel()
			if err != nil {
				r.log.Error("publish order event",
					zap.String("type", env.Type),
					zap.String("order_number", env.Order.OrderNumber),
					zap.Error(err))
				continue
			}
			r.log.Debug("order event published", zap.String("type", env.Type), zap.String("order_number", env.Order.OrderNumber))
		}
	}
}
