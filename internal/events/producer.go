// Package events publishes domain events (order placed, ticket opened, ...)
// to Kafka for downstream consumers. Publishing is best-effort.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	CustomerRegistered  = "customer.registered"
	CustomerReactivated = "customer.reactivated"
	CustomerDeactivated = "customer.deactivated"
	CustomerErased      = "customer.erased"
	CustomerDecided     = "customer.decided"
	OrderPlaced         = "order.placed"
	OrderDecided        = "order.decided"
	TicketOpened        = "ticket.opened"
	TicketMessage       = "ticket.message"
	TicketStatus        = "ticket.status"
	FeedbackSubmitted   = "feedback.submitted"
	FeedbackDecided     = "feedback.decided"
	ProductChanged      = "product.changed"
)

// Publisher is what services depend on, so tests can swap in Nop or a recorder.
type Publisher interface {
	Publish(ctx context.Context, event string, payload map[string]any)
}

// Producer writes events to a topic. With no brokers or topic it is a no-op.
type Producer struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewProducer(brokers []string, topic string, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	if len(brokers) == 0 || topic == "" {
		return &Producer{log: log}
	}
	return &Producer{
		log: log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, event string, payload map[string]any) {
	if p.writer == nil {
		return
	}
	msg := map[string]any{"event": event, "at": time.Now().UTC().Format(time.RFC3339)}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		p.log.Warn("events.marshal", zap.String("event", event), zap.Error(err))
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(event), Value: body}); err != nil {
		p.log.Warn("events.write", zap.String("event", event), zap.Error(err))
	}
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, string, map[string]any) {}
