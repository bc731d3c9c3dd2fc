package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/midway/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber creates a subscriber. durable names the consumer; leave it
// empty for an ephemeral one that only sees new messages.
func NewSubscriber(url, durable string) (*Subscriber, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeMeetingPoints delivers every resolved meeting point to handler.
// A handler error naks the message so it is redelivered, up to three times.
func (s *Subscriber) SubscribeMeetingPoints(ctx context.Context, handler func(ctx context.Context, sessionID string, result *domain.MeetingPointResult) error) error {
	opts := []nats.SubOpt{
		nats.ManualAck(),
		nats.MaxDeliver(3),
		nats.BindStream(StreamName),
	}
	if s.durable != "" {
		opts = append(opts, nats.Durable(s.durable))
	} else {
		opts = append(opts, nats.DeliverNew())
	}

	sub, err := s.js.Subscribe(SubjectPrefix+"*.resolved", func(msg *nats.Msg) {
		sessionID, ok := SessionFromSubject(msg.Subject)
		if !ok {
			_ = msg.Term()
			return
		}
		var result domain.MeetingPointResult
		if err := json.Unmarshal(msg.Data, &result); err != nil {
			slog.Warn("discarding malformed meeting point", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, sessionID, &result); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}, opts...)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
