package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := ensureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeReceipts delivers every parsed witness receipt to handler.
// Messages that can never succeed are terminated instead of redelivered.
func (s *Subscriber) SubscribeReceipts(ctx context.Context, handler func(ctx context.Context, receipt *domain.WitnessReceipt) error) error {
	sub, err := s.js.Subscribe(ReceiptSubjects, func(msg *nats.Msg) {
		var receipt domain.WitnessReceipt
		if err := json.Unmarshal(msg.Data, &receipt); err != nil {
			slog.Warn("malformed receipt message", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &receipt); err != nil {
			if isPermanent(err) {
				slog.Warn("dropping receipt", "receipt", receipt.Key().String(), "error", err)
				_ = msg.Term()
				return
			}
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(durableName),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrGatewayNotLocated) || errors.Is(err, domain.ErrNotFound)
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
