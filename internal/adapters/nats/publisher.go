package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
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

	return &Publisher{conn: conn, js: js}, nil
}

// PublishFeatures emits a FeatureEvent on the receipt's terrain subject.
func (p *Publisher) PublishFeatures(ctx context.Context, key domain.ReceiptKey, features domain.FeatureSet) error {
	data, err := json.Marshal(domain.FeatureEvent{
		ReceiptKey: key,
		Features:   features,
		ComputedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(FeatureSubject(key.Hash), data, nats.Context(ctx))
	return err
}

// PublishReceipt queues a parsed receipt for featurization. The message ID
// makes JetStream drop duplicates of the same witness entry.
func (p *Publisher) PublishReceipt(ctx context.Context, rec *domain.WitnessReceipt) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ReceiptSubject(rec.Hash), data, nats.Context(ctx), nats.MsgId(rec.Key().String()))
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
