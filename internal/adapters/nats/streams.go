package natsadapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// ReceiptSubjects carries parsed witness receipts from the chain ETL.
	ReceiptSubjects = "witness.receipts.>"
	// FeatureSubjects carries computed terrain features.
	FeatureSubjects = "witness.terrain.>"

	receiptPrefix = "witness.receipts."
	featurePrefix = "witness.terrain."
	durableName   = "terrain-featurizer"
)

var streams = []nats.StreamConfig{
	{
		Name:      "WITNESS_RECEIPTS",
		Subjects:  []string{ReceiptSubjects},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    72 * time.Hour,
		Storage:   nats.FileStorage,
	},
	{
		Name:      "WITNESS_TERRAIN",
		Subjects:  []string{FeatureSubjects},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	},
}

// subjectToken strips characters NATS reserves inside a subject token.
var subjectToken = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

// FeatureSubject returns the subject features of a receipt are published on.
func FeatureSubject(hash string) string {
	return featurePrefix + subjectToken.Replace(hash)
}

// ReceiptSubject returns the subject a parsed receipt is published on.
func ReceiptSubject(hash string) string {
	return receiptPrefix + subjectToken.Replace(hash)
}

func connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

func ensureStreams(js nats.JetStreamContext) error {
	for _, cfg := range streams {
		cfg := cfg
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return connect(url)
}
