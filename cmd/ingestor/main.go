package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/samirrijal/witnessterrain/internal/adapters/csvimport"
	natsadapter "github.com/samirrijal/witnessterrain/internal/adapters/nats"
	"github.com/samirrijal/witnessterrain/internal/adapters/postgres"
	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/pkg/config"
	"github.com/samirrijal/witnessterrain/internal/pkg/logging"
)

// Loads chain ETL exports (gateway_inventory and challenge_receipts_parsed
// as CSV) into Postgres and queues newly inserted receipts for the featurizer.
func main() {
	gatewaysPath := flag.String("gateways", "", "gateway_inventory CSV export")
	receiptsPath := flag.String("receipts", "", "challenge_receipts_parsed CSV export")
	publish := flag.Bool("publish", true, "publish new receipts to NATS")
	flag.Parse()

	if *gatewaysPath == "" && *receiptsPath == "" {
		log.Fatal("usage: ingestor [-gateways file.csv] [-receipts file.csv] [-publish=false]")
	}

	cfg, err := config.Load("witnessterrain-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, "ingestor")

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	im := postgres.NewImporter(db)

	// Gateways first: receipts reference them.
	if *gatewaysPath != "" {
		if err := ingestGateways(ctx, im, *gatewaysPath); err != nil {
			log.Fatalf("gateways: %v", err)
		}
	}

	if *receiptsPath != "" {
		var pub *natsadapter.Publisher
		if *publish {
			pub, err = natsadapter.NewPublisher(cfg.NATS.URL)
			if err != nil {
				log.Fatalf("nats: %v", err)
			}
			defer pub.Close()
		}
		if err := ingestReceipts(ctx, im, pub, *receiptsPath); err != nil {
			log.Fatalf("receipts: %v", err)
		}
	}

	slog.Info("ingestion complete")
}

func ingestGateways(ctx context.Context, im *postgres.Importer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	batch := make([]domain.Gateway, 0, postgres.ImportBatchSize)
	total := 0
	flush := func() error {
		if err := im.UpsertGateways(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	skipped, err := csvimport.EachGateway(f, func(g domain.Gateway) error {
		batch = append(batch, g)
		if len(batch) == postgres.ImportBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}

	slog.Info("gateways loaded", "rows", total, "skipped", skipped, "took", time.Since(start).String())
	return nil
}

func ingestReceipts(ctx context.Context, im *postgres.Importer, pub *natsadapter.Publisher, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	batch := make([]domain.WitnessReceipt, 0, postgres.ImportBatchSize)
	var inserted, published int
	flush := func() error {
		fresh, err := im.InsertReceipts(ctx, batch)
		if err != nil {
			return err
		}
		inserted += len(fresh)
		batch = batch[:0]
		if pub == nil {
			return nil
		}
		for i := range fresh {
			if err := pub.PublishReceipt(ctx, &fresh[i]); err != nil {
				return fmt.Errorf("publish %s: %w", fresh[i].Key(), err)
			}
			published++
		}
		return nil
	}

	skipped, err := csvimport.EachReceipt(f, func(r domain.WitnessReceipt) error {
		batch = append(batch, r)
		if len(batch) == postgres.ImportBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}

	slog.Info("receipts loaded",
		"inserted", inserted, "published", published, "skipped", skipped,
		"took", time.Since(start).String())
	return nil
}
