package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/witnessterrain/internal/adapters/nats"
	"github.com/samirrijal/witnessterrain/internal/adapters/postgres"
	"github.com/samirrijal/witnessterrain/internal/adapters/raster"
	"github.com/samirrijal/witnessterrain/internal/adapters/valkey"
	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/core/ports"
	"github.com/samirrijal/witnessterrain/internal/core/usecases"
	"github.com/samirrijal/witnessterrain/internal/pkg/config"
	"github.com/samirrijal/witnessterrain/internal/pkg/logging"
	"github.com/samirrijal/witnessterrain/internal/pkg/telemetry"
)

// receiptTimeout bounds one featurization, including the database write.
const receiptTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load("witnessterrain-featurizer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, "featurizer")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	dem, err := raster.LoadHGT(cfg.Terrain.RasterPath)
	if err != nil {
		log.Fatalf("raster: %v", err)
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, receipt cache not invalidated", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	svc := usecases.NewFeatureService(
		dem,
		postgres.NewReceiptRepo(db),
		postgres.NewGatewayRepo(db),
		cache,
		pub,
		usecases.OptionsFromConfig(cfg.Terrain),
	)

	err = sub.SubscribeReceipts(ctx, func(ctx context.Context, rec *domain.WitnessReceipt) error {
		rctx, rcancel := context.WithTimeout(ctx, receiptTimeout)
		defer rcancel()
		if err := svc.ProcessReceipt(rctx, rec); err != nil {
			slog.Error("featurize receipt", "receipt", rec.Key().String(), "error", err)
			return err
		}
		slog.Debug("receipt featurized", "receipt", rec.Key().String())
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	slog.Info("featurizer started", "subjects", natsadapter.ReceiptSubjects)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutting down", "signal", sig.String())
}
