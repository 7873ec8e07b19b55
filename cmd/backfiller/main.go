package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/witnessterrain/internal/adapters/postgres"
	"github.com/samirrijal/witnessterrain/internal/adapters/raster"
	"github.com/samirrijal/witnessterrain/internal/core/usecases"
	"github.com/samirrijal/witnessterrain/internal/pkg/config"
	"github.com/samirrijal/witnessterrain/internal/pkg/logging"
	"github.com/samirrijal/witnessterrain/internal/workflows"
)

func main() {
	start := flag.Bool("start", false, "start a backfill workflow run before serving")
	batchSize := flag.Int("batch", 500, "receipts per activity")
	flag.Parse()

	cfg, err := config.Load("witnessterrain-backfiller")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, "backfiller")

	ctx := context.Background()

	dem, err := raster.LoadHGT(cfg.Terrain.RasterPath)
	if err != nil {
		log.Fatalf("raster: %v", err)
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	receipts := postgres.NewReceiptRepo(db)
	opts := usecases.OptionsFromConfig(cfg.Terrain)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 2,
	})
	w.RegisterWorkflow(workflows.BackfillWorkflow)
	w.RegisterActivity(&workflows.BackfillActivities{
		Features: usecases.NewFeatureService(dem, receipts, postgres.NewGatewayRepo(db), nil, nil, opts),
		Receipts: usecases.NewReceiptService(receipts, nil, 0),
	})

	if *start {
		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        "terrain-backfill",
			TaskQueue: cfg.Temporal.TaskQueue,
		}, workflows.BackfillWorkflow, workflows.BackfillInput{BatchSize: *batchSize})
		if err != nil {
			log.Fatalf("start workflow: %v", err)
		}
		slog.Info("backfill workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
	}

	slog.Info("backfill worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
