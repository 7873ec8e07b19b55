package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/witnessterrain/internal/adapters/http"
	natsadapter "github.com/samirrijal/witnessterrain/internal/adapters/nats"
	"github.com/samirrijal/witnessterrain/internal/adapters/postgres"
	"github.com/samirrijal/witnessterrain/internal/adapters/raster"
	"github.com/samirrijal/witnessterrain/internal/adapters/valkey"
	"github.com/samirrijal/witnessterrain/internal/core/ports"
	"github.com/samirrijal/witnessterrain/internal/core/usecases"
	"github.com/samirrijal/witnessterrain/internal/pkg/config"
	"github.com/samirrijal/witnessterrain/internal/pkg/logging"
	"github.com/samirrijal/witnessterrain/internal/pkg/metrics"
	"github.com/samirrijal/witnessterrain/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("witnessterrain-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, "api")

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
	slog.Info("raster loaded", "path", cfg.Terrain.RasterPath, "bounds", dem.Bounds())

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Optional infrastructure stays a nil interface when unavailable.
	var (
		cache     ports.CacheService
		publisher ports.EventPublisher
	)
	vc, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	receipts := postgres.NewReceiptRepo(db)
	gateways := postgres.NewGatewayRepo(db)
	opts := usecases.OptionsFromConfig(cfg.Terrain)

	deps := &http.Dependencies{
		Features: usecases.NewFeatureService(dem, receipts, gateways, cache, publisher, opts),
		Receipts: usecases.NewReceiptService(receipts, cache, opts.CacheTTL),
		DB:       db,
		Cache:    vc,
		Version:  version,
	}
	if pub != nil {
		deps.NATS = pub.Conn()
	}

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    256 * 1024,
		AppName:      "Witness Terrain API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
