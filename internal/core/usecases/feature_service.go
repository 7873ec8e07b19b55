package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/core/ports"
	"github.com/samirrijal/witnessterrain/internal/core/terrain"
	"github.com/samirrijal/witnessterrain/internal/pkg/config"
	"github.com/samirrijal/witnessterrain/internal/pkg/geospatial"
	"github.com/samirrijal/witnessterrain/internal/pkg/metrics"
	"github.com/samirrijal/witnessterrain/internal/pkg/telemetry"
)

// ErrInvalidPath is returned for coordinates or heights that cannot describe a link.
var ErrInvalidPath = errors.New("invalid path")

// FeatureOptions configures a FeatureService.
type FeatureOptions struct {
	Profile  terrain.ProfileOptions
	CacheTTL int // seconds
	Workers  int
}

// OptionsFromConfig maps the terrain configuration section onto FeatureOptions.
func OptionsFromConfig(c config.TerrainConfig) FeatureOptions {
	return FeatureOptions{
		Profile: terrain.ProfileOptions{
			StepKm:         c.StepKm,
			MaxSamples:     c.MaxSamples,
			WindowMarginKm: c.WindowMarginKm,
		},
		CacheTTL: c.CacheTTL,
		Workers:  c.Workers,
	}
}

// FeatureService computes terrain features for paths and witness receipts.
type FeatureService struct {
	raster    ports.ElevationRaster
	receipts  ports.ReceiptRepository
	gateways  ports.GatewayRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	opts      FeatureOptions
}

// NewFeatureService creates a new FeatureService. cache and publisher may be nil.
func NewFeatureService(
	raster ports.ElevationRaster,
	receipts ports.ReceiptRepository,
	gateways ports.GatewayRepository,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	opts FeatureOptions,
) *FeatureService {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &FeatureService{
		raster:    raster,
		receipts:  receipts,
		gateways:  gateways,
		cache:     cache,
		publisher: publisher,
		opts:      opts,
	}
}

// ValidatePath checks coordinates and heights and fills a missing distance
// with the haversine distance between the endpoints.
func ValidatePath(req domain.PathRequest) (domain.PathRequest, error) {
	for _, p := range []domain.GeoPoint{req.Origin, req.Destination} {
		if !finite(p.Lat) || !finite(p.Lon) || math.Abs(p.Lat) > 90 || math.Abs(p.Lon) > 180 {
			return req, fmt.Errorf("%w: coordinate (%g, %g) out of range", ErrInvalidPath, p.Lat, p.Lon)
		}
	}
	if !finite(req.OriginHeight) || !finite(req.DestinationHeight) {
		return req, fmt.Errorf("%w: antenna heights must be finite", ErrInvalidPath)
	}
	if !finite(req.DistanceKm) || req.DistanceKm < 0 {
		return req, fmt.Errorf("%w: distance must be a non-negative number", ErrInvalidPath)
	}
	if req.DistanceKm == 0 {
		req.DistanceKm = geospatial.HaversineKm(req.Origin.Lat, req.Origin.Lon, req.Destination.Lat, req.Destination.Lon)
	}
	return req, nil
}

// ComputePath returns the features of an arbitrary link, read through the cache.
func (s *FeatureService) ComputePath(ctx context.Context, req domain.PathRequest) (domain.FeatureSet, error) {
	req, err := ValidatePath(req)
	if err != nil {
		return domain.FeatureSet{}, err
	}

	cacheKey := pathCacheKey(req)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var f domain.FeatureSet
			if err := json.Unmarshal(data, &f); err == nil {
				metrics.CacheHits.WithLabelValues("path").Inc()
				return f, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("path").Inc()
	}

	f, err := s.compute(ctx, req)
	if err != nil {
		return domain.FeatureSet{}, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(f); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.opts.CacheTTL)
		}
	}
	return f, nil
}

// Profile returns the sampled and leveled profile of a link. Leveled values
// are omitted when the profile is too short to fit a baseline.
func (s *FeatureService) Profile(ctx context.Context, req domain.PathRequest) (*domain.ProfileReport, error) {
	req, err := ValidatePath(req)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, "terrain.Profile")
	defer span.End()

	profile, err := terrain.BuildProfile(ctx, s.raster, req, s.opts.Profile)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("build profile: %w", err)
	}

	report := &domain.ProfileReport{ElevationProfile: profile}
	if req.DistanceKm > 0 {
		report.BearingDeg = geospatial.BearingDegrees(req.Origin.Lat, req.Origin.Lon, req.Destination.Lat, req.Destination.Lon)
	}
	leveled, err := terrain.Level(profile)
	switch {
	case err == nil:
		report.LeveledProfile = leveled
	case !terrain.IsDegenerate(err):
		return nil, err
	}
	return report, nil
}

// ComputeForReceipt loads a receipt and its two gateways, computes the
// features of the transmitter to witness link, stores and publishes them.
func (s *FeatureService) ComputeForReceipt(ctx context.Context, key domain.ReceiptKey) (domain.FeatureSet, error) {
	rec, err := s.receipts.Get(ctx, key)
	if err != nil {
		return domain.FeatureSet{}, fmt.Errorf("load receipt: %w", err)
	}
	return s.featurize(ctx, rec)
}

// ProcessReceipt featurizes a receipt delivered by the message broker.
func (s *FeatureService) ProcessReceipt(ctx context.Context, rec *domain.WitnessReceipt) error {
	_, err := s.featurize(ctx, rec)
	if err == nil {
		metrics.ReceiptsProcessed.WithLabelValues("stream").Inc()
	}
	return err
}

// BatchResult summarizes one page of pending receipts.
type BatchResult struct {
	Listed    int `json:"listed"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
}

// FeaturizeBatch featurizes up to limit pending receipts starting at offset,
// with up to Workers receipts in flight. Receipts whose gateways are missing
// or not located are skipped and stay pending; any other failure stops the
// batch.
func (s *FeatureService) FeaturizeBatch(ctx context.Context, offset, limit int) (BatchResult, error) {
	batch, err := s.receipts.ListPending(ctx, offset, limit)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list pending: %w", err)
	}

	var processed, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range batch {
		rec := &batch[i]
		g.Go(func() error {
			_, err := s.featurize(gctx, rec)
			switch {
			case err == nil:
				processed.Add(1)
				return nil
			case IsUnlocatable(err):
				slog.Warn("skipping receipt", "receipt", rec.Key().String(), "error", err)
				skipped.Add(1)
				return nil
			}
			return err
		})
	}
	err = g.Wait()

	res := BatchResult{Listed: len(batch), Processed: int(processed.Load()), Skipped: int(skipped.Load())}
	metrics.ReceiptsProcessed.WithLabelValues("backfill").Add(float64(res.Processed))
	return res, err
}

// Backfill featurizes every pending receipt, batchSize at a time.
func (s *FeatureService) Backfill(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	var processed, skipped int
	for {
		// saved receipts leave the pending set, so only skipped ones are paged over
		res, err := s.FeaturizeBatch(ctx, skipped, batchSize)
		processed += res.Processed
		skipped += res.Skipped
		if err != nil {
			return processed, err
		}
		slog.Info("backfill batch done", "batch", res.Listed, "processed", processed, "skipped", skipped)

		if res.Listed < batchSize {
			return processed, nil
		}
	}
}

// IsUnlocatable reports whether err means a receipt cannot be featurized
// until the gateway inventory changes.
func IsUnlocatable(err error) bool {
	return errors.Is(err, domain.ErrGatewayNotLocated) || errors.Is(err, domain.ErrNotFound)
}

func (s *FeatureService) featurize(ctx context.Context, rec *domain.WitnessReceipt) (domain.FeatureSet, error) {
	key := rec.Key()

	ctx, span := telemetry.Tracer().Start(ctx, "terrain.ComputeForReceipt")
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrReceiptHash, key.Hash),
		attribute.String(telemetry.AttrWitness, key.Witness),
	)

	req, err := s.receiptPath(ctx, rec)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.FeatureSet{}, err
	}

	f, err := s.compute(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.FeatureSet{}, fmt.Errorf("receipt %s: %w", key, err)
	}

	if err := s.receipts.SaveFeatures(ctx, key, f); err != nil {
		return domain.FeatureSet{}, fmt.Errorf("save features: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, receiptCacheKey(key))
	}
	if s.publisher != nil {
		if err := s.publisher.PublishFeatures(ctx, key, f); err != nil {
			slog.Warn("publish features failed", "receipt", key.String(), "error", err)
		}
	}

	slog.Debug("receipt featurized", "receipt", key.String(), "absent", f.IsAbsent())
	return f, nil
}

// receiptPath builds the transmitter to witness link of a receipt.
func (s *FeatureService) receiptPath(ctx context.Context, rec *domain.WitnessReceipt) (domain.PathRequest, error) {
	gws, err := s.gateways.GetByAddresses(ctx, []string{rec.Transmitter, rec.Witness})
	if err != nil {
		return domain.PathRequest{}, fmt.Errorf("load gateways: %w", err)
	}
	byAddr := make(map[string]domain.Gateway, len(gws))
	for _, g := range gws {
		byAddr[g.Address] = g
	}

	tx, ok := byAddr[rec.Transmitter]
	if !ok {
		return domain.PathRequest{}, fmt.Errorf("transmitter %s: %w", rec.Transmitter, domain.ErrNotFound)
	}
	wx, ok := byAddr[rec.Witness]
	if !ok {
		return domain.PathRequest{}, fmt.Errorf("witness %s: %w", rec.Witness, domain.ErrNotFound)
	}
	if tx.Location == nil {
		return domain.PathRequest{}, fmt.Errorf("transmitter %s: %w", tx.Address, domain.ErrGatewayNotLocated)
	}
	if wx.Location == nil {
		return domain.PathRequest{}, fmt.Errorf("witness %s: %w", wx.Address, domain.ErrGatewayNotLocated)
	}

	req := domain.PathRequest{
		Origin:            *tx.Location,
		Destination:       *wx.Location,
		OriginHeight:      float64(tx.Elevation),
		DestinationHeight: float64(wx.Elevation),
	}
	if rec.DistanceKm != nil {
		req.DistanceKm = *rec.DistanceKm
	}
	return ValidatePath(req)
}

func (s *FeatureService) compute(ctx context.Context, req domain.PathRequest) (domain.FeatureSet, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "terrain.ComputePath")
	defer span.End()
	span.SetAttributes(attribute.Float64(telemetry.AttrDistanceKm, req.DistanceKm))

	started := time.Now()
	profile, err := terrain.BuildProfile(ctx, s.raster, req, s.opts.Profile)
	if err != nil {
		metrics.ObserveProfile(started, 0, metrics.OutcomeError)
		span.SetStatus(codes.Error, err.Error())
		return domain.FeatureSet{}, err
	}
	span.SetAttributes(attribute.Int(telemetry.AttrSamples, profile.Len()))

	f, err := terrain.FeaturesForProfile(profile)
	if err != nil {
		metrics.ObserveProfile(started, profile.Len(), metrics.OutcomeError)
		span.SetStatus(codes.Error, err.Error())
		return domain.FeatureSet{}, err
	}

	outcome := metrics.OutcomeComputed
	if f.IsAbsent() {
		outcome = metrics.OutcomeAbsent
	}
	metrics.ObserveProfile(started, profile.Len(), outcome)
	span.SetAttributes(attribute.Bool(telemetry.AttrAbsent, f.IsAbsent()))
	return f, nil
}

func pathCacheKey(req domain.PathRequest) string {
	return fmt.Sprintf("path:%.5f:%.5f:%.5f:%.5f:%.1f:%.1f:%.4f",
		req.Origin.Lat, req.Origin.Lon, req.Destination.Lat, req.Destination.Lon,
		req.OriginHeight, req.DestinationHeight, req.DistanceKm)
}

func receiptCacheKey(key domain.ReceiptKey) string {
	return "receipt:" + key.Hash + ":" + key.Witness
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
