package terrain

import (
	"context"
	"fmt"
	"math"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/core/ports"
)

const (
	// minCosLat keeps the window radius finite near the poles.
	minCosLat = 0.1
	// windowSlack covers the gap between the great-circle kilometre and the
	// flat KmPerDegree pixel conversion on long paths.
	windowSlack = 0.005
)

// Extract levels the profile and computes all nine features. Degenerate
// input is reported through errors satisfying IsDegenerate.
func Extract(p domain.ElevationProfile) (domain.FeatureSet, error) {
	leveled, err := Level(p)
	if err != nil {
		return domain.AbsentFeatures(), err
	}
	r, err := ComputeRoughness(leveled)
	if err != nil {
		return domain.AbsentFeatures(), err
	}
	b := DetectBarriers(p)
	if !isFinite(b.Deepest) {
		return domain.AbsentFeatures(), fmt.Errorf("%w: deepest barrier %g", ErrNumericOverflow, b.Deepest)
	}

	return domain.FeatureSet{
		Ra:             domain.Float(r.Ra),
		Rq:             domain.Float(r.Rq),
		Rp:             domain.Float(r.Rp),
		Rv:             domain.Float(r.Rv),
		Rz:             domain.Float(r.Rz),
		Rsk:            r.Rsk,
		Rku:            r.Rku,
		DeepestBarrier: domain.Float(b.Deepest),
		NBarriers:      domain.Int(b.Count),
	}, nil
}

// FeaturesForProfile is Extract with the too-close fallback applied: a
// degenerate profile yields an all-absent FeatureSet and no error.
func FeaturesForProfile(p domain.ElevationProfile) (domain.FeatureSet, error) {
	f, err := Extract(p)
	if IsDegenerate(err) {
		return domain.AbsentFeatures(), nil
	}
	return f, err
}

// WindowRadius returns the raster window radius needed to hold the whole
// path around its origin.
func WindowRadius(req domain.PathRequest, opts ProfileOptions, raster ports.ElevationRaster) float64 {
	c := math.Max(math.Cos(req.Origin.Lat*math.Pi/180), minCosLat)
	return math.Max(req.DistanceKm, 0)*(1+windowSlack)/c + opts.margin(raster)
}

// BuildProfile reads the raster window around the origin and samples the
// path out of it.
func BuildProfile(ctx context.Context, raster ports.ElevationRaster, req domain.PathRequest, opts ProfileOptions) (domain.ElevationProfile, error) {
	elev, w, err := ExtractWindow(ctx, raster, req.Origin, WindowRadius(req, opts, raster))
	if err != nil {
		return domain.ElevationProfile{}, err
	}
	return SampleProfile(raster, elev, w, req, opts)
}

// ComputePath runs the full pipeline for one link. Raster failures are
// returned; numerically degenerate paths are not errors.
func ComputePath(ctx context.Context, raster ports.ElevationRaster, req domain.PathRequest, opts ProfileOptions) (domain.FeatureSet, error) {
	profile, err := BuildProfile(ctx, raster, req, opts)
	if err != nil {
		return domain.FeatureSet{}, err
	}
	return FeaturesForProfile(profile)
}
