package terrain

import (
	"fmt"
	"math"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/core/ports"
	"github.com/samirrijal/witnessterrain/internal/pkg/geospatial"
)

// DefaultMaxSamples bounds the length of a single profile.
const DefaultMaxSamples = 4096

// ProfileOptions tunes profile sampling. The zero value samples at the raster
// resolution.
type ProfileOptions struct {
	// StepKm is the spacing between samples; 0 means one raster pixel.
	StepKm float64
	// MaxSamples caps the profile length; 0 means DefaultMaxSamples.
	MaxSamples int
	// WindowMarginKm pads the raster window beyond the path length;
	// 0 means three sampling steps.
	WindowMarginKm float64
}

func (o ProfileOptions) step(raster ports.ElevationRaster) float64 {
	if o.StepKm > 0 {
		return o.StepKm
	}
	xRes, yRes := raster.Resolution()
	return math.Min(xRes, yRes) * geospatial.KmPerDegree
}

func (o ProfileOptions) maxSamples() int {
	if o.MaxSamples > 0 {
		return o.MaxSamples
	}
	return DefaultMaxSamples
}

func (o ProfileOptions) margin(raster ports.ElevationRaster) float64 {
	if o.WindowMarginKm > 0 {
		return o.WindowMarginKm
	}
	return 3 * o.step(raster)
}

// sampleCount returns ceil(distance/step)+1 clamped to [1, limit]. A
// non-positive distance collapses the profile to the origin sample.
func sampleCount(distanceKm, stepKm float64, limit int) int {
	if !(distanceKm > 0) || !(stepKm > 0) {
		return 1
	}
	n := math.Ceil(distanceKm/stepKm) + 1
	if n > float64(limit) {
		return limit
	}
	return int(n)
}

// SampleProfile walks from req.Origin towards req.Destination for
// req.DistanceKm, reading elevations from the window elev described by w.
// The origin antenna height is added to the first sample and the destination
// antenna height to the last one.
func SampleProfile(raster ports.ElevationRaster, elev [][]float64, w domain.RasterWindow, req domain.PathRequest, opts ProfileOptions) (domain.ElevationProfile, error) {
	n := sampleCount(req.DistanceKm, opts.step(raster), opts.maxSamples())

	// with a single sample the bearing is never needed, which keeps
	// coincident endpoints away from atan2(0, 0)
	var bearing float64
	if n > 1 {
		bearing = geospatial.Bearing(req.Origin.Lat, req.Origin.Lon, req.Destination.Lat, req.Destination.Lon)
	}

	profile := domain.ElevationProfile{
		Distances:  make([]float64, n),
		Elevations: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		d := 0.0
		switch {
		case i == n-1 && n > 1:
			d = req.DistanceKm
		case i > 0:
			d = req.DistanceKm * float64(i) / float64(n-1)
		}

		lat, lon := req.Origin.Lat, req.Origin.Lon
		if d > 0 {
			lat, lon = geospatial.Destination(lat, lon, bearing, d)
		}

		row, col := raster.Index(lon, lat)
		row -= w.RowOff
		col -= w.ColOff
		if !w.Contains(row, col) || row >= len(elev) || col >= len(elev[row]) {
			return domain.ElevationProfile{}, fmt.Errorf("%w: sample %d at (%.6f, %.6f) maps to pixel (%d, %d) of %dx%d",
				ErrSampleOutsideWindow, i, lat, lon, row, col, w.Height, w.Width)
		}

		profile.Distances[i] = d
		profile.Elevations[i] = elev[row][col]
	}

	profile.Elevations[0] += req.OriginHeight
	profile.Elevations[n-1] += req.DestinationHeight
	return profile, nil
}
