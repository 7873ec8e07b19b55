package terrain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samirrijal/witnessterrain/internal/adapters/raster"
	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/core/terrain"
	"github.com/samirrijal/witnessterrain/internal/pkg/geospatial"
)

const (
	gridWest  = -0.2
	gridNorth = 0.2
	gridRes   = 0.001
	gridSize  = 400
)

// tenKmEast is the longitude reached by travelling 10 km due east from (0, 0).
var tenKmEast = 10.0 / 6371.0 * 180 / math.Pi

var testOpts = terrain.ProfileOptions{WindowMarginKm: 1}

func newGrid(t *testing.T, fn func(row, col int) float64) *raster.Grid {
	t.Helper()
	g, err := raster.NewGridFunc(gridWest, gridNorth, gridRes, gridSize, gridSize, fn)
	require.NoError(t, err)
	return g
}

func flatGrid(t *testing.T, elevation float64) *raster.Grid {
	t.Helper()
	return newGrid(t, func(int, int) float64 { return elevation })
}

func pathRequest(origin, dest domain.GeoPoint, h0, h1 float64) domain.PathRequest {
	return domain.PathRequest{
		Origin:            origin,
		Destination:       dest,
		OriginHeight:      h0,
		DestinationHeight: h1,
		DistanceKm:        geospatial.HaversineKm(origin.Lat, origin.Lon, dest.Lat, dest.Lon),
	}
}

func eastward(h0, h1 float64) domain.PathRequest {
	return pathRequest(domain.GeoPoint{}, domain.GeoPoint{Lat: 0, Lon: tenKmEast}, h0, h1)
}
