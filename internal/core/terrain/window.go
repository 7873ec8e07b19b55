package terrain

import (
	"context"
	"fmt"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/core/ports"
	"github.com/samirrijal/witnessterrain/internal/pkg/geospatial"
)

// WindowAround returns the square window of side 2*radiusKm centred on the
// pixel that contains center. Kilometres are converted to pixels with the
// fixed geospatial.KmPerDegree approximation on both axes.
func WindowAround(raster ports.ElevationRaster, center domain.GeoPoint, radiusKm float64) domain.RasterWindow {
	xRes, yRes := raster.Resolution()
	height := max(1, int(2*radiusKm/(yRes*geospatial.KmPerDegree)))
	width := max(1, int(2*radiusKm/(xRes*geospatial.KmPerDegree)))

	row, col := raster.Index(center.Lon, center.Lat)
	return domain.RasterWindow{
		ColOff: col - width/2,
		RowOff: row - height/2,
		Width:  width,
		Height: height,
	}
}

// ExtractWindow reads the local elevation map around center. Bounds failures
// come from the raster itself and are returned wrapped.
func ExtractWindow(ctx context.Context, raster ports.ElevationRaster, center domain.GeoPoint, radiusKm float64) ([][]float64, domain.RasterWindow, error) {
	w := WindowAround(raster, center, radiusKm)
	elev, err := raster.ReadWindow(ctx, w)
	if err != nil {
		return nil, w, fmt.Errorf("read raster window: %w", err)
	}
	return elev, w, nil
}
