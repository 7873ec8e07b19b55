// Package raster provides elevation rasters on a regular lat/lon grid.
package raster

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

// ErrWindowOutOfBounds is returned when a requested window leaves the grid.
var ErrWindowOutOfBounds = errors.New("raster window out of bounds")

// Grid is an in-memory elevation raster. Pixel (0, 0) is the north-west
// corner; rows grow southwards and columns eastwards. A Grid is never mutated
// after construction and is safe for concurrent readers.
type Grid struct {
	west, north float64
	xRes, yRes  float64
	rows, cols  int
	data        []float64
}

// NewGrid builds a grid from row-major data. west and north are the outer
// edges of the top-left pixel, not its centre.
func NewGrid(west, north, xRes, yRes float64, rows, cols int, data []float64) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", rows, cols)
	}
	if xRes <= 0 || yRes <= 0 {
		return nil, fmt.Errorf("grid resolution must be positive, got %g x %g", xRes, yRes)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("grid data has %d samples, want %d", len(data), rows*cols)
	}
	return &Grid{west: west, north: north, xRes: xRes, yRes: yRes, rows: rows, cols: cols, data: data}, nil
}

// NewGridFunc builds a grid whose samples are produced by fn.
func NewGridFunc(west, north, res float64, rows, cols int, fn func(row, col int) float64) (*Grid, error) {
	data := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			data[r*cols+c] = fn(r, c)
		}
	}
	return NewGrid(west, north, res, res, rows, cols, data)
}

// Resolution returns the pixel size in degrees.
func (g *Grid) Resolution() (float64, float64) { return g.xRes, g.yRes }

// Index returns the pixel containing (lon, lat). The result may fall outside
// the grid; ReadWindow reports that case.
func (g *Grid) Index(lon, lat float64) (int, int) {
	row := int(math.Floor((g.north - lat) / g.yRes))
	col := int(math.Floor((lon - g.west) / g.xRes))
	return row, col
}

// Size returns the grid dimensions.
func (g *Grid) Size() (rows, cols int) { return g.rows, g.cols }

// At returns the sample at (row, col).
func (g *Grid) At(row, col int) float64 { return g.data[row*g.cols+col] }

// Bounds returns the geographic extent covered by the grid.
func (g *Grid) Bounds() domain.Bounds {
	return domain.Bounds{
		MinLat: g.north - float64(g.rows)*g.yRes,
		MinLon: g.west,
		MaxLat: g.north,
		MaxLon: g.west + float64(g.cols)*g.xRes,
	}
}

// ReadWindow copies the window out of the grid.
func (g *Grid) ReadWindow(ctx context.Context, w domain.RasterWindow) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.Width <= 0 || w.Height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", w.Height, w.Width)
	}
	if w.RowOff < 0 || w.ColOff < 0 || w.RowOff+w.Height > g.rows || w.ColOff+w.Width > g.cols {
		return nil, fmt.Errorf("%w: rows [%d,%d) cols [%d,%d) of %dx%d",
			ErrWindowOutOfBounds, w.RowOff, w.RowOff+w.Height, w.ColOff, w.ColOff+w.Width, g.rows, g.cols)
	}

	out := make([][]float64, w.Height)
	for r := 0; r < w.Height; r++ {
		start := (w.RowOff+r)*g.cols + w.ColOff
		row := make([]float64, w.Width)
		copy(row, g.data[start:start+w.Width])
		out[r] = row
	}
	return out, nil
}
