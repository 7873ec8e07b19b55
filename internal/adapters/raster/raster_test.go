package raster

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

func TestNewGrid_Validation(t *testing.T) {
	_, err := NewGrid(0, 0, 0.1, 0.1, 2, 2, []float64{1, 2, 3})
	assert.Error(t, err)

	_, err = NewGrid(0, 0, 0, 0.1, 2, 2, []float64{1, 2, 3, 4})
	assert.Error(t, err)

	_, err = NewGrid(0, 0, 0.1, 0.1, 0, 2, nil)
	assert.Error(t, err)
}

func TestGrid_Index(t *testing.T) {
	g, err := NewGridFunc(10, 50, 0.25, 8, 8, func(r, c int) float64 { return 0 })
	require.NoError(t, err)

	row, col := g.Index(10.1, 49.9)
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)

	row, col = g.Index(11.3, 48.6)
	assert.Equal(t, 5, row)
	assert.Equal(t, 5, col)

	b := g.Bounds()
	assert.InDelta(t, 48, b.MinLat, 1e-12)
	assert.InDelta(t, 12, b.MaxLon, 1e-12)
}

func TestGrid_ReadWindow(t *testing.T) {
	g, err := NewGridFunc(0, 10, 1, 5, 5, func(r, c int) float64 { return float64(r*10 + c) })
	require.NoError(t, err)

	win, err := g.ReadWindow(context.Background(), domain.RasterWindow{ColOff: 1, RowOff: 2, Width: 3, Height: 2})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{21, 22, 23}, {31, 32, 33}}, win)

	// the window is a copy
	win[0][0] = -1
	assert.Equal(t, 21.0, g.At(2, 1))
}

func TestGrid_ReadWindowOutOfBounds(t *testing.T) {
	g, err := NewGridFunc(0, 10, 1, 5, 5, func(r, c int) float64 { return 0 })
	require.NoError(t, err)

	_, err = g.ReadWindow(context.Background(), domain.RasterWindow{ColOff: -1, RowOff: 0, Width: 3, Height: 3})
	assert.True(t, errors.Is(err, ErrWindowOutOfBounds))

	_, err = g.ReadWindow(context.Background(), domain.RasterWindow{ColOff: 3, RowOff: 3, Width: 3, Height: 3})
	assert.True(t, errors.Is(err, ErrWindowOutOfBounds))
}

func TestGrid_ReadWindowCancelled(t *testing.T) {
	g, err := NewGridFunc(0, 10, 1, 5, 5, func(r, c int) float64 { return 0 })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.ReadWindow(ctx, domain.RasterWindow{Width: 1, Height: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseHGT(t *testing.T) {
	samples := make([]int16, hgtSamples3*hgtSamples3)
	samples[0] = 120                 // north-west corner
	samples[hgtSamples3+1] = hgtVoid // void
	samples[len(samples)-1] = 845    // south-east corner
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, samples))

	g, err := ParseHGT("N37W122.hgt", &buf)
	require.NoError(t, err)

	rows, cols := g.Size()
	assert.Equal(t, hgtSamples3, rows)
	assert.Equal(t, hgtSamples3, cols)

	row, col := g.Index(-122, 38)
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)
	assert.Equal(t, 120.0, g.At(row, col))

	row, col = g.Index(-121, 37)
	assert.Equal(t, hgtSamples3-1, row)
	assert.Equal(t, hgtSamples3-1, col)
	assert.Equal(t, 845.0, g.At(row, col))

	assert.Equal(t, 0.0, g.At(1, 1))
}

func TestParseHGT_BadInput(t *testing.T) {
	_, err := ParseHGT("tile.hgt", bytes.NewReader(nil))
	assert.Error(t, err)

	_, err = ParseHGT("S01E010.hgt", bytes.NewReader(make([]byte, 10)))
	assert.Error(t, err)
}

func TestParseHGTName(t *testing.T) {
	lat, lon, err := parseHGTName("S01E010.hgt")
	require.NoError(t, err)
	assert.Equal(t, -1.0, lat)
	assert.Equal(t, 10.0, lon)
}
