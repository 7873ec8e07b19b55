package terrain_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/core/terrain"
)

func TestWindowAround_CentresOnQueryPixel(t *testing.T) {
	g := flatGrid(t, 0)
	w := terrain.WindowAround(g, domain.GeoPoint{Lat: 0.05, Lon: -0.05}, 5)

	row, col := g.Index(-0.05, 0.05)
	assert.Equal(t, row, w.RowOff+w.Height/2)
	assert.Equal(t, col, w.ColOff+w.Width/2)
	res := gridRes
	assert.Equal(t, int(10/(res*111.3)), w.Width)
	assert.Equal(t, w.Width, w.Height)
}

func TestWindowAround_TinyRadiusKeepsOnePixel(t *testing.T) {
	w := terrain.WindowAround(flatGrid(t, 0), domain.GeoPoint{}, 0)
	assert.Equal(t, 1, w.Width)
	assert.Equal(t, 1, w.Height)
}

func TestExtractWindow_ReadsValues(t *testing.T) {
	g := newGrid(t, func(row, col int) float64 { return float64(row*1000 + col) })
	elev, w, err := terrain.ExtractWindow(context.Background(), g, domain.GeoPoint{}, 1)
	require.NoError(t, err)

	require.Len(t, elev, w.Height)
	require.Len(t, elev[0], w.Width)
	assert.Equal(t, float64(w.RowOff*1000+w.ColOff), elev[0][0])
}

func TestSampleProfile_EndpointsCarryAntennaHeights(t *testing.T) {
	g := flatGrid(t, 100)
	req := eastward(12, 30)

	p, err := terrain.BuildProfile(context.Background(), g, req, testOpts)
	require.NoError(t, err)

	n := p.Len()
	require.Greater(t, n, 3)
	assert.Equal(t, 112.0, p.Elevations[0])
	assert.Equal(t, 130.0, p.Elevations[n-1])
	assert.Equal(t, 0.0, p.Distances[0])
	assert.Equal(t, req.DistanceKm, p.Distances[n-1])
	for i := 1; i < n-1; i++ {
		assert.Equal(t, 100.0, p.Elevations[i])
		assert.Greater(t, p.Distances[i], p.Distances[i-1])
	}
}

func TestSampleProfile_SampleCount(t *testing.T) {
	g := flatGrid(t, 0)
	req := eastward(0, 0)
	step := gridRes * 111.3

	p, err := terrain.BuildProfile(context.Background(), g, req, testOpts)
	require.NoError(t, err)
	assert.Equal(t, int(math.Ceil(req.DistanceKm/step))+1, p.Len())

	capped := testOpts
	capped.MaxSamples = 16
	p, err = terrain.BuildProfile(context.Background(), g, req, capped)
	require.NoError(t, err)
	assert.Equal(t, 16, p.Len())

	coarse := testOpts
	coarse.StepKm = 3
	p, err = terrain.BuildProfile(context.Background(), g, req, coarse)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Len())
}

func TestSampleProfile_ZeroDistanceSingleSample(t *testing.T) {
	g := flatGrid(t, 40)
	p := domain.GeoPoint{Lat: 0.02, Lon: 0.02}
	prof, err := terrain.BuildProfile(context.Background(), g, pathRequest(p, p, 3, 4), testOpts)
	require.NoError(t, err)

	require.Equal(t, 1, prof.Len())
	assert.Equal(t, 47.0, prof.Elevations[0])
}

func TestSampleProfile_OutsideWindow(t *testing.T) {
	g := flatGrid(t, 0)
	req := eastward(0, 0)

	elev, w, err := terrain.ExtractWindow(context.Background(), g, req.Origin, 2)
	require.NoError(t, err)

	_, err = terrain.SampleProfile(g, elev, w, req, testOpts)
	assert.ErrorIs(t, err, terrain.ErrSampleOutsideWindow)
	assert.False(t, terrain.IsDegenerate(err))
}

func TestLevel_RemovesLinearTrend(t *testing.T) {
	p := domain.ElevationProfile{
		Distances:  []float64{0, 1, 2, 3, 4},
		Elevations: []float64{3, 5, 7, 9, 11},
	}
	l, err := terrain.Level(p)
	require.NoError(t, err)
	for _, v := range l.Values {
		assert.InDelta(t, 0, v, 1e-9)
	}
}

func TestLevel_ZeroMeanResiduals(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := domain.ElevationProfile{Distances: make([]float64, 120), Elevations: make([]float64, 120)}
	for i := range p.Distances {
		p.Distances[i] = float64(i) * 0.09
		p.Elevations[i] = 250 + 3*p.Distances[i] + rng.Float64()*80
	}

	l, err := terrain.Level(p)
	require.NoError(t, err)
	require.Len(t, l.Values, 120)

	var sum float64
	for _, v := range l.Values {
		sum += v
	}
	assert.InDelta(t, 0, sum/120, 1e-9)
	assert.Equal(t, floats.Max(p.Elevations), l.Scale)
}

func TestLevel_Degenerate(t *testing.T) {
	_, err := terrain.Level(domain.ElevationProfile{Distances: []float64{0, 1}, Elevations: []float64{0, 1}})
	assert.ErrorIs(t, err, terrain.ErrDegenerateProfile)

	_, err = terrain.Level(domain.ElevationProfile{Distances: []float64{1, 1, 1, 1}, Elevations: []float64{0, 1, 2, 3}})
	assert.ErrorIs(t, err, terrain.ErrDegenerateProfile)
}

func TestLevel_MismatchedLengths(t *testing.T) {
	_, err := terrain.Level(domain.ElevationProfile{Distances: []float64{0, 1}, Elevations: []float64{0, 1, 2}})
	require.Error(t, err)
	assert.False(t, terrain.IsDegenerate(err))
}

func TestComputeRoughness_KnownValues(t *testing.T) {
	tests := []struct {
		name               string
		z                  []float64
		ra, rq, rp, rv, rz float64
		rsk, rku           float64
	}{
		{"square wave", []float64{1, -1, 1, -1}, 1, 1, 1, -1, 2, 0, 1},
		{"single spike", []float64{3, -1, -1, -1}, 1.5, math.Sqrt(3), 3, -1, 4, 2 / math.Sqrt(3), 7.0 / 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := terrain.ComputeRoughness(domain.LeveledProfile{Values: tt.z})
			require.NoError(t, err)
			assert.InDelta(t, tt.ra, r.Ra, 1e-12)
			assert.InDelta(t, tt.rq, r.Rq, 1e-12)
			assert.Equal(t, tt.rp, r.Rp)
			assert.Equal(t, tt.rv, r.Rv)
			assert.Equal(t, tt.rz, r.Rz)
			require.NotNil(t, r.Rsk)
			require.NotNil(t, r.Rku)
			assert.InDelta(t, tt.rsk, *r.Rsk, 1e-12)
			assert.InDelta(t, tt.rku, *r.Rku, 1e-12)
		})
	}
}

func TestComputeRoughness_FlatHasNoMoments(t *testing.T) {
	r, err := terrain.ComputeRoughness(domain.LeveledProfile{Values: []float64{0, 0, 0, 0}})
	require.NoError(t, err)
	assert.Zero(t, r.Rq)
	assert.Nil(t, r.Rsk)
	assert.Nil(t, r.Rku)
}

func TestComputeRoughness_FlatnessScalesWithElevation(t *testing.T) {
	residue := []float64{2e-11, -3e-11, 1e-11, 0}

	r, err := terrain.ComputeRoughness(domain.LeveledProfile{Values: residue, Scale: 8848.123})
	require.NoError(t, err)
	assert.Nil(t, r.Rsk)
	assert.Zero(t, r.Rq)

	// the same values are relief on a profile that never leaves sea level
	r, err = terrain.ComputeRoughness(domain.LeveledProfile{Values: []float64{2e-6, -3e-6, 1e-6, 0}})
	require.NoError(t, err)
	assert.NotNil(t, r.Rsk)
	assert.Positive(t, r.Rq)
}

func TestComputeRoughness_Overflow(t *testing.T) {
	_, err := terrain.ComputeRoughness(domain.LeveledProfile{Values: []float64{1e200, -1e200, 1e200}})
	assert.ErrorIs(t, err, terrain.ErrNumericOverflow)
	assert.True(t, terrain.IsDegenerate(err))

	_, err = terrain.ComputeRoughness(domain.LeveledProfile{})
	assert.ErrorIs(t, err, terrain.ErrDegenerateProfile)
}

func TestDetectBarriers(t *testing.T) {
	tests := []struct {
		name    string
		z       []float64
		count   int
		deepest float64
	}{
		{"clear path", []float64{10, 0, 0, 0, 10}, 0, 0},
		{"sitting on the chord", []float64{10, 10, 10, 10, 10}, 0, 0},
		{"one run", []float64{0, 0, 5, 7, 0, 0}, 1, 7},
		{"two runs", []float64{0, 3, 0, 0, 9, 0}, 2, 9},
		{"sloped chord", []float64{0, 8, 0, 0, 20}, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.ElevationProfile{Distances: make([]float64, len(tt.z)), Elevations: tt.z}
			for i := range p.Distances {
				p.Distances[i] = float64(i)
			}
			b := terrain.DetectBarriers(p)
			assert.Equal(t, tt.count, b.Count)
			assert.InDelta(t, tt.deepest, b.Deepest, 1e-12)
		})
	}
}
