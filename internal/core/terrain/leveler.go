package terrain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

const (
	minProfileSamples   = 3
	minDistanceSpreadKm = 1e-9
)

// Level removes the least-squares line through (distance, elevation) from the
// profile. The residuals have zero mean up to rounding.
func Level(p domain.ElevationProfile) (domain.LeveledProfile, error) {
	n := p.Len()
	if len(p.Distances) != n {
		return domain.LeveledProfile{}, fmt.Errorf("profile has %d distances but %d elevations", len(p.Distances), n)
	}
	if n < minProfileSamples {
		return domain.LeveledProfile{}, fmt.Errorf("%w: %d samples, need %d", ErrDegenerateProfile, n, minProfileSamples)
	}
	if spread := floats.Max(p.Distances) - floats.Min(p.Distances); !(spread > minDistanceSpreadKm) {
		return domain.LeveledProfile{}, fmt.Errorf("%w: distance spread %g km", ErrDegenerateProfile, spread)
	}

	alpha, beta := stat.LinearRegression(p.Distances, p.Elevations, nil, false)
	if !isFinite(alpha) || !isFinite(beta) {
		return domain.LeveledProfile{}, fmt.Errorf("%w: singular baseline fit", ErrDegenerateProfile)
	}

	values := make([]float64, n)
	var scale float64
	for i, z := range p.Elevations {
		values[i] = z - (alpha + beta*p.Distances[i])
		scale = math.Max(scale, math.Abs(z))
	}
	return domain.LeveledProfile{Values: values, Scale: scale}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
