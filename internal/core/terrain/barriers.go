package terrain

import "github.com/samirrijal/witnessterrain/internal/core/domain"

// clearanceTolerance keeps samples that sit on the line of sight, up to
// rounding, from counting as obstructions.
const clearanceTolerance = 1e-9

// Barriers summarises line-of-sight obstructions along a path.
type Barriers struct {
	Count   int
	Deepest float64 // metres above the line of sight, 0 when Count is 0
}

// LineOfSight returns the height of the straight chord between the first and
// last profile samples at distance d.
func LineOfSight(p domain.ElevationProfile, d float64) float64 {
	n := p.Len()
	d0, dn := p.Distances[0], p.Distances[n-1]
	z0, zn := p.Elevations[0], p.Elevations[n-1]
	if dn == d0 {
		return z0
	}
	return z0 + (zn-z0)*(d-d0)/(dn-d0)
}

// DetectBarriers scans the raw profile, whose end samples carry the antenna
// heights, against the line of sight between the two antenna tops. Each
// maximal run of samples rising above the line is one barrier.
func DetectBarriers(p domain.ElevationProfile) Barriers {
	n := p.Len()
	if n < 3 || len(p.Distances) != n {
		return Barriers{}
	}

	var b Barriers
	inside := false
	for i := 1; i < n-1; i++ {
		clearance := p.Elevations[i] - LineOfSight(p, p.Distances[i])
		if !(clearance > clearanceTolerance) {
			inside = false
			continue
		}
		if !inside {
			b.Count++
			inside = true
		}
		if clearance > b.Deepest {
			b.Deepest = clearance
		}
	}
	return b
}
