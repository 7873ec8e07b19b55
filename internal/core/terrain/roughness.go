package terrain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

// flatTolerance is the RMS, relative to the raw elevation scale (at least
// 1 m), below which a leveled profile is flat. A flat profile has zero
// amplitude and undefined standardised moments.
const flatTolerance = 1e-9

func flatRq(p domain.LeveledProfile) float64 {
	return flatTolerance * math.Max(1, p.Scale)
}

// Roughness holds the ISO 4287 style amplitude descriptors of a leveled
// profile. A flat profile reports zero amplitude with Rsk and Rku nil.
type Roughness struct {
	Ra  float64 // mean absolute deviation
	Rq  float64 // root mean square
	Rp  float64 // highest peak
	Rv  float64 // deepest valley, signed
	Rz  float64 // Rp - Rv
	Rsk *float64
	Rku *float64
}

// ComputeRoughness evaluates the seven descriptors over the whole profile.
func ComputeRoughness(p domain.LeveledProfile) (Roughness, error) {
	z := p.Values
	if len(z) == 0 {
		return Roughness{}, fmt.Errorf("%w: empty leveled profile", ErrDegenerateProfile)
	}
	n := float64(len(z))

	var sumAbs float64
	for _, v := range z {
		sumAbs += math.Abs(v)
	}

	r := Roughness{
		Ra: sumAbs / n,
		Rq: math.Sqrt(floats.Dot(z, z) / n),
		Rp: floats.Max(z),
		Rv: floats.Min(z),
	}
	r.Rz = r.Rp - r.Rv

	if r.Rq <= flatRq(p) {
		return Roughness{}, nil
	}
	rq3 := r.Rq * r.Rq * r.Rq
	skew := stat.Moment(3, z, nil) / rq3
	kurt := stat.Moment(4, z, nil) / (rq3 * r.Rq)
	r.Rsk, r.Rku = &skew, &kurt

	if !r.finite() {
		return Roughness{}, fmt.Errorf("%w: rq=%g rp=%g rv=%g", ErrNumericOverflow, r.Rq, r.Rp, r.Rv)
	}
	return r, nil
}

func (r Roughness) finite() bool {
	for _, v := range []float64{r.Ra, r.Rq, r.Rp, r.Rv, r.Rz} {
		if !isFinite(v) {
			return false
		}
	}
	if r.Rsk != nil && !isFinite(*r.Rsk) {
		return false
	}
	if r.Rku != nil && !isFinite(*r.Rku) {
		return false
	}
	return true
}
