package terrain

import "errors"

var (
	// ErrDegenerateProfile is returned when a profile is too short, or its
	// distances too tightly packed, for a baseline fit.
	ErrDegenerateProfile = errors.New("degenerate elevation profile")
	// ErrNumericOverflow is returned when a statistic is not finite.
	ErrNumericOverflow = errors.New("numeric overflow in terrain statistics")
	// ErrSampleOutsideWindow is returned when a profile sample does not fall
	// inside the raster window it is read from.
	ErrSampleOutsideWindow = errors.New("profile sample outside raster window")
)

// IsDegenerate reports whether err is one of the numerical failures that the
// feature pipeline recovers from by reporting absent features.
func IsDegenerate(err error) bool {
	return errors.Is(err, ErrDegenerateProfile) || errors.Is(err, ErrNumericOverflow)
}
