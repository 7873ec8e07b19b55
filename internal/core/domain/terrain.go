package domain

// RasterWindow is a rectangular sub-region of an elevation raster, expressed
// in the raster's pixel grid. The query point sits at (Height/2, Width/2).
type RasterWindow struct {
	ColOff int `json:"col_off"`
	RowOff int `json:"row_off"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether the window-local pixel (row, col) is inside the window.
func (w RasterWindow) Contains(row, col int) bool {
	return row >= 0 && row < w.Height && col >= 0 && col < w.Width
}

// ElevationProfile is a sampled terrain path. Distances are kilometres from the
// origin, Elevations are metres with the antenna heights already added to the
// first and last samples.
type ElevationProfile struct {
	Distances  []float64 `json:"distances_km"`
	Elevations []float64 `json:"elevations_m"`
}

// Len returns the number of samples.
func (p ElevationProfile) Len() int { return len(p.Elevations) }

// LeveledProfile holds the profile elevations with the baseline trend removed.
type LeveledProfile struct {
	Values []float64 `json:"leveled_m"`
	// Scale is the largest absolute raw elevation, used to tell rounding
	// residue from relief.
	Scale float64 `json:"-"`
}

// PathRequest describes one point-to-point link to analyse.
type PathRequest struct {
	Origin            GeoPoint `json:"origin"`
	Destination       GeoPoint `json:"destination"`
	OriginHeight      float64  `json:"origin_height_m"`
	DestinationHeight float64  `json:"destination_height_m"`
	DistanceKm        float64  `json:"distance_km"`
}

// ProfileReport bundles a sampled profile with its leveled counterpart.
type ProfileReport struct {
	ElevationProfile
	LeveledProfile
	BearingDeg float64 `json:"bearing_deg"`
}
