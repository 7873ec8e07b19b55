package geospatial

import "math"

// Bearing returns the initial great-circle bearing in radians from point 1 to
// point 2, measured clockwise from north in (-pi, pi].
//
// Coincident points are not special-cased: atan2(0, 0) yields 0, so callers
// must check the path distance before trusting the result.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := toRad(lat1), toRad(lat2)
	dLon := toRad(lon2 - lon1)

	x := math.Cos(phi2) * math.Sin(dLon)
	y := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)
	return math.Atan2(x, y)
}

// BearingDegrees returns Bearing as a compass heading in [0, 360).
func BearingDegrees(lat1, lon1, lat2, lon2 float64) float64 {
	deg := math.Mod(toDeg(Bearing(lat1, lon1, lat2, lon2))+360, 360)
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Destination walks distanceKm along a great circle from (lat, lon) with the
// given initial bearing (radians) and returns the end point in degrees.
func Destination(lat, lon, bearing, distanceKm float64) (float64, float64) {
	phi1, lambda1 := toRad(lat), toRad(lon)
	delta := distanceKm / earthRadiusKm

	sinPhi2 := math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(bearing)
	phi2 := math.Asin(sinPhi2)
	lambda2 := lambda1 + math.Atan2(
		math.Sin(bearing)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*sinPhi2,
	)

	// normalise to [-180, 180)
	lon2 := math.Mod(toDeg(lambda2)+540, 360) - 180
	return toDeg(phi2), lon2
}
