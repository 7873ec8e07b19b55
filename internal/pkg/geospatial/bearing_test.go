package geospatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearing_DueEast(t *testing.T) {
	got := Bearing(0, 0, 0, 90)
	assert.InDelta(t, math.Pi/2, got, 1e-12)
	assert.InDelta(t, 90.0, BearingDegrees(0, 0, 0, 90), 1e-9)
}

func TestBearing_Cardinals(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"north", 10, 20, 11, 20, 0},
		{"south", 10, 20, 9, 20, 180},
		{"west", 0, 10, 0, 5, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BearingDegrees(tt.lat1, tt.lon1, tt.lat2, tt.lon2), 1e-9)
		})
	}
}

func TestBearing_CoincidentIsDegenerate(t *testing.T) {
	// atan2(0, 0): no direction information survives, callers guard on distance
	assert.Equal(t, 0.0, Bearing(37.5, -122.1, 37.5, -122.1))
}

func TestDestination_RoundTrip(t *testing.T) {
	lat, lon := 37.7749, -122.4194
	b := Bearing(lat, lon, 37.8044, -122.2712)
	d := HaversineKm(lat, lon, 37.8044, -122.2712)

	lat2, lon2 := Destination(lat, lon, b, d)
	assert.InDelta(t, 37.8044, lat2, 1e-6)
	assert.InDelta(t, -122.2712, lon2, 1e-6)
}

func TestDestination_EquatorEast(t *testing.T) {
	lat, lon := Destination(0, 0, math.Pi/2, 10)
	assert.InDelta(t, 0, lat, 1e-12)
	assert.InDelta(t, 10/earthRadiusKm*180/math.Pi, lon, 1e-12)
}

func TestHaversine(t *testing.T) {
	// one degree of longitude on the equator
	assert.InDelta(t, 111194.9, Haversine(0, 0, 0, 1), 0.1)
	assert.InDelta(t, 111.1949, HaversineKm(0, 0, 0, 1), 1e-4)
}

