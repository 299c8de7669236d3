package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceZero(t *testing.T) {
	point := Coordinate{Lat: 23.8103, Lng: 90.4125}
	assert.Equal(t, 0.0, Distance(point, point))
}

func TestDistanceSymmetry(t *testing.T) {
	a := Coordinate{Lat: 23.8103, Lng: 90.4125}
	b := Coordinate{Lat: 23.7806, Lng: 90.2794}
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestDistanceKnownValue(t *testing.T) {
	// Two points in Dhaka roughly 1.7km apart.
	a := Coordinate{Lat: 23.8103, Lng: 90.4125}
	b := Coordinate{Lat: 23.8000, Lng: 90.4000}
	d := Distance(a, b)
	assert.Greater(t, d, 1400.0)
	assert.Less(t, d, 1900.0)
}

func TestDistanceLongRange(t *testing.T) {
	// Dhaka to Chittagong, roughly 215km.
	dhaka := Coordinate{Lat: 23.8103, Lng: 90.4125}
	chittagong := Coordinate{Lat: 22.3569, Lng: 91.7832}
	d := Distance(dhaka, chittagong)
	assert.InDelta(t, 215000, d, 10000)
}

func TestIsWithinRadius(t *testing.T) {
	center := Coordinate{Lat: 23.8103, Lng: 90.4125}
	near := Coordinate{Lat: 23.8110, Lng: 90.4130}
	far := Coordinate{Lat: 24.5, Lng: 91.0}

	assert.True(t, IsWithinRadius(center, near, 1000))
	assert.False(t, IsWithinRadius(center, far, 1000))
	assert.True(t, IsWithinRadius(center, center, 0))
}

func TestEstimateETAMinutes(t *testing.T) {
	// 30 km at 30 km/h is an hour.
	assert.Equal(t, 60, EstimateETAMinutes(30000, 30))
	// Rounds up to the next minute.
	assert.Equal(t, 1, EstimateETAMinutes(100, 30))
	assert.Equal(t, 0, EstimateETAMinutes(0, 30))
	// Non-positive speed falls back to the default.
	assert.Equal(t, 60, EstimateETAMinutes(30000, 0))
}

func TestIsValidCoordinates(t *testing.T) {
	assert.True(t, IsValidCoordinates(0, 0))
	assert.True(t, IsValidCoordinates(90, 180))
	assert.True(t, IsValidCoordinates(-90, -180))
	assert.False(t, IsValidCoordinates(90.1, 0))
	assert.False(t, IsValidCoordinates(-90.1, 0))
	assert.False(t, IsValidCoordinates(0, 180.1))
	assert.False(t, IsValidCoordinates(0, -180.1))
}
