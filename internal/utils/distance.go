package utils

import (
	"math"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Distance returns the great-circle distance between two coordinates in
// meters, using the haversine formula. Inputs are assumed to be validated
// upstream (lat in [-90,90], lng in [-180,180]).
func Distance(a, b Coordinate) float64 {
	return haversineDistance(a.Lat, a.Lng, b.Lat, b.Lng)
}

func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

func IsWithinRadius(center, point Coordinate, radiusMeters float64) bool {
	return Distance(center, point) <= radiusMeters
}

// EstimateETAMinutes converts a distance to an estimated travel time using a
// flat average-speed heuristic.
func EstimateETAMinutes(distanceMeters float64, averageSpeedKMH float64) int {
	if averageSpeedKMH <= 0 {
		averageSpeedKMH = 30 // Default city speed
	}

	timeHours := (distanceMeters / 1000) / averageSpeedKMH
	return int(math.Ceil(timeHours * 60))
}

func IsValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
