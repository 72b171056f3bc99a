// Package spatial provides great-circle geometry over WGS84 degree
// coordinates.
package spatial

import "github.com/golang/geo/s2"

// EarthRadiusMeters is Earth's mean radius.
const EarthRadiusMeters = 6371000.0

// Distance calculates the great-circle distance between two points in
// meters using the Haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}
