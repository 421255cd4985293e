// geo/geo.go
package geo

import (
	"math"
	"math/rand"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// MaxScore is awarded for a perfect guess (zero distance).
const MaxScore = 5000

// LatLng is a coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// HaversineDistance returns the great-circle distance between two coordinates
// in kilometers.
func HaversineDistance(from, to LatLng) float64 {
	dLat := toRadians(to.Lat - from.Lat)
	dLng := toRadians(to.Lng - from.Lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(from.Lat))*math.Cos(toRadians(to.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Score converts a distance in kilometers into points for single-player mode:
// round(max(0, 5000 - distance^0.9)). 0 km scores 5000; the curve decreases
// monotonically and is floored at 0.
func Score(distanceKm float64) int {
	score := MaxScore - math.Pow(distanceKm, 0.9)
	if score < 0 {
		return 0
	}
	return int(math.Round(score))
}

// RandomLatLng samples a uniform random coordinate. Latitude is limited to
// [-85, 85] to avoid the poles where street-level imagery is rarely available.
func RandomLatLng() LatLng {
	return LatLng{
		Lat: rand.Float64()*170 - 85,
		Lng: rand.Float64()*360 - 180,
	}
}
