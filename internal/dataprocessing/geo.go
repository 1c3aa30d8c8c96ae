package dataprocessing

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances
const EarthRadiusKm = 6371.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// HaversineKm returns the great-circle distance between two lon/lat points on
// a sphere of the given radius. Identical and antipodal points are safe: the
// haversine term is clamped to [0,1] before asin.
func HaversineKm(from, to orb.Point, radiusKm float64) float64 {
	lat1 := toRadians(from.Lat())
	lat2 := toRadians(to.Lat())
	dLat := lat2 - lat1
	dLon := toRadians(to.Lon()) - toRadians(from.Lon())

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	a = math.Max(0, math.Min(1, a))

	return 2 * math.Asin(math.Sqrt(a)) * radiusKm
}

// extendBound grows b to include p, skipping points with missing coordinates
func extendBound(b *orb.Bound, seen *bool, p orb.Point) {
	if math.IsNaN(p.Lon()) || math.IsNaN(p.Lat()) {
		return
	}
	if !*seen {
		*b = p.Bound()
		*seen = true
		return
	}
	*b = b.Extend(p)
}
