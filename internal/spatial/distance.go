package spatial

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	MetersPerMile     = 1609.34
)

// MilesToMeters converts a distance in statute miles to meters
func MilesToMeters(miles float64) float64 {
	return miles * MetersPerMile
}

// MetersToMiles converts a distance in meters to statute miles
func MetersToMiles(meters float64) float64 {
	return meters / MetersPerMile
}

// GreatCircleMeters returns the great-circle distance in meters between two
// geographic points given as (lon, lat)
func GreatCircleMeters(a, b orb.Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat(), a.Lon())
	p2 := s2.LatLngFromDegrees(b.Lat(), b.Lon())
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// GeographicBound returns the lon/lat box that contains every point within
// radius meters of center. The longitude half-width is the widest point of
// the spherical cap, asin(sin r / cos lat); when the cap reaches a pole the
// box spans all longitudes.
func GeographicBound(center orb.Point, radius float64) orb.Bound {
	r := radius / EarthRadiusMeters
	dLat := r * 180 / math.Pi
	minLat, maxLat := center.Lat()-dLat, center.Lat()+dLat

	dLon := 180.0
	if r < math.Pi/2 && minLat > -90 && maxLat < 90 {
		cosLat := math.Cos(center.Lat() * math.Pi / 180)
		if s := math.Sin(r); s < cosLat {
			dLon = math.Asin(s/cosLat) * 180 / math.Pi
		}
	}

	return orb.Bound{
		Min: orb.Point{center.Lon() - dLon, math.Max(minLat, -90)},
		Max: orb.Point{center.Lon() + dLon, math.Min(maxLat, 90)},
	}
}
