package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// EarthCircumferenceMeters is the equatorial circumference of Earth.
// A circle of this radius around any point covers the whole globe.
const EarthCircumferenceMeters = 40_075_000.0

// metersPerDegree is the arc length of one degree of latitude.
const metersPerDegree = EarthRadiusMeters * math.Pi / 180

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Validate checks that the coordinate lies within [-90,90] x [-180,180].
func (c Coordinate) Validate() error {
	if !ValidateCoordinates(c.Latitude, c.Longitude) {
		return fmt.Errorf("coordinate out of range: lat=%f lon=%f", c.Latitude, c.Longitude)
	}
	return nil
}

// DistanceTo returns the great-circle distance to other in meters.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	return Haversine(c.Latitude, c.Longitude, other.Latitude, other.Longitude)
}

// Circle is a circular search area.
type Circle struct {
	Center       Coordinate `json:"center"`
	RadiusMeters float64    `json:"radius_m"`
}

// Region is a rectangular display area given as a center and spans in degrees.
type Region struct {
	Center         Coordinate `json:"center"`
	LatitudeDelta  float64    `json:"lat_delta"`
	LongitudeDelta float64    `json:"lon_delta"`
}

// Contains reports whether c falls inside the region.
func (r Region) Contains(c Coordinate) bool {
	if math.Abs(c.Latitude-r.Center.Latitude) > r.LatitudeDelta/2 {
		return false
	}
	dLon := math.Abs(c.Longitude - r.Center.Longitude)
	if dLon > 180 {
		dLon = 360 - dLon
	}
	return dLon <= r.LongitudeDelta/2
}

// BoundingRegion returns the smallest region covering all coords, padded on every
// side by dimensionMeters. An empty coords slice yields a zero Region.
func BoundingRegion(coords []Coordinate, dimensionMeters float64) Region {
	if len(coords) == 0 {
		return Region{}
	}

	minLat, maxLat := coords[0].Latitude, coords[0].Latitude
	minLon, maxLon := coords[0].Longitude, coords[0].Longitude
	for _, c := range coords[1:] {
		minLat = math.Min(minLat, c.Latitude)
		maxLat = math.Max(maxLat, c.Latitude)
		minLon = math.Min(minLon, c.Longitude)
		maxLon = math.Max(maxLon, c.Longitude)
	}

	center := Coordinate{Latitude: (minLat + maxLat) / 2, Longitude: (minLon + maxLon) / 2}

	padLat := math.Max(dimensionMeters, 0) / metersPerDegree
	padLon := padLat
	// Degrees of longitude shrink towards the poles.
	if cos := math.Cos(center.Latitude * math.Pi / 180); cos > 1e-6 {
		padLon = padLat / cos
	}

	return Region{
		Center:         center,
		LatitudeDelta:  math.Min(maxLat-minLat+padLat, 180),
		LongitudeDelta: math.Min(maxLon-minLon+padLon, 360),
	}
}

// Haversine returns the great-circle distance in meters between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
