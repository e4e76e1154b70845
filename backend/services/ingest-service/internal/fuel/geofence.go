package fuel

import "math"

// EarthRadiusMeters is the mean radius used by the haversine distance.
const EarthRadiusMeters = 6371e3

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Zone is a circular area where falling fuel counts as an authorized drain.
type Zone struct {
	Center       Coordinate
	RadiusMeters float64
}

// DefaultZone is the depot used when no zone is configured.
func DefaultZone() Zone {
	return Zone{
		Center:       Coordinate{Latitude: 30.886188, Longitude: 75.929028},
		RadiusMeters: 100,
	}
}

// Contains reports whether p is within the zone radius, boundary included.
func (z Zone) Contains(p Coordinate) bool {
	return Distance(p, z.Center) <= z.RadiusMeters
}

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b Coordinate) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	phi1 := toRad(a.Latitude)
	phi2 := toRad(b.Latitude)
	dPhi := toRad(b.Latitude - a.Latitude)
	dLambda := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}
